package ingest

import (
	"context"
	"fmt"

	"github.com/vulnreport/api/internal/metrics"
	"github.com/vulnreport/api/pkg/domain/finding"
	"github.com/vulnreport/api/pkg/domain/host"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/logger"
)

// ClassifiedRow pairs a normalized row with its derived classification.
type ClassifiedRow struct {
	Raw   RawRow
	Class Classification
}

// Aggregator builds the host set and finding set of one report and
// accumulates the rollup counters. Hosts are inserted before findings;
// finding batches are best-effort.
type Aggregator struct {
	hostRepo    host.Repository
	findingRepo finding.Repository
	batchSize   int
	logger      *logger.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(hostRepo host.Repository, findingRepo finding.Repository, batchSize int, log *logger.Logger) *Aggregator {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Aggregator{
		hostRepo:    hostRepo,
		findingRepo: findingRepo,
		batchSize:   batchSize,
		logger:      log.With("component", "aggregator"),
	}
}

// Aggregate persists hosts and findings for a report and returns the
// report-level rollup counters. Rows whose host insert failed never reach
// the findings store; a failed finding batch is counted in stats and
// processing continues with the next batch.
//
// Rollup counters are accumulated only from findings that were actually
// persisted, so the report totals always match the stored finding set.
func (a *Aggregator) Aggregate(ctx context.Context, reportID shared.ID, rows []ClassifiedRow, stats *Stats) (report.Counts, error) {
	var counts report.Counts

	// Hosts are deduplicated by the raw IP string exactly as read from
	// the export. The first row observed for an IP wins the hostname.
	hostsByIP := make(map[string]*host.Host)
	hostOrder := make([]*host.Host, 0)

	for _, row := range rows {
		if _, seen := hostsByIP[row.Raw.HostIP]; seen {
			continue
		}
		h, err := host.New(reportID, row.Raw.HostIP, row.Raw.Hostname)
		if err != nil {
			stats.RowsSkippedValidation++
			continue
		}
		hostsByIP[row.Raw.HostIP] = h
		hostOrder = append(hostOrder, h)
	}

	if err := a.hostRepo.CreateBatch(ctx, hostOrder); err != nil {
		return counts, fmt.Errorf("failed to persist hosts: %w", err)
	}
	stats.HostsProcessed = len(hostOrder)

	// Build findings with host linkage in row order.
	type pending struct {
		f *finding.Finding
		h *host.Host
	}
	pendings := make([]pending, 0, len(rows))

	for _, row := range rows {
		h, ok := hostsByIP[row.Raw.HostIP]
		if !ok {
			// Shared IP extraction means this cannot normally happen,
			// but a row without a host must never be persisted.
			stats.RowsSkippedValidation++
			continue
		}

		f := &finding.Finding{
			ID:                shared.NewID(),
			ReportID:          reportID,
			HostID:            h.ID,
			HostIP:            h.IPAddress,
			CVEID:             row.Class.CVEID,
			PluginID:          row.Raw.PluginID,
			Name:              row.Raw.Name,
			Severity:          row.Class.Severity,
			CVSSScore:         row.Class.CVSSScore,
			CVSSVector:        row.Raw.CVSSVector,
			Description:       row.Raw.Description,
			Solution:          row.Raw.Solution,
			FixRecommendation: row.Raw.FixRecommendation,
			Port:              ParsePort(row.Raw.Port),
			Protocol:          row.Raw.Protocol,
			Service:           row.Raw.Service,
			IsZeroDay:         row.Class.IsZeroDay,
			IsExploitable:     row.Class.IsExploitable,
			PluginFamily:      row.Raw.PluginFamily,
			PluginOutput:      row.Raw.PluginOutput,
		}
		if err := f.Validate(); err != nil {
			stats.RowsSkippedValidation++
			continue
		}
		pendings = append(pendings, pending{f: f, h: h})
	}

	// Insert findings in fixed-size batches. A failed batch is logged
	// and accounted, then processing continues with the next batch.
	for start := 0; start < len(pendings); start += a.batchSize {
		end := min(start+a.batchSize, len(pendings))
		batch := pendings[start:end]

		batchFindings := make([]*finding.Finding, len(batch))
		for i, p := range batch {
			batchFindings[i] = p.f
		}

		result, err := a.findingRepo.CreateBatch(ctx, batchFindings)
		if err != nil {
			a.logger.Error("finding batch insert failed",
				"report_id", reportID.String(),
				"batch_start", start,
				"batch_size", len(batch),
				"error", err,
			)
			metrics.FindingBatchFailures.Inc()
			metrics.RowsSkippedTotal.WithLabelValues("persistence").Add(float64(result.Failed))
			stats.RowsSkippedPersistence += result.Failed
			continue
		}

		stats.VulnerabilitiesProcessed += result.Inserted
		metrics.RowsProcessedTotal.Add(float64(result.Inserted))

		for _, p := range batch {
			accumulate(&counts, p.h, p.f)
			metrics.FindingsIngestedTotal.WithLabelValues(p.f.Severity.String()).Inc()
		}
	}

	// Write per-host rollups after all batches were attempted.
	for _, h := range hostOrder {
		if err := a.hostRepo.UpdateCounts(ctx, h); err != nil {
			a.logger.Error("host rollup update failed",
				"report_id", reportID.String(),
				"host_ip", h.IPAddress,
				"error", err,
			)
		}
	}

	return counts, nil
}

// accumulate adds one persisted finding to the host and report rollups.
func accumulate(counts *report.Counts, h *host.Host, f *finding.Finding) {
	counts.Total++
	h.TotalVulnerabilities++

	switch f.Severity {
	case finding.SeverityCritical:
		counts.Critical++
		h.CriticalCount++
	case finding.SeverityHigh:
		counts.High++
		h.HighCount++
	case finding.SeverityMedium:
		counts.Medium++
		h.MediumCount++
	case finding.SeverityLow:
		counts.Low++
		h.LowCount++
	case finding.SeverityInfo:
		counts.Info++
		h.InfoCount++
	}

	if f.IsZeroDay {
		counts.ZeroDay++
		h.ZeroDayCount++
	}
}
