package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/vulnreport/api/internal/metrics"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/logger"
)

// Config tunes the ingestion pipeline.
type Config struct {
	BatchSize            int
	ZeroDayYearThreshold int

	// FailureRatioThreshold is the fraction of persistence-failed rows
	// above which the report is finalized as failed instead of
	// completed. The default of 1.0 keeps the historical policy of
	// always completing once every batch was attempted.
	FailureRatioThreshold float64
}

// Service orchestrates one upload end to end: resolve identity, create
// the report, normalize and classify every row, aggregate, finalize.
type Service struct {
	resolver   *Resolver
	aggregator *Aggregator
	reportRepo report.Repository
	classifier *Classifier

	failureRatioThreshold float64
	logger                *logger.Logger
}

// NewService creates the ingestion service.
func NewService(resolver *Resolver, aggregator *Aggregator, reportRepo report.Repository, cfg Config, log *logger.Logger) *Service {
	threshold := cfg.FailureRatioThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 1.0
	}
	return &Service{
		resolver:              resolver,
		aggregator:            aggregator,
		reportRepo:            reportRepo,
		classifier:            NewClassifier(cfg.ZeroDayYearThreshold),
		failureRatioThreshold: threshold,
		logger:                log.With("service", "ingest"),
	}
}

// Ingest processes one upload. Validation and identity failures stop the
// pipeline before any side effect; after the report row exists,
// ingestion is best-effort and the report always reaches a terminal
// state.
func (s *Service) Ingest(ctx context.Context, input Input) (*Output, error) {
	start := time.Now()
	metrics.IngestsInProgress.Inc()
	defer metrics.IngestsInProgress.Dec()

	// Metadata validation runs before identity resolution so a bad
	// upload cannot create an organization as a side effect.
	if err := validateInput(input); err != nil {
		return nil, err
	}

	org, err := s.resolver.ResolveOrganization(ctx, input)
	if err != nil {
		return nil, err
	}

	// The CSV is parsed in full before the report row is created, so a
	// structurally malformed file leaves no partial state behind.
	rows, stats, err := s.parseAndClassify(input)
	if err != nil {
		return nil, err
	}

	rep, err := s.resolver.CreateReport(ctx, org, input)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(
		"report_id", rep.ID.String(),
		"org_id", org.ID.String(),
		"iteration", rep.IterationNumber,
	)
	log.Info("ingestion started", "total_rows", stats.TotalRows)

	counts, err := s.aggregator.Aggregate(ctx, rep.ID, rows, &stats)
	if err != nil {
		// Aggregation only errors when the host set could not be
		// persisted; the report is unrecoverable at that point.
		log.Error("aggregation failed", "error", err)
		s.finalize(ctx, rep, report.StatusFailed, counts, log)
		metrics.UploadsTotal.WithLabelValues(org.SourceType.String(), report.StatusFailed.String()).Inc()
		return nil, err
	}

	status := s.finalStatus(stats)
	s.finalize(ctx, rep, status, counts, log)

	metrics.UploadsTotal.WithLabelValues(org.SourceType.String(), status.String()).Inc()
	metrics.IngestDuration.WithLabelValues(org.SourceType.String()).Observe(time.Since(start).Seconds())

	log.Info("ingestion finished",
		"status", status.String(),
		"hosts", stats.HostsProcessed,
		"vulnerabilities", stats.VulnerabilitiesProcessed,
		"skipped_validation", stats.RowsSkippedValidation,
		"skipped_persistence", stats.RowsSkippedPersistence,
		"duration", time.Since(start),
	)

	return &Output{
		ReportID:        rep.ID,
		OrgID:           org.ID,
		IterationNumber: rep.IterationNumber,
		Status:          status,
		Stats:           stats,
	}, nil
}

// validateInput rejects bad upload metadata before any repository call.
func validateInput(input Input) error {
	if !input.ScanStartDate.IsZero() && !input.ScanEndDate.IsZero() &&
		input.ScanEndDate.Before(input.ScanStartDate) {
		return shared.NewDomainError("VALIDATION",
			"scan end date precedes start date", shared.ErrValidation)
	}
	return nil
}

// parseAndClassify reads the whole CSV and runs every data row through
// the normalizer and classifier. Unusable rows are counted and skipped;
// a malformed file is a validation error.
func (s *Service) parseAndClassify(input Input) ([]ClassifiedRow, Stats, error) {
	var stats Stats

	reader := csv.NewReader(input.CSV)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, stats, shared.NewDomainError("VALIDATION",
			fmt.Sprintf("malformed CSV: %v", err), shared.ErrValidation)
	}
	if len(records) == 0 {
		return nil, stats, shared.NewDomainError("VALIDATION",
			"CSV file has no header row", shared.ErrValidation)
	}

	normalizer := NewNormalizer(records[0])
	dataRows := records[1:]
	stats.TotalRows = len(dataRows)

	rows := make([]ClassifiedRow, 0, len(dataRows))
	for _, record := range dataRows {
		raw, ok := normalizer.Normalize(record)
		if !ok {
			stats.RowsSkippedValidation++
			metrics.RowsSkippedTotal.WithLabelValues("validation").Inc()
			continue
		}

		class, ok := s.classifier.Classify(raw)
		if !ok {
			stats.RowsSkippedValidation++
			metrics.RowsSkippedTotal.WithLabelValues("validation").Inc()
			continue
		}

		rows = append(rows, ClassifiedRow{Raw: raw, Class: class})
	}

	return rows, stats, nil
}

// finalStatus applies the failure-ratio policy. With the default
// threshold of 1.0 a report is completed whenever at least one batch
// could have succeeded, matching best-effort ingestion.
func (s *Service) finalStatus(stats Stats) report.Status {
	attempted := stats.VulnerabilitiesProcessed + stats.RowsSkippedPersistence
	if attempted == 0 {
		return report.StatusCompleted
	}

	ratio := float64(stats.RowsSkippedPersistence) / float64(attempted)
	if ratio > s.failureRatioThreshold || (s.failureRatioThreshold >= 1 && ratio >= 1) {
		return report.StatusFailed
	}
	return report.StatusCompleted
}

// finalize writes the terminal status and rollups. A failed write leaves
// the report in processing for the reconciliation worker to pick up.
func (s *Service) finalize(ctx context.Context, rep *report.Report, status report.Status, counts report.Counts, log *logger.Logger) {
	switch status {
	case report.StatusFailed:
		rep.Fail(counts)
	default:
		rep.Complete(counts)
	}

	if err := s.reportRepo.UpdateStatus(ctx, rep.ID, rep.Status, counts); err != nil {
		log.Error("report finalization failed", "status", status.String(), "error", err)
	}
}
