package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnreport/api/pkg/domain/finding"
	"github.com/vulnreport/api/pkg/domain/host"
	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/logger"
	"github.com/vulnreport/api/pkg/pagination"
)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type memOrgRepo struct {
	mu   sync.Mutex
	orgs []*organization.Organization
}

func (r *memOrgRepo) Create(_ context.Context, org *organization.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orgs {
		if strings.EqualFold(existing.Name, org.Name) && existing.SourceType == org.SourceType {
			return shared.ErrAlreadyExists
		}
	}
	r.orgs = append(r.orgs, org)
	return nil
}

func (r *memOrgRepo) GetByID(_ context.Context, id shared.ID) (*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, org := range r.orgs {
		if org.ID.Equals(id) {
			return org, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memOrgRepo) GetByNameAndSourceType(_ context.Context, name string, st organization.SourceType) (*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, org := range r.orgs {
		if strings.EqualFold(org.Name, name) && org.SourceType == st {
			return org, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memOrgRepo) List(_ context.Context) ([]*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*organization.Organization(nil), r.orgs...), nil
}

type memReportRepo struct {
	mu      sync.Mutex
	reports []*report.Report
}

func (r *memReportRepo) Create(_ context.Context, rep *report.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reports {
		if existing.OrgID.Equals(rep.OrgID) && existing.IterationNumber == rep.IterationNumber {
			return shared.ErrConflict
		}
	}
	clone := *rep
	r.reports = append(r.reports, &clone)
	return nil
}

func (r *memReportRepo) GetByID(_ context.Context, id shared.ID) (*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.ID.Equals(id) {
			return rep, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memReportRepo) GetLatestByOrg(_ context.Context, orgID shared.ID) (*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *report.Report
	for _, rep := range r.reports {
		if !rep.OrgID.Equals(orgID) {
			continue
		}
		if latest == nil || rep.IterationNumber > latest.IterationNumber {
			latest = rep
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

func (r *memReportRepo) List(_ context.Context, _ report.Filter, page pagination.Pagination) (pagination.Result[*report.Report], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pagination.NewResult(append([]*report.Report(nil), r.reports...), int64(len(r.reports)), page), nil
}

func (r *memReportRepo) ListByOrg(_ context.Context, orgID shared.ID) ([]*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*report.Report
	for _, rep := range r.reports {
		if rep.OrgID.Equals(orgID) {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r *memReportRepo) UpdateStatus(_ context.Context, id shared.ID, status report.Status, counts report.Counts) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.ID.Equals(id) {
			rep.Status = status
			rep.TotalVulnerabilities = counts.Total
			rep.CriticalCount = counts.Critical
			rep.HighCount = counts.High
			rep.MediumCount = counts.Medium
			rep.LowCount = counts.Low
			rep.InfoCount = counts.Info
			rep.ZeroDayCount = counts.ZeroDay
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *memReportRepo) ListStaleProcessing(_ context.Context, cutoff time.Time) ([]*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*report.Report
	for _, rep := range r.reports {
		if rep.Status == report.StatusProcessing && rep.CreatedAt.Before(cutoff) {
			out = append(out, rep)
		}
	}
	return out, nil
}

type memHostRepo struct {
	mu         sync.Mutex
	hosts      []*host.Host
	failCreate bool
}

func (r *memHostRepo) CreateBatch(_ context.Context, hosts []*host.Host) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("host insert refused")
	}
	r.hosts = append(r.hosts, hosts...)
	return nil
}

func (r *memHostRepo) UpdateCounts(_ context.Context, h *host.Host) error {
	return nil
}

func (r *memHostRepo) ListByReport(_ context.Context, reportID shared.ID) ([]*host.Host, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*host.Host
	for _, h := range r.hosts {
		if h.ReportID.Equals(reportID) {
			out = append(out, h)
		}
	}
	return out, nil
}

type memFindingRepo struct {
	mu          sync.Mutex
	findings    []*finding.Finding
	batchCalls  int
	failBatches map[int]bool // 0-based call index -> fail
}

func (r *memFindingRepo) CreateBatch(_ context.Context, findings []*finding.Finding) (finding.BatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := r.batchCalls
	r.batchCalls++
	if r.failBatches[call] {
		return finding.BatchResult{Failed: len(findings)}, errors.New("batch insert refused")
	}
	r.findings = append(r.findings, findings...)
	return finding.BatchResult{Inserted: len(findings)}, nil
}

func (r *memFindingRepo) ListByReport(_ context.Context, _ shared.ID, _ finding.Filter, page pagination.Pagination) (pagination.Result[*finding.Finding], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pagination.NewResult(append([]*finding.Finding(nil), r.findings...), int64(len(r.findings)), page), nil
}

func (r *memFindingRepo) CountByReport(_ context.Context, reportID shared.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, f := range r.findings {
		if f.ReportID.Equals(reportID) {
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

type harness struct {
	svc      *Service
	orgs     *memOrgRepo
	reports  *memReportRepo
	hosts    *memHostRepo
	findings *memFindingRepo
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	orgs := &memOrgRepo{}
	reports := &memReportRepo{}
	hosts := &memHostRepo{}
	findings := &memFindingRepo{failBatches: map[int]bool{}}

	log := logger.NewNop()
	resolver := NewResolver(orgs, reports, log)
	aggregator := NewAggregator(hosts, findings, cfg.BatchSize, log)
	svc := NewService(resolver, aggregator, reports, cfg, log)

	return &harness{svc: svc, orgs: orgs, reports: reports, hosts: hosts, findings: findings}
}

func uploadInput(csv string) Input {
	return Input{
		OrgName:       "Acme Corp",
		SourceType:    organization.SourceTypeInternal,
		ScanStartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ScanEndDate:   time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC),
		Assessee:      "Acme",
		Assessor:      "SecCo",
		Reviewer:      "Reviewer",
		Approver:      "Approver",
		CSV:           strings.NewReader(csv),
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestIngestScenarioMixedRows(t *testing.T) {
	h := newHarness(t, Config{})

	csv := "Host,Risk,Name\n" +
		"10.0.0.1,High,Weak TLS configuration\n" +
		"10.0.0.1,critical,Remote code execution in agent\n" +
		"10.0.0.2,Low,\n"

	out, err := h.svc.Ingest(context.Background(), uploadInput(csv))
	require.NoError(t, err)

	assert.Equal(t, report.StatusCompleted, out.Status)
	assert.Equal(t, 3, out.Stats.TotalRows)
	assert.Equal(t, 1, out.Stats.HostsProcessed)
	assert.Equal(t, 2, out.Stats.VulnerabilitiesProcessed)
	assert.Equal(t, 1, out.Stats.RowsSkippedValidation)
	assert.Equal(t, 0, out.Stats.RowsSkippedPersistence)

	rep, err := h.reports.GetByID(context.Background(), out.ReportID)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.CriticalCount)
	assert.Equal(t, 1, rep.HighCount)
	assert.Equal(t, 2, rep.TotalVulnerabilities)
	assert.Equal(t, 1, rep.IterationNumber)

	// Only 10.0.0.1 exists as a host; the unusable row never created one.
	hosts, err := h.hosts.ListByReport(context.Background(), out.ReportID)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, "10.0.0.1", hosts[0].IPAddress)
}

func TestIngestIterationSequence(t *testing.T) {
	h := newHarness(t, Config{})

	csv := "Host,Risk,Name\n10.0.0.1,Low,Banner disclosure\n"

	first, err := h.svc.Ingest(context.Background(), uploadInput(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, first.IterationNumber)

	second, err := h.svc.Ingest(context.Background(), uploadInput(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, second.IterationNumber)
	assert.Equal(t, first.OrgID, second.OrgID)

	rep, err := h.reports.GetByID(context.Background(), second.ReportID)
	require.NoError(t, err)
	require.NotNil(t, rep.PreviousReportID)
	assert.True(t, rep.PreviousReportID.Equals(first.ReportID))

	// Same name with different case resolves to the same organization.
	third := uploadInput(csv)
	third.OrgName = "ACME CORP"
	out, err := h.svc.Ingest(context.Background(), third)
	require.NoError(t, err)
	assert.Equal(t, 3, out.IterationNumber)

	orgs, err := h.orgs.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, orgs, 1)
}

func TestIngestRollupConsistency(t *testing.T) {
	h := newHarness(t, Config{BatchSize: 3})

	var b strings.Builder
	b.WriteString("Host,Risk,Name,CVE\n")
	severities := []string{"critical", "High", "medium", "Low", "info", "High", "critical", "medium"}
	for i, sev := range severities {
		fmt.Fprintf(&b, "10.0.0.%d,%s,Finding %d,CVE-2024-%d\n", i%3+1, sev, i, 1000+i)
	}

	out, err := h.svc.Ingest(context.Background(), uploadInput(b.String()))
	require.NoError(t, err)
	assert.Equal(t, len(severities), out.Stats.VulnerabilitiesProcessed)
	assert.Equal(t, 3, out.Stats.HostsProcessed)

	rep, err := h.reports.GetByID(context.Background(), out.ReportID)
	require.NoError(t, err)

	hosts, err := h.hosts.ListByReport(context.Background(), out.ReportID)
	require.NoError(t, err)

	var total, critical, high, medium, low, info, zeroDay int
	for _, hst := range hosts {
		total += hst.TotalVulnerabilities
		critical += hst.CriticalCount
		high += hst.HighCount
		medium += hst.MediumCount
		low += hst.LowCount
		info += hst.InfoCount
		zeroDay += hst.ZeroDayCount
	}

	assert.Equal(t, rep.TotalVulnerabilities, total)
	assert.Equal(t, rep.CriticalCount, critical)
	assert.Equal(t, rep.HighCount, high)
	assert.Equal(t, rep.MediumCount, medium)
	assert.Equal(t, rep.LowCount, low)
	assert.Equal(t, rep.InfoCount, info)
	assert.Equal(t, rep.ZeroDayCount, zeroDay)

	// Every CVE is from 2024, so the zero-day rollup covers all rows.
	assert.Equal(t, len(severities), rep.ZeroDayCount)
}

func TestIngestCVSSBounds(t *testing.T) {
	h := newHarness(t, Config{})

	csv := "Host,Risk,Name,CVSS\n" +
		"10.0.0.1,High,Out of range score,15\n" +
		"10.0.0.1,High,Valid score,7.5\n"

	out, err := h.svc.Ingest(context.Background(), uploadInput(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Stats.VulnerabilitiesProcessed)

	byName := map[string]*finding.Finding{}
	for _, f := range h.findings.findings {
		byName[f.Name] = f
	}

	require.Contains(t, byName, "Out of range score")
	assert.Nil(t, byName["Out of range score"].CVSSScore)

	require.Contains(t, byName, "Valid score")
	require.NotNil(t, byName["Valid score"].CVSSScore)
	assert.InDelta(t, 7.5, *byName["Valid score"].CVSSScore, 0.0001)
}

func TestIngestBatchFailureIsBestEffort(t *testing.T) {
	h := newHarness(t, Config{BatchSize: 2})
	h.findings.failBatches[1] = true // second batch refused

	csv := "Host,Risk,Name\n" +
		"10.0.0.1,High,f1\n" +
		"10.0.0.1,High,f2\n" +
		"10.0.0.1,High,f3\n" +
		"10.0.0.1,High,f4\n" +
		"10.0.0.1,High,f5\n"

	out, err := h.svc.Ingest(context.Background(), uploadInput(csv))
	require.NoError(t, err)

	// Batches of 2: [f1 f2] ok, [f3 f4] failed, [f5] ok.
	assert.Equal(t, report.StatusCompleted, out.Status)
	assert.Equal(t, 3, out.Stats.VulnerabilitiesProcessed)
	assert.Equal(t, 2, out.Stats.RowsSkippedPersistence)

	rep, err := h.reports.GetByID(context.Background(), out.ReportID)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.TotalVulnerabilities)

	count, err := h.findings.CountByReport(context.Background(), out.ReportID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestIngestAllBatchesFailedMarksReportFailed(t *testing.T) {
	h := newHarness(t, Config{BatchSize: 2})
	h.findings.failBatches[0] = true
	h.findings.failBatches[1] = true

	csv := "Host,Risk,Name\n" +
		"10.0.0.1,High,f1\n" +
		"10.0.0.1,High,f2\n" +
		"10.0.0.1,High,f3\n"

	out, err := h.svc.Ingest(context.Background(), uploadInput(csv))
	require.NoError(t, err)

	assert.Equal(t, report.StatusFailed, out.Status)
	assert.Equal(t, 0, out.Stats.VulnerabilitiesProcessed)
	assert.Equal(t, 3, out.Stats.RowsSkippedPersistence)

	rep, err := h.reports.GetByID(context.Background(), out.ReportID)
	require.NoError(t, err)
	assert.Equal(t, report.StatusFailed, rep.Status)
	assert.Equal(t, 0, rep.TotalVulnerabilities)
}

func TestIngestFailureRatioThreshold(t *testing.T) {
	h := newHarness(t, Config{BatchSize: 2, FailureRatioThreshold: 0.5})
	h.findings.failBatches[1] = true
	h.findings.failBatches[2] = true

	csv := "Host,Risk,Name\n" +
		"10.0.0.1,High,f1\n" +
		"10.0.0.1,High,f2\n" +
		"10.0.0.1,High,f3\n" +
		"10.0.0.1,High,f4\n" +
		"10.0.0.1,High,f5\n" +
		"10.0.0.1,High,f6\n"

	out, err := h.svc.Ingest(context.Background(), uploadInput(csv))
	require.NoError(t, err)

	// 4 of 6 rows lost to persistence: ratio 0.66 exceeds 0.5.
	assert.Equal(t, report.StatusFailed, out.Status)
	assert.Equal(t, 4, out.Stats.RowsSkippedPersistence)
}

func TestIngestExplicitOrgIDMustExist(t *testing.T) {
	h := newHarness(t, Config{})

	missing := shared.NewID()
	input := uploadInput("Host,Risk,Name\n10.0.0.1,High,x\n")
	input.OrgID = &missing

	_, err := h.svc.Ingest(context.Background(), input)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// No report row was created.
	assert.Empty(t, h.reports.reports)
}

func TestIngestMalformedCSVLeavesNoState(t *testing.T) {
	h := newHarness(t, Config{})

	// Unterminated quote makes the file structurally invalid.
	input := uploadInput("Host,Risk,Name\n\"10.0.0.1,High,x\n")

	_, err := h.svc.Ingest(context.Background(), input)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Empty(t, h.reports.reports)
	assert.Empty(t, h.hosts.hosts)
}

func TestIngestEmptyCSVBody(t *testing.T) {
	h := newHarness(t, Config{})

	_, err := h.svc.Ingest(context.Background(), uploadInput(""))
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestIngestHeaderOnlyCompletesWithZeroRows(t *testing.T) {
	h := newHarness(t, Config{})

	out, err := h.svc.Ingest(context.Background(), uploadInput("Host,Risk,Name\n"))
	require.NoError(t, err)
	assert.Equal(t, report.StatusCompleted, out.Status)
	assert.Equal(t, 0, out.Stats.TotalRows)
	assert.Equal(t, 0, out.Stats.HostsProcessed)
}

func TestIngestHostInsertFailureFailsReport(t *testing.T) {
	h := newHarness(t, Config{})
	h.hosts.failCreate = true

	_, err := h.svc.Ingest(context.Background(), uploadInput("Host,Risk,Name\n10.0.0.1,High,x\n"))
	require.Error(t, err)

	// The report exists and was driven to the terminal failed state.
	require.Len(t, h.reports.reports, 1)
	assert.Equal(t, report.StatusFailed, h.reports.reports[0].Status)
}

func TestIngestRawIPStringsAreDistinctHosts(t *testing.T) {
	h := newHarness(t, Config{})

	csv := "Host,Risk,Name\n" +
		"10.0.0.1,High,x\n" +
		"010.0.0.1,High,y\n"

	out, err := h.svc.Ingest(context.Background(), uploadInput(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Stats.HostsProcessed)
}

func TestIngestEndBeforeStartCreatesNothing(t *testing.T) {
	h := newHarness(t, Config{})

	input := uploadInput("Host,Risk,Name\n10.0.0.1,High,Weak TLS configuration\n")
	input.ScanStartDate = time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	input.ScanEndDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := h.svc.Ingest(context.Background(), input)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	// Metadata is rejected before identity resolution, so the bad
	// upload must not create the organization as a side effect.
	assert.Empty(t, h.orgs.orgs)
	assert.Empty(t, h.reports.reports)
	assert.Empty(t, h.hosts.hosts)
}
