package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/logger"
	"github.com/vulnreport/api/pkg/pagination"
)

type stubReportRepo struct {
	reports  []*report.Report
	listErr  error
	failIDs  map[string]bool
	statusOf map[string]report.Status
	countsOf map[string]report.Counts
}

func newStubReportRepo() *stubReportRepo {
	return &stubReportRepo{
		failIDs:  map[string]bool{},
		statusOf: map[string]report.Status{},
		countsOf: map[string]report.Counts{},
	}
}

func (r *stubReportRepo) Create(context.Context, *report.Report) error { return nil }

func (r *stubReportRepo) GetByID(_ context.Context, id shared.ID) (*report.Report, error) {
	for _, rep := range r.reports {
		if rep.ID.Equals(id) {
			return rep, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubReportRepo) GetLatestByOrg(context.Context, shared.ID) (*report.Report, error) {
	return nil, shared.ErrNotFound
}

func (r *stubReportRepo) List(_ context.Context, _ report.Filter, page pagination.Pagination) (pagination.Result[*report.Report], error) {
	return pagination.NewResult(r.reports, int64(len(r.reports)), page), nil
}

func (r *stubReportRepo) ListByOrg(context.Context, shared.ID) ([]*report.Report, error) {
	return nil, nil
}

func (r *stubReportRepo) UpdateStatus(_ context.Context, id shared.ID, status report.Status, counts report.Counts) error {
	if r.failIDs[id.String()] {
		return errors.New("write refused")
	}
	r.statusOf[id.String()] = status
	r.countsOf[id.String()] = counts
	return nil
}

func (r *stubReportRepo) ListStaleProcessing(_ context.Context, cutoff time.Time) ([]*report.Report, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*report.Report
	for _, rep := range r.reports {
		if rep.Status == report.StatusProcessing && rep.CreatedAt.Before(cutoff) {
			out = append(out, rep)
		}
	}
	return out, nil
}

func processingReport(age time.Duration) *report.Report {
	return &report.Report{
		ID:         shared.NewID(),
		OrgID:      shared.NewID(),
		OrgName:    "Acme Corp",
		SourceType: organization.SourceTypeInternal,
		Status:     report.StatusProcessing,
		CreatedAt:  time.Now().Add(-age),
	}
}

func TestJanitorMarksStaleReportsFailed(t *testing.T) {
	repo := newStubReportRepo()
	stale := processingReport(2 * time.Hour)
	fresh := processingReport(5 * time.Minute)
	done := processingReport(3 * time.Hour)
	done.Status = report.StatusCompleted
	repo.reports = []*report.Report{stale, fresh, done}

	j := NewJanitor(repo, time.Hour, logger.NewNop())
	require.NoError(t, j.Run(context.Background()))

	assert.Equal(t, report.StatusFailed, repo.statusOf[stale.ID.String()])
	assert.NotContains(t, repo.statusOf, fresh.ID.String())
	assert.NotContains(t, repo.statusOf, done.ID.String())
}

func TestJanitorPreservesCounters(t *testing.T) {
	repo := newStubReportRepo()
	stale := processingReport(2 * time.Hour)
	stale.TotalVulnerabilities = 42
	stale.CriticalCount = 3
	stale.HighCount = 9
	stale.MediumCount = 20
	stale.LowCount = 10
	stale.ZeroDayCount = 2
	repo.reports = []*report.Report{stale}

	j := NewJanitor(repo, time.Hour, logger.NewNop())
	require.NoError(t, j.Run(context.Background()))

	counts := repo.countsOf[stale.ID.String()]
	assert.Equal(t, 42, counts.Total)
	assert.Equal(t, 3, counts.Critical)
	assert.Equal(t, 9, counts.High)
	assert.Equal(t, 20, counts.Medium)
	assert.Equal(t, 10, counts.Low)
	assert.Equal(t, 2, counts.ZeroDay)
}

func TestJanitorContinuesAfterUpdateFailure(t *testing.T) {
	repo := newStubReportRepo()
	first := processingReport(2 * time.Hour)
	second := processingReport(2 * time.Hour)
	repo.reports = []*report.Report{first, second}
	repo.failIDs[first.ID.String()] = true

	j := NewJanitor(repo, time.Hour, logger.NewNop())
	require.NoError(t, j.Run(context.Background()))

	assert.NotContains(t, repo.statusOf, first.ID.String())
	assert.Equal(t, report.StatusFailed, repo.statusOf[second.ID.String()])
}

func TestJanitorPropagatesListError(t *testing.T) {
	repo := newStubReportRepo()
	repo.listErr = errors.New("db down")

	j := NewJanitor(repo, time.Hour, logger.NewNop())
	assert.Error(t, j.Run(context.Background()))
}
