package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnreport/api/pkg/logger"
)

type stubStatsRepo struct {
	summary DashboardSummary
	err     error
	calls   int
}

func (r *stubStatsRepo) GetSummary(context.Context) (DashboardSummary, error) {
	r.calls++
	return r.summary, r.err
}

type stubSummaryCache struct {
	value  *DashboardSummary
	getErr error
	setErr error
	stored *DashboardSummary
}

func (c *stubSummaryCache) Get(context.Context) (*DashboardSummary, error) {
	return c.value, c.getErr
}

func (c *stubSummaryCache) Set(_ context.Context, value DashboardSummary) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.stored = &value
	return nil
}

func TestDashboardSummaryWithoutCache(t *testing.T) {
	repo := &stubStatsRepo{summary: DashboardSummary{Reports: 7, TotalFindings: 120}}
	svc := NewDashboardService(repo, nil, logger.NewNop())

	got, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, got.Reports)
	assert.Equal(t, 120, got.TotalFindings)
	assert.Equal(t, 1, repo.calls)
}

func TestDashboardSummaryCacheHitSkipsRepo(t *testing.T) {
	repo := &stubStatsRepo{}
	cache := &stubSummaryCache{value: &DashboardSummary{Organizations: 4}}
	svc := NewDashboardService(repo, cache, logger.NewNop())

	got, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, got.Organizations)
	assert.Zero(t, repo.calls)
}

func TestDashboardSummaryCacheMissPopulatesCache(t *testing.T) {
	repo := &stubStatsRepo{summary: DashboardSummary{HostsScanned: 31}}
	cache := &stubSummaryCache{}
	svc := NewDashboardService(repo, cache, logger.NewNop())

	got, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 31, got.HostsScanned)
	require.NotNil(t, cache.stored)
	assert.Equal(t, 31, cache.stored.HostsScanned)
}

func TestDashboardSummaryCacheErrorsFallBack(t *testing.T) {
	repo := &stubStatsRepo{summary: DashboardSummary{ZeroDayFindings: 2}}
	cache := &stubSummaryCache{getErr: errors.New("redis gone"), setErr: errors.New("redis gone")}
	svc := NewDashboardService(repo, cache, logger.NewNop())

	got, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.ZeroDayFindings)
	assert.Equal(t, 1, repo.calls)
}

func TestDashboardSummaryRepoError(t *testing.T) {
	repo := &stubStatsRepo{err: errors.New("db down")}
	svc := NewDashboardService(repo, nil, logger.NewNop())

	_, err := svc.GetSummary(context.Background())
	assert.Error(t, err)
}
