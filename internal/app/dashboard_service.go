package app

import (
	"context"

	"github.com/vulnreport/api/internal/metrics"
	"github.com/vulnreport/api/pkg/logger"
)

// DashboardSummary represents the aggregated view served to dashboards.
type DashboardSummary struct {
	Organizations      int            `json:"organizations"`
	Reports            int            `json:"reports"`
	ReportsByStatus    map[string]int `json:"reports_by_status"`
	TotalFindings      int            `json:"total_findings"`
	FindingsBySeverity map[string]int `json:"findings_by_severity"`
	ZeroDayFindings    int            `json:"zero_day_findings"`
	ExploitableCount   int            `json:"exploitable_findings"`
	HostsScanned       int            `json:"hosts_scanned"`
}

// DashboardStatsRepository defines the read side of the dashboard.
type DashboardStatsRepository interface {
	GetSummary(ctx context.Context) (DashboardSummary, error)
}

// SummaryCache caches the computed summary. Get returns (nil, nil) on a
// cache miss; a nil SummaryCache disables caching entirely.
type SummaryCache interface {
	Get(ctx context.Context) (*DashboardSummary, error)
	Set(ctx context.Context, value DashboardSummary) error
}

// DashboardService provides dashboard-related operations.
type DashboardService struct {
	repo   DashboardStatsRepository
	cache  SummaryCache
	logger *logger.Logger
}

// NewDashboardService creates a new DashboardService. cache may be nil.
func NewDashboardService(repo DashboardStatsRepository, cache SummaryCache, log *logger.Logger) *DashboardService {
	return &DashboardService{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

// GetSummary returns the dashboard summary, served from cache when
// available. Cache failures fall back to the database.
func (s *DashboardService) GetSummary(ctx context.Context) (*DashboardSummary, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.DashboardCacheHits.WithLabelValues("error").Inc()
			s.logger.Warn("dashboard cache read failed", "error", err)
		case cached != nil:
			metrics.DashboardCacheHits.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.DashboardCacheHits.WithLabelValues("miss").Inc()
		}
	}

	summary, err := s.repo.GetSummary(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			s.logger.Warn("dashboard cache write failed", "error", err)
		}
	}

	return &summary, nil
}
