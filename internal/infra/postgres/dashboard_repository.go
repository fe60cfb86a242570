package postgres

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vulnreport/api/internal/app"
)

// DashboardRepository implements app.DashboardStatsRepository with
// aggregate queries over the ingested dataset.
type DashboardRepository struct {
	db *DB
}

// NewDashboardRepository creates a new dashboard repository.
func NewDashboardRepository(db *DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// GetSummary computes the dashboard summary from a handful of aggregate
// queries run concurrently. Counts come from the findings table directly,
// not from the report rollups, so partially failed ingestions do not skew
// the view.
func (r *DashboardRepository) GetSummary(ctx context.Context) (app.DashboardSummary, error) {
	summary := app.DashboardSummary{
		ReportsByStatus:    make(map[string]int),
		FindingsBySeverity: make(map[string]int),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := r.db.QueryRowContext(gctx, `
			SELECT
				(SELECT COUNT(*) FROM organizations),
				(SELECT COUNT(*) FROM reports),
				(SELECT COUNT(*) FROM hosts),
				(SELECT COUNT(*) FROM findings),
				(SELECT COUNT(*) FROM findings WHERE is_zero_day),
				(SELECT COUNT(*) FROM findings WHERE is_exploitable)
		`).Scan(
			&summary.Organizations,
			&summary.Reports,
			&summary.HostsScanned,
			&summary.TotalFindings,
			&summary.ZeroDayFindings,
			&summary.ExploitableCount,
		)
		if err != nil {
			return fmt.Errorf("failed to get dashboard totals: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		counts, err := r.groupCount(gctx, `SELECT status, COUNT(*) FROM reports GROUP BY status`)
		if err != nil {
			return fmt.Errorf("failed to get report status counts: %w", err)
		}
		mu.Lock()
		summary.ReportsByStatus = counts
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		counts, err := r.groupCount(gctx, `SELECT severity, COUNT(*) FROM findings GROUP BY severity`)
		if err != nil {
			return fmt.Errorf("failed to get severity counts: %w", err)
		}
		mu.Lock()
		summary.FindingsBySeverity = counts
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return app.DashboardSummary{}, err
	}
	return summary, nil
}

func (r *DashboardRepository) groupCount(ctx context.Context, query string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}
