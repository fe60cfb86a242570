package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vulnreport/api/internal/metrics"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/logger"
)

// Janitor reconciles reports abandoned in the processing state. An
// upload whose client disconnected or whose finalization write failed
// leaves a processing report behind; the janitor marks such reports
// failed once they are older than the configured age.
type Janitor struct {
	reportRepo report.Repository
	staleAfter time.Duration
	cron       *cron.Cron
	logger     *logger.Logger
}

// NewJanitor creates a janitor.
func NewJanitor(reportRepo report.Repository, staleAfter time.Duration, log *logger.Logger) *Janitor {
	return &Janitor{
		reportRepo: reportRepo,
		staleAfter: staleAfter,
		cron:       cron.New(),
		logger:     log.With("worker", "janitor"),
	}
}

// Start schedules reconciliation runs on the given cron expression.
func (j *Janitor) Start(schedule string) error {
	_, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := j.Run(ctx); err != nil {
			metrics.JanitorRunsTotal.WithLabelValues("error").Inc()
			j.logger.Error("reconciliation run failed", "error", err)
			return
		}
		metrics.JanitorRunsTotal.WithLabelValues("ok").Inc()
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("janitor started", "schedule", schedule, "stale_after", j.staleAfter)
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// Run performs one reconciliation pass.
func (j *Janitor) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.staleAfter)

	stale, err := j.reportRepo.ListStaleProcessing(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, rep := range stale {
		counts := report.Counts{
			Total:    rep.TotalVulnerabilities,
			Critical: rep.CriticalCount,
			High:     rep.HighCount,
			Medium:   rep.MediumCount,
			Low:      rep.LowCount,
			Info:     rep.InfoCount,
			ZeroDay:  rep.ZeroDayCount,
		}

		if err := j.reportRepo.UpdateStatus(ctx, rep.ID, report.StatusFailed, counts); err != nil {
			j.logger.Error("failed to mark stale report failed",
				"report_id", rep.ID.String(),
				"error", err,
			)
			continue
		}

		metrics.StaleReportsReaped.Inc()
		j.logger.Warn("stale processing report marked failed",
			"report_id", rep.ID.String(),
			"org_id", rep.OrgID.String(),
			"age", time.Since(rep.CreatedAt),
		)
	}

	return nil
}
