package main

import (
	"github.com/vulnreport/api/internal/app"
	"github.com/vulnreport/api/internal/app/ingest"
	"github.com/vulnreport/api/internal/config"
	"github.com/vulnreport/api/internal/infra/redis"
	"github.com/vulnreport/api/pkg/logger"
)

// ServiceDeps holds everything needed to build the application services.
type ServiceDeps struct {
	Config      *config.Config
	Log         *logger.Logger
	Repos       *Repositories
	RedisClient *redis.Client
}

// Services holds all application services.
type Services struct {
	Ingest       *ingest.Service
	Report       *app.ReportService
	Organization *app.OrganizationService
	Dashboard    *app.DashboardService
}

// NewServices wires the application services.
func NewServices(deps *ServiceDeps) (*Services, error) {
	cfg := deps.Config
	repos := deps.Repos
	log := deps.Log

	resolver := ingest.NewResolver(repos.Organization, repos.Report, log)
	aggregator := ingest.NewAggregator(repos.Host, repos.Finding, cfg.Ingest.BatchSize, log)

	ingestSvc := ingest.NewService(resolver, aggregator, repos.Report, ingest.Config{
		BatchSize:             cfg.Ingest.BatchSize,
		ZeroDayYearThreshold:  cfg.Ingest.ZeroDayYearThreshold,
		FailureRatioThreshold: cfg.Ingest.FailureRatioThreshold,
	}, log)

	// The dashboard cache is optional; without Redis the summary is
	// computed on every request.
	var cache app.SummaryCache
	if deps.RedisClient != nil {
		summaryCache, err := redis.NewSummaryCache(deps.RedisClient, cfg.Redis.CacheTTL)
		if err != nil {
			return nil, err
		}
		cache = summaryCache
	}

	return &Services{
		Ingest:       ingestSvc,
		Report:       app.NewReportService(repos.Report, repos.Host, repos.Finding, log),
		Organization: app.NewOrganizationService(repos.Organization, repos.Report, log),
		Dashboard:    app.NewDashboardService(repos.Dashboard, cache, log),
	}, nil
}
