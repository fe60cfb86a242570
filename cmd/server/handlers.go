package main

import (
	"github.com/vulnreport/api/internal/config"
	"github.com/vulnreport/api/internal/infra/http/handler"
	"github.com/vulnreport/api/internal/infra/http/routes"
	"github.com/vulnreport/api/internal/infra/postgres"
	"github.com/vulnreport/api/internal/infra/redis"
	"github.com/vulnreport/api/pkg/logger"
	"github.com/vulnreport/api/pkg/validator"
)

// HandlerDeps holds everything needed to build the HTTP handlers.
type HandlerDeps struct {
	Config    *config.Config
	Log       *logger.Logger
	Validator *validator.Validator
	DB        *postgres.DB
	Redis     *redis.Client
	Services  *Services
}

// NewHandlers creates all HTTP handlers.
func NewHandlers(deps *HandlerDeps) routes.Handlers {
	healthOpts := []handler.HealthHandlerOption{
		handler.WithDatabase(deps.DB),
	}
	if deps.Redis != nil {
		healthOpts = append(healthOpts, handler.WithRedis(deps.Redis))
	}

	return routes.Handlers{
		Health:       handler.NewHealthHandler(healthOpts...),
		Upload:       handler.NewUploadHandler(deps.Services.Ingest, deps.Validator, deps.Config.Ingest.MaxUploadSize, deps.Log),
		Report:       handler.NewReportHandler(deps.Services.Report, deps.Log),
		Organization: handler.NewOrganizationHandler(deps.Services.Organization, deps.Log),
		Dashboard:    handler.NewDashboardHandler(deps.Services.Dashboard, deps.Log),
	}
}
