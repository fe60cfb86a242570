// Package routes registers all HTTP routes for the API.
package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	infrahttp "github.com/vulnreport/api/internal/infra/http"
	"github.com/vulnreport/api/internal/infra/http/handler"
	"github.com/vulnreport/api/internal/infra/http/middleware"
)

// Middleware is an alias to the http package's Middleware type.
type Middleware = infrahttp.Middleware

// Router is an alias to the http package's Router interface.
type Router = infrahttp.Router

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health       *handler.HealthHandler
	Upload       *handler.UploadHandler
	Report       *handler.ReportHandler
	Organization *handler.OrganizationHandler
	Dashboard    *handler.DashboardHandler
}

// Options tunes route registration.
type Options struct {
	// MaxUploadSize bounds the upload endpoint's request body. The
	// global body limit stays small; only the upload route accepts
	// large payloads.
	MaxUploadSize int64
}

// Register registers all application routes.
func Register(router Router, h Handlers, opts Options) {
	registerHealthRoutes(router, h.Health)

	router.Group("/api/v1", func(r Router) {
		registerReportRoutes(r, h, opts)
		registerOrganizationRoutes(r, h.Organization)
		registerDashboardRoutes(r, h.Dashboard)
	})
}

func registerHealthRoutes(router Router, h *handler.HealthHandler) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
}

func registerReportRoutes(router Router, h Handlers, opts Options) {
	router.POST("/reports/upload", h.Upload.Upload, middleware.BodyLimit(opts.MaxUploadSize))
	router.GET("/reports", h.Report.List)
	router.GET("/reports/{id}", h.Report.Get)
	router.GET("/reports/{id}/hosts", h.Report.ListHosts)
	router.GET("/reports/{id}/findings", h.Report.ListFindings)
}

func registerOrganizationRoutes(router Router, h *handler.OrganizationHandler) {
	router.GET("/organizations", h.List)
	router.GET("/organizations/{id}", h.Get)
	router.GET("/organizations/{id}/reports", h.ListReports)
}

func registerDashboardRoutes(router Router, h *handler.DashboardHandler) {
	router.GET("/dashboard/summary", h.Summary)
}
