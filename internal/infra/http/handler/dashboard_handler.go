package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vulnreport/api/internal/app"
	"github.com/vulnreport/api/pkg/apierror"
	"github.com/vulnreport/api/pkg/logger"
)

// DashboardHandler handles dashboard HTTP requests.
type DashboardHandler struct {
	service *app.DashboardService
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc *app.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  log,
	}
}

// Summary handles GET /api/v1/dashboard/summary.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary(r.Context())
	if err != nil {
		h.logger.Error("dashboard summary failed", "error", err)
		apierror.Internal("Internal server error").WriteJSON(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(summary)
}
