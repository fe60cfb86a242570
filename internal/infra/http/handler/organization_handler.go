package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vulnreport/api/internal/app"
	"github.com/vulnreport/api/pkg/apierror"
	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/logger"
)

// OrganizationHandler handles organization HTTP requests.
type OrganizationHandler struct {
	service *app.OrganizationService
	logger  *logger.Logger
}

// NewOrganizationHandler creates a new organization handler.
func NewOrganizationHandler(svc *app.OrganizationService, log *logger.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		service: svc,
		logger:  log,
	}
}

// OrganizationResponse represents an organization in API responses.
type OrganizationResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourceType string    `json:"source_type"`
	CreatedAt  time.Time `json:"created_at"`
}

func toOrganizationResponse(org *organization.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:         org.ID.String(),
		Name:       org.Name,
		SourceType: org.SourceType.String(),
		CreatedAt:  org.CreatedAt,
	}
}

// List handles GET /api/v1/organizations.
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	data := make([]OrganizationResponse, len(orgs))
	for i, org := range orgs {
		data[i] = toOrganizationResponse(org)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "total": len(data)})
}

// Get handles GET /api/v1/organizations/{id}.
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.organizationID(w, r)
	if !ok {
		return
	}

	org, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toOrganizationResponse(org))
}

// ListReports handles GET /api/v1/organizations/{id}/reports.
func (h *OrganizationHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	id, ok := h.organizationID(w, r)
	if !ok {
		return
	}

	reports, err := h.service.ListReports(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	data := make([]ReportResponse, len(reports))
	for i, rep := range reports {
		data[i] = toReportResponse(rep)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "total": len(data)})
}

func (h *OrganizationHandler) organizationID(w http.ResponseWriter, r *http.Request) (shared.ID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		apierror.BadRequest("Organization ID is required").WriteJSON(w)
		return shared.ID{}, false
	}

	id, err := shared.IDFromString(raw)
	if err != nil {
		apierror.BadRequest("Invalid organization ID").WriteJSON(w)
		return shared.ID{}, false
	}
	return id, true
}

func (h *OrganizationHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsNotFound(err):
		apierror.NotFound("Organization not found").WriteJSON(w)
	case shared.IsValidation(err):
		apierror.BadRequest(err.Error()).WriteJSON(w)
	default:
		h.logger.Error("organization service error", "error", err)
		apierror.Internal("Internal server error").WriteJSON(w)
	}
}
