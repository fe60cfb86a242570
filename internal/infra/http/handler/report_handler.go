package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vulnreport/api/internal/app"
	"github.com/vulnreport/api/pkg/apierror"
	"github.com/vulnreport/api/pkg/domain/finding"
	"github.com/vulnreport/api/pkg/domain/host"
	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/logger"
	"github.com/vulnreport/api/pkg/pagination"
)

// ReportHandler handles report HTTP requests.
type ReportHandler struct {
	service *app.ReportService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *app.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  log,
	}
}

// ReportResponse represents a report in API responses.
type ReportResponse struct {
	ID               string     `json:"id"`
	OrgID            string     `json:"org_id"`
	OrgName          string     `json:"org_name"`
	SourceType       string     `json:"source_type"`
	ScanStartDate    *time.Time `json:"scan_start_date,omitempty"`
	ScanEndDate      *time.Time `json:"scan_end_date,omitempty"`
	Assessee         string     `json:"assessee,omitempty"`
	Assessor         string     `json:"assessor,omitempty"`
	Reviewer         string     `json:"reviewer,omitempty"`
	Approver         string     `json:"approver,omitempty"`
	IterationNumber  int        `json:"iteration_number"`
	PreviousReportID *string    `json:"previous_report_id,omitempty"`
	Status           string     `json:"status"`

	TotalVulnerabilities int `json:"total_vulnerabilities"`
	CriticalCount        int `json:"critical_count"`
	HighCount            int `json:"high_count"`
	MediumCount          int `json:"medium_count"`
	LowCount             int `json:"low_count"`
	InfoCount            int `json:"info_count"`
	ZeroDayCount         int `json:"zero_day_count"`

	CreatedAt time.Time `json:"created_at"`
}

func toReportResponse(r *report.Report) ReportResponse {
	resp := ReportResponse{
		ID:                   r.ID.String(),
		OrgID:                r.OrgID.String(),
		OrgName:              r.OrgName,
		SourceType:           r.SourceType.String(),
		Assessee:             r.Assessee,
		Assessor:             r.Assessor,
		Reviewer:             r.Reviewer,
		Approver:             r.Approver,
		IterationNumber:      r.IterationNumber,
		Status:               r.Status.String(),
		TotalVulnerabilities: r.TotalVulnerabilities,
		CriticalCount:        r.CriticalCount,
		HighCount:            r.HighCount,
		MediumCount:          r.MediumCount,
		LowCount:             r.LowCount,
		InfoCount:            r.InfoCount,
		ZeroDayCount:         r.ZeroDayCount,
		CreatedAt:            r.CreatedAt,
	}

	if !r.ScanStartDate.IsZero() {
		start := r.ScanStartDate
		resp.ScanStartDate = &start
	}
	if !r.ScanEndDate.IsZero() {
		end := r.ScanEndDate
		resp.ScanEndDate = &end
	}
	if r.PreviousReportID != nil {
		prev := r.PreviousReportID.String()
		resp.PreviousReportID = &prev
	}

	return resp
}

// List handles GET /api/v1/reports.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter report.Filter

	if orgID := query.Get("org_id"); orgID != "" {
		id, err := shared.IDFromString(orgID)
		if err != nil {
			apierror.BadRequest("Invalid org_id").WriteJSON(w)
			return
		}
		filter.OrgID = &id
	}

	if st := query.Get("source_type"); st != "" {
		sourceType, err := organization.ParseSourceType(st)
		if err != nil {
			apierror.BadRequest("Invalid source_type").WriteJSON(w)
			return
		}
		filter.SourceType = sourceType
	}

	if status := query.Get("status"); status != "" {
		parsed, err := report.ParseStatus(status)
		if err != nil {
			apierror.BadRequest("Invalid status").WriteJSON(w)
			return
		}
		filter.Status = parsed
	}

	page := pagination.New(
		parseQueryInt(query.Get("page"), 1),
		parseQueryInt(query.Get("per_page"), 20),
	)

	result, err := h.service.List(r.Context(), filter, page)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	data := make([]ReportResponse, len(result.Data))
	for i, rep := range result.Data {
		data[i] = toReportResponse(rep)
	}

	response := ListResponse[ReportResponse]{
		Data:       data,
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalPages: result.TotalPages,
		Links:      NewPaginationLinks(r, result.Page, result.PerPage, result.TotalPages),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// Get handles GET /api/v1/reports/{id}.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	rep, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toReportResponse(rep))
}

// HostResponse represents a host in API responses.
type HostResponse struct {
	ID         string `json:"id"`
	ReportID   string `json:"report_id"`
	IPAddress  string `json:"ip_address"`
	Hostname   string `json:"hostname,omitempty"`
	ScanStatus string `json:"scan_status"`

	TotalVulnerabilities int `json:"total_vulnerabilities"`
	CriticalCount        int `json:"critical_count"`
	HighCount            int `json:"high_count"`
	MediumCount          int `json:"medium_count"`
	LowCount             int `json:"low_count"`
	InfoCount            int `json:"info_count"`
	ZeroDayCount         int `json:"zero_day_count"`
}

func toHostResponse(hst *host.Host) HostResponse {
	return HostResponse{
		ID:                   hst.ID.String(),
		ReportID:             hst.ReportID.String(),
		IPAddress:            hst.IPAddress,
		Hostname:             hst.Hostname,
		ScanStatus:           hst.ScanStatus,
		TotalVulnerabilities: hst.TotalVulnerabilities,
		CriticalCount:        hst.CriticalCount,
		HighCount:            hst.HighCount,
		MediumCount:          hst.MediumCount,
		LowCount:             hst.LowCount,
		InfoCount:            hst.InfoCount,
		ZeroDayCount:         hst.ZeroDayCount,
	}
}

// ListHosts handles GET /api/v1/reports/{id}/hosts.
func (h *ReportHandler) ListHosts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	hosts, err := h.service.ListHosts(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	data := make([]HostResponse, len(hosts))
	for i, hst := range hosts {
		data[i] = toHostResponse(hst)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "total": len(data)})
}

// FindingResponse represents a finding in API responses.
type FindingResponse struct {
	ID       string `json:"id"`
	ReportID string `json:"report_id"`
	HostID   string `json:"host_id"`
	HostIP   string `json:"host_ip"`

	CVEID    string `json:"cve_id,omitempty"`
	PluginID string `json:"plugin_id,omitempty"`
	Name     string `json:"name"`

	Severity   string   `json:"severity"`
	CVSSScore  *float64 `json:"cvss_score"`
	CVSSVector string   `json:"cvss_vector,omitempty"`

	Description       string `json:"description,omitempty"`
	Solution          string `json:"solution,omitempty"`
	FixRecommendation string `json:"fix_recommendation,omitempty"`

	Port     *int   `json:"port"`
	Protocol string `json:"protocol,omitempty"`
	Service  string `json:"service,omitempty"`

	IsZeroDay     bool `json:"is_zero_day"`
	IsExploitable bool `json:"is_exploitable"`

	PluginFamily string `json:"plugin_family,omitempty"`
	PluginOutput string `json:"plugin_output,omitempty"`
}

func toFindingResponse(f *finding.Finding) FindingResponse {
	return FindingResponse{
		ID:                f.ID.String(),
		ReportID:          f.ReportID.String(),
		HostID:            f.HostID.String(),
		HostIP:            f.HostIP,
		CVEID:             f.CVEID,
		PluginID:          f.PluginID,
		Name:              f.Name,
		Severity:          f.Severity.String(),
		CVSSScore:         f.CVSSScore,
		CVSSVector:        f.CVSSVector,
		Description:       f.Description,
		Solution:          f.Solution,
		FixRecommendation: f.FixRecommendation,
		Port:              f.Port,
		Protocol:          f.Protocol,
		Service:           f.Service,
		IsZeroDay:         f.IsZeroDay,
		IsExploitable:     f.IsExploitable,
		PluginFamily:      f.PluginFamily,
		PluginOutput:      f.PluginOutput,
	}
}

// ListFindings handles GET /api/v1/reports/{id}/findings.
func (h *ReportHandler) ListFindings(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()

	var filter finding.Filter

	if sev := query.Get("severity"); sev != "" {
		parsed, err := finding.ParseSeverity(sev)
		if err != nil {
			apierror.BadRequest("Invalid severity").WriteJSON(w)
			return
		}
		filter.Severity = parsed
	}
	filter.HostIP = query.Get("host_ip")
	filter.IsZeroDay = parseQueryBoolPtr(query.Get("is_zero_day"))
	filter.IsExploitable = parseQueryBoolPtr(query.Get("is_exploitable"))

	page := pagination.New(
		parseQueryInt(query.Get("page"), 1),
		parseQueryInt(query.Get("per_page"), 20),
	)

	result, err := h.service.ListFindings(r.Context(), id, filter, page)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	data := make([]FindingResponse, len(result.Data))
	for i, f := range result.Data {
		data[i] = toFindingResponse(f)
	}

	response := ListResponse[FindingResponse]{
		Data:       data,
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalPages: result.TotalPages,
		Links:      NewPaginationLinks(r, result.Page, result.PerPage, result.TotalPages),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *ReportHandler) reportID(w http.ResponseWriter, r *http.Request) (shared.ID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		apierror.BadRequest("Report ID is required").WriteJSON(w)
		return shared.ID{}, false
	}

	id, err := shared.IDFromString(raw)
	if err != nil {
		apierror.BadRequest("Invalid report ID").WriteJSON(w)
		return shared.ID{}, false
	}
	return id, true
}

func (h *ReportHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsNotFound(err):
		apierror.NotFound("Report not found").WriteJSON(w)
	case shared.IsValidation(err):
		apierror.BadRequest(err.Error()).WriteJSON(w)
	default:
		h.logger.Error("report service error", "error", err)
		apierror.Internal("Internal server error").WriteJSON(w)
	}
}
