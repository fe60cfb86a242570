package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/vulnreport/api/internal/app/ingest"
	"github.com/vulnreport/api/pkg/apierror"
	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/logger"
	"github.com/vulnreport/api/pkg/validator"
)

// UploadHandler handles scan report uploads.
type UploadHandler struct {
	service   *ingest.Service
	validator *validator.Validator
	maxUpload int64
	logger    *logger.Logger
}

// NewUploadHandler creates a new upload handler. maxUpload bounds the
// multipart form size in bytes.
func NewUploadHandler(svc *ingest.Service, v *validator.Validator, maxUpload int64, log *logger.Logger) *UploadHandler {
	if maxUpload <= 0 {
		maxUpload = ingest.DefaultMaxUploadSize
	}
	return &UploadHandler{
		service:   svc,
		validator: v,
		maxUpload: maxUpload,
		logger:    log,
	}
}

// UploadRequest represents the multipart form metadata of one upload.
// The scan window and the four assessment personnel fields are required.
type UploadRequest struct {
	OrgID         string `json:"organizationId" validate:"omitempty,uuid"`
	OrgName       string `json:"organizationName" validate:"required_without=OrgID,max=255"`
	SourceType    string `json:"sourceType" validate:"required,source_type"`
	ScanStartDate string `json:"scanStartDate" validate:"required"`
	ScanEndDate   string `json:"scanEndDate" validate:"required"`
	Assessee      string `json:"assessee" validate:"required,max=255"`
	Assessor      string `json:"assessor" validate:"required,max=255"`
	Reviewer      string `json:"reviewer" validate:"required,max=255"`
	Approver      string `json:"approver" validate:"required,max=255"`
}

// UploadResponse is the API response for a processed upload.
type UploadResponse struct {
	Success         bool         `json:"success"`
	ReportID        string       `json:"reportId"`
	OrganizationID  string       `json:"organizationId"`
	IterationNumber int          `json:"iterationNumber"`
	Status          string       `json:"status"`
	Stats           ingest.Stats `json:"stats"`
}

// Upload handles POST /api/v1/reports/upload. The request is a
// multipart form with a "file" part holding the CSV export plus the
// scan metadata fields.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierror.PayloadTooLarge("Uploaded file exceeds the size limit").WriteJSON(w)
			return
		}
		apierror.BadRequest("Invalid multipart form").WriteJSON(w)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierror.BadRequest("Missing file in request").WriteJSON(w)
		return
	}
	defer file.Close()

	if err := validateCSVFilename(header); err != nil {
		apierror.UnsupportedMediaType(err.Error()).WriteJSON(w)
		return
	}

	req := UploadRequest{
		OrgID:         formValue(r, "organizationId", "org_id"),
		OrgName:       formValue(r, "organizationName", "org_name"),
		SourceType:    formValue(r, "sourceType", "source_type"),
		ScanStartDate: formValue(r, "scanStartDate", "scan_start_date"),
		ScanEndDate:   formValue(r, "scanEndDate", "scan_end_date"),
		Assessee:      formValue(r, "assessee"),
		Assessor:      formValue(r, "assessor"),
		Reviewer:      formValue(r, "reviewer"),
		Approver:      formValue(r, "approver"),
	}

	if err := h.validator.Struct(req); err != nil {
		h.handleValidationError(w, err)
		return
	}

	input, err := h.toIngestInput(req)
	if err != nil {
		apierror.BadRequest(err.Error()).WriteJSON(w)
		return
	}
	input.CSV = file

	output, err := h.service.Ingest(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	response := UploadResponse{
		Success:         true,
		ReportID:        output.ReportID.String(),
		OrganizationID:  output.OrgID.String(),
		IterationNumber: output.IterationNumber,
		Status:          output.Status.String(),
		Stats:           output.Stats,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(response)
}

// toIngestInput converts the validated form into pipeline input.
func (h *UploadHandler) toIngestInput(req UploadRequest) (ingest.Input, error) {
	var input ingest.Input

	if req.OrgID != "" {
		id, err := shared.IDFromString(req.OrgID)
		if err != nil {
			return input, errors.New("invalid organization id")
		}
		input.OrgID = &id
	}
	input.OrgName = strings.TrimSpace(req.OrgName)

	sourceType, err := organization.ParseSourceType(req.SourceType)
	if err != nil {
		return input, err
	}
	input.SourceType = sourceType

	if input.ScanStartDate, err = parseDateField(req.ScanStartDate); err != nil {
		return input, errors.New("invalid scanStartDate")
	}
	if input.ScanEndDate, err = parseDateField(req.ScanEndDate); err != nil {
		return input, errors.New("invalid scanEndDate")
	}

	input.Assessee = strings.TrimSpace(req.Assessee)
	input.Assessor = strings.TrimSpace(req.Assessor)
	input.Reviewer = strings.TrimSpace(req.Reviewer)
	input.Approver = strings.TrimSpace(req.Approver)

	return input, nil
}

func (h *UploadHandler) handleValidationError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierror.ValidationFailed(validationErrors).WriteJSON(w)
		return
	}
	apierror.BadRequest("Validation error").WriteJSON(w)
}

func (h *UploadHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsNotFound(err):
		apierror.NotFound("Organization not found").WriteJSON(w)
	case shared.IsValidation(err):
		apierror.BadRequest(err.Error()).WriteJSON(w)
	default:
		h.logger.Error("upload failed", "error", err)
		apierror.Internal("Report ingestion failed").WriteJSON(w)
	}
}

// formValue returns the first non-blank form field among names; later
// names are accepted as aliases for older clients.
func formValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(r.FormValue(name)); v != "" {
			return v
		}
	}
	return ""
}

// validateCSVFilename rejects uploads whose filename does not look like
// a CSV export. Content is validated later by the parser.
func validateCSVFilename(header *multipart.FileHeader) error {
	name := strings.ToLower(header.Filename)
	if filepath.Ext(name) != ".csv" {
		return errors.New("only .csv files are accepted")
	}
	return nil
}

// parseDateField accepts an empty value, a date, or a full RFC3339
// timestamp.
func parseDateField(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
