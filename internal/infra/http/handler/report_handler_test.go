package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnreport/api/internal/app"
	"github.com/vulnreport/api/pkg/domain/finding"
	"github.com/vulnreport/api/pkg/domain/host"
	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/logger"
)

type reportHarness struct {
	handler  *ReportHandler
	reports  *fakeReportRepo
	hosts    *fakeHostRepo
	findings *fakeFindingRepo
}

func newReportHarness(t *testing.T) *reportHarness {
	t.Helper()

	reports := &fakeReportRepo{}
	hosts := &fakeHostRepo{}
	findings := &fakeFindingRepo{}

	log := logger.NewNop()
	svc := app.NewReportService(reports, hosts, findings, log)

	return &reportHarness{
		handler:  NewReportHandler(svc, log),
		reports:  reports,
		hosts:    hosts,
		findings: findings,
	}
}

func (h *reportHarness) seedReport(status report.Status) *report.Report {
	rep := &report.Report{
		ID:              shared.NewID(),
		OrgID:           shared.NewID(),
		OrgName:         "Acme Corp",
		SourceType:      organization.SourceTypeInternal,
		IterationNumber: len(h.reports.reports) + 1,
		Status:          status,
		CreatedAt:       time.Now(),
	}
	h.reports.reports = append(h.reports.reports, rep)
	return rep
}

func getWithID(handlerFunc http.HandlerFunc, path, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func TestReportListStatusFilter(t *testing.T) {
	h := newReportHarness(t)
	h.seedReport(report.StatusCompleted)
	h.seedReport(report.StatusCompleted)
	h.seedReport(report.StatusFailed)

	rec := getWithID(h.handler.List, "/api/v1/reports?status=completed", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse[ReportResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Total)
	for _, rep := range resp.Data {
		assert.Equal(t, "completed", rep.Status)
	}
}

func TestReportListOrgFilter(t *testing.T) {
	h := newReportHarness(t)
	mine := h.seedReport(report.StatusCompleted)
	h.seedReport(report.StatusCompleted)

	rec := getWithID(h.handler.List, "/api/v1/reports?org_id="+mine.OrgID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse[ReportResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Total)
	assert.Equal(t, mine.ID.String(), resp.Data[0].ID)
}

func TestReportListRejectsBadFilters(t *testing.T) {
	h := newReportHarness(t)

	tests := []struct {
		name string
		path string
	}{
		{"bad org id", "/api/v1/reports?org_id=nope"},
		{"bad source type", "/api/v1/reports?source_type=partner"},
		{"bad status", "/api/v1/reports?status=done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := getWithID(h.handler.List, tt.path, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestReportGet(t *testing.T) {
	h := newReportHarness(t)
	rep := h.seedReport(report.StatusCompleted)
	rep.TotalVulnerabilities = 12
	rep.CriticalCount = 2

	rec := getWithID(h.handler.Get, "/api/v1/reports/"+rep.ID.String(), rep.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rep.ID.String(), resp.ID)
	assert.Equal(t, "Acme Corp", resp.OrgName)
	assert.Equal(t, 12, resp.TotalVulnerabilities)
	assert.Equal(t, 2, resp.CriticalCount)
}

func TestReportGetNotFound(t *testing.T) {
	h := newReportHarness(t)

	id := shared.NewID().String()
	rec := getWithID(h.handler.Get, "/api/v1/reports/"+id, id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportGetInvalidID(t *testing.T) {
	h := newReportHarness(t)

	rec := getWithID(h.handler.Get, "/api/v1/reports/nope", "nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportListHosts(t *testing.T) {
	h := newReportHarness(t)
	rep := h.seedReport(report.StatusCompleted)
	h.hosts.hosts = []*host.Host{
		{ID: shared.NewID(), ReportID: rep.ID, IPAddress: "10.0.0.1", Hostname: "web-1", TotalVulnerabilities: 3},
		{ID: shared.NewID(), ReportID: rep.ID, IPAddress: "10.0.0.2", TotalVulnerabilities: 1},
		{ID: shared.NewID(), ReportID: shared.NewID(), IPAddress: "192.168.0.1"},
	}

	rec := getWithID(h.handler.ListHosts, "/api/v1/reports/"+rep.ID.String()+"/hosts", rep.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data  []HostResponse `json:"data"`
		Total int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "web-1", resp.Data[0].Hostname)
}

func TestReportListHostsUnknownReport(t *testing.T) {
	h := newReportHarness(t)

	id := shared.NewID().String()
	rec := getWithID(h.handler.ListHosts, "/api/v1/reports/"+id+"/hosts", id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportListFindingsFilters(t *testing.T) {
	h := newReportHarness(t)
	rep := h.seedReport(report.StatusCompleted)
	hostID := shared.NewID()
	h.findings.findings = []*finding.Finding{
		{ID: shared.NewID(), ReportID: rep.ID, HostID: hostID, HostIP: "10.0.0.1", Name: "RCE in agent", Severity: finding.SeverityCritical, IsZeroDay: true, IsExploitable: true},
		{ID: shared.NewID(), ReportID: rep.ID, HostID: hostID, HostIP: "10.0.0.1", Name: "Weak TLS", Severity: finding.SeverityMedium},
		{ID: shared.NewID(), ReportID: rep.ID, HostID: hostID, HostIP: "10.0.0.2", Name: "Old OpenSSH", Severity: finding.SeverityLow},
	}

	path := "/api/v1/reports/" + rep.ID.String() + "/findings?severity=critical&is_zero_day=true"
	rec := getWithID(h.handler.ListFindings, path, rep.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse[FindingResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Total)
	assert.Equal(t, "RCE in agent", resp.Data[0].Name)
	assert.True(t, resp.Data[0].IsZeroDay)
}

func TestReportListFindingsHostIPFilter(t *testing.T) {
	h := newReportHarness(t)
	rep := h.seedReport(report.StatusCompleted)
	hostID := shared.NewID()
	h.findings.findings = []*finding.Finding{
		{ID: shared.NewID(), ReportID: rep.ID, HostID: hostID, HostIP: "10.0.0.1", Name: "a", Severity: finding.SeverityLow},
		{ID: shared.NewID(), ReportID: rep.ID, HostID: hostID, HostIP: "10.0.0.2", Name: "b", Severity: finding.SeverityLow},
	}

	path := "/api/v1/reports/" + rep.ID.String() + "/findings?host_ip=10.0.0.2"
	rec := getWithID(h.handler.ListFindings, path, rep.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse[FindingResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Total)
	assert.Equal(t, "10.0.0.2", resp.Data[0].HostIP)
}

func TestReportListFindingsBadSeverity(t *testing.T) {
	h := newReportHarness(t)
	rep := h.seedReport(report.StatusCompleted)

	path := "/api/v1/reports/" + rep.ID.String() + "/findings?severity=terrible"
	rec := getWithID(h.handler.ListFindings, path, rep.ID.String())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
