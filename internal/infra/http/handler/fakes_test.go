package handler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vulnreport/api/pkg/domain/finding"
	"github.com/vulnreport/api/pkg/domain/host"
	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/pagination"
)

// In-memory repositories backing the handler tests. They implement the
// same contracts as the postgres layer, including the sentinel errors
// the handlers translate into HTTP statuses.

type fakeOrgRepo struct {
	mu   sync.Mutex
	orgs []*organization.Organization
}

func (r *fakeOrgRepo) Create(_ context.Context, org *organization.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orgs {
		if strings.EqualFold(existing.Name, org.Name) && existing.SourceType == org.SourceType {
			return shared.ErrAlreadyExists
		}
	}
	r.orgs = append(r.orgs, org)
	return nil
}

func (r *fakeOrgRepo) GetByID(_ context.Context, id shared.ID) (*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, org := range r.orgs {
		if org.ID.Equals(id) {
			return org, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrgRepo) GetByNameAndSourceType(_ context.Context, name string, st organization.SourceType) (*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, org := range r.orgs {
		if strings.EqualFold(org.Name, name) && org.SourceType == st {
			return org, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrgRepo) List(_ context.Context) ([]*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*organization.Organization(nil), r.orgs...), nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports []*report.Report
}

func (r *fakeReportRepo) Create(_ context.Context, rep *report.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reports {
		if existing.OrgID.Equals(rep.OrgID) && existing.IterationNumber == rep.IterationNumber {
			return shared.ErrConflict
		}
	}
	clone := *rep
	r.reports = append(r.reports, &clone)
	return nil
}

func (r *fakeReportRepo) GetByID(_ context.Context, id shared.ID) (*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.ID.Equals(id) {
			return rep, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeReportRepo) GetLatestByOrg(_ context.Context, orgID shared.ID) (*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *report.Report
	for _, rep := range r.reports {
		if !rep.OrgID.Equals(orgID) {
			continue
		}
		if latest == nil || rep.IterationNumber > latest.IterationNumber {
			latest = rep
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

func (r *fakeReportRepo) List(_ context.Context, filter report.Filter, page pagination.Pagination) (pagination.Result[*report.Report], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*report.Report
	for _, rep := range r.reports {
		if filter.OrgID != nil && !rep.OrgID.Equals(*filter.OrgID) {
			continue
		}
		if filter.SourceType != "" && rep.SourceType != filter.SourceType {
			continue
		}
		if filter.Status != "" && rep.Status != filter.Status {
			continue
		}
		matched = append(matched, rep)
	}
	return pagination.NewResult(matched, int64(len(matched)), page), nil
}

func (r *fakeReportRepo) ListByOrg(_ context.Context, orgID shared.ID) ([]*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*report.Report
	for _, rep := range r.reports {
		if rep.OrgID.Equals(orgID) {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r *fakeReportRepo) UpdateStatus(_ context.Context, id shared.ID, status report.Status, counts report.Counts) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.ID.Equals(id) {
			rep.Status = status
			rep.TotalVulnerabilities = counts.Total
			rep.CriticalCount = counts.Critical
			rep.HighCount = counts.High
			rep.MediumCount = counts.Medium
			rep.LowCount = counts.Low
			rep.InfoCount = counts.Info
			rep.ZeroDayCount = counts.ZeroDay
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *fakeReportRepo) ListStaleProcessing(_ context.Context, cutoff time.Time) ([]*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*report.Report
	for _, rep := range r.reports {
		if rep.Status == report.StatusProcessing && rep.CreatedAt.Before(cutoff) {
			out = append(out, rep)
		}
	}
	return out, nil
}

type fakeHostRepo struct {
	mu    sync.Mutex
	hosts []*host.Host
}

func (r *fakeHostRepo) CreateBatch(_ context.Context, hosts []*host.Host) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hosts = append(r.hosts, hosts...)
	return nil
}

func (r *fakeHostRepo) UpdateCounts(_ context.Context, _ *host.Host) error { return nil }

func (r *fakeHostRepo) ListByReport(_ context.Context, reportID shared.ID) ([]*host.Host, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*host.Host
	for _, h := range r.hosts {
		if h.ReportID.Equals(reportID) {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeFindingRepo struct {
	mu       sync.Mutex
	findings []*finding.Finding
}

func (r *fakeFindingRepo) CreateBatch(_ context.Context, findings []*finding.Finding) (finding.BatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, findings...)
	return finding.BatchResult{Inserted: len(findings)}, nil
}

func (r *fakeFindingRepo) ListByReport(_ context.Context, reportID shared.ID, filter finding.Filter, page pagination.Pagination) (pagination.Result[*finding.Finding], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*finding.Finding
	for _, f := range r.findings {
		if !f.ReportID.Equals(reportID) {
			continue
		}
		if filter.Severity != "" && f.Severity != filter.Severity {
			continue
		}
		if filter.HostIP != "" && f.HostIP != filter.HostIP {
			continue
		}
		if filter.IsZeroDay != nil && f.IsZeroDay != *filter.IsZeroDay {
			continue
		}
		if filter.IsExploitable != nil && f.IsExploitable != *filter.IsExploitable {
			continue
		}
		matched = append(matched, f)
	}
	return pagination.NewResult(matched, int64(len(matched)), page), nil
}

func (r *fakeFindingRepo) CountByReport(_ context.Context, reportID shared.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, f := range r.findings {
		if f.ReportID.Equals(reportID) {
			n++
		}
	}
	return n, nil
}
