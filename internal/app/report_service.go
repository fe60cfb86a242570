package app

import (
	"context"

	"github.com/vulnreport/api/pkg/domain/finding"
	"github.com/vulnreport/api/pkg/domain/host"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/logger"
	"github.com/vulnreport/api/pkg/pagination"
)

// ReportService provides read access to ingested reports, their hosts,
// and their findings. The dataset is produced by the ingestion pipeline
// and is read-only afterwards.
type ReportService struct {
	reportRepo  report.Repository
	hostRepo    host.Repository
	findingRepo finding.Repository
	logger      *logger.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(reportRepo report.Repository, hostRepo host.Repository, findingRepo finding.Repository, log *logger.Logger) *ReportService {
	return &ReportService{
		reportRepo:  reportRepo,
		hostRepo:    hostRepo,
		findingRepo: findingRepo,
		logger:      log,
	}
}

// List lists reports with filters and pagination, newest first.
func (s *ReportService) List(ctx context.Context, filter report.Filter, page pagination.Pagination) (pagination.Result[*report.Report], error) {
	return s.reportRepo.List(ctx, filter, page)
}

// Get returns one report by ID.
func (s *ReportService) Get(ctx context.Context, id shared.ID) (*report.Report, error) {
	return s.reportRepo.GetByID(ctx, id)
}

// ListHosts returns the hosts of a report with their rollup counters.
func (s *ReportService) ListHosts(ctx context.Context, reportID shared.ID) ([]*host.Host, error) {
	if _, err := s.reportRepo.GetByID(ctx, reportID); err != nil {
		return nil, err
	}
	return s.hostRepo.ListByReport(ctx, reportID)
}

// ListFindings lists the findings of a report with filters and pagination.
func (s *ReportService) ListFindings(ctx context.Context, reportID shared.ID, filter finding.Filter, page pagination.Pagination) (pagination.Result[*finding.Finding], error) {
	if _, err := s.reportRepo.GetByID(ctx, reportID); err != nil {
		return pagination.Result[*finding.Finding]{}, err
	}
	return s.findingRepo.ListByReport(ctx, reportID, filter, page)
}
