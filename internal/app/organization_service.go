package app

import (
	"context"

	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/logger"
)

// OrganizationService provides read access to organizations and their
// report history. Organizations are only ever created by the ingestion
// pipeline.
type OrganizationService struct {
	orgRepo    organization.Repository
	reportRepo report.Repository
	logger     *logger.Logger
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo organization.Repository, reportRepo report.Repository, log *logger.Logger) *OrganizationService {
	return &OrganizationService{
		orgRepo:    orgRepo,
		reportRepo: reportRepo,
		logger:     log,
	}
}

// List returns all organizations ordered by name.
func (s *OrganizationService) List(ctx context.Context) ([]*organization.Organization, error) {
	return s.orgRepo.List(ctx)
}

// Get returns one organization by ID.
func (s *OrganizationService) Get(ctx context.Context, id shared.ID) (*organization.Organization, error) {
	return s.orgRepo.GetByID(ctx, id)
}

// ListReports returns the full iteration history of an organization,
// ordered by iteration number.
func (s *OrganizationService) ListReports(ctx context.Context, orgID shared.ID) ([]*report.Report, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	return s.reportRepo.ListByOrg(ctx, orgID)
}
