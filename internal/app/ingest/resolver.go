package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/vulnreport/api/internal/metrics"
	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/logger"
)

// iterationAttempts bounds the retry loop for the iteration number race.
const iterationAttempts = 3

// Resolver maps an upload to an organization and allocates the next
// iteration slot for it.
type Resolver struct {
	orgRepo    organization.Repository
	reportRepo report.Repository
	logger     *logger.Logger
}

// NewResolver creates a resolver.
func NewResolver(orgRepo organization.Repository, reportRepo report.Repository, log *logger.Logger) *Resolver {
	return &Resolver{
		orgRepo:    orgRepo,
		reportRepo: reportRepo,
		logger:     log.With("component", "resolver"),
	}
}

// ResolveOrganization returns the organization the upload belongs to.
//
// With an explicit ID the organization must exist; there is no fallback
// to a name lookup. Without one, the name is matched case-insensitively
// within the source type and created on first use. When a concurrent
// upload wins the creation race, the uniqueness constraint rejects our
// insert and the lookup is retried.
func (r *Resolver) ResolveOrganization(ctx context.Context, input Input) (*organization.Organization, error) {
	if input.OrgID != nil {
		org, err := r.orgRepo.GetByID(ctx, *input.OrgID)
		if err != nil {
			return nil, err
		}
		return org, nil
	}

	org, err := r.orgRepo.GetByNameAndSourceType(ctx, input.OrgName, input.SourceType)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("organization lookup failed: %w", err)
	}

	created, err := organization.New(input.OrgName, input.SourceType)
	if err != nil {
		return nil, err
	}

	err = r.orgRepo.Create(ctx, created)
	if err == nil {
		r.logger.Info("organization created",
			"org_id", created.ID.String(),
			"name", created.Name,
			"source_type", created.SourceType.String(),
		)
		return created, nil
	}
	if !errors.Is(err, shared.ErrAlreadyExists) {
		return nil, fmt.Errorf("organization create failed: %w", err)
	}

	// Lost the creation race; the winner's row satisfies the lookup now.
	metrics.OrganizationCreateRetries.Inc()
	return r.orgRepo.GetByNameAndSourceType(ctx, input.OrgName, input.SourceType)
}

// CreateReport allocates the next iteration number for the organization
// and inserts the report in the processing state. Concurrent uploads for
// the same organization can observe the same maximum iteration; the
// uniqueness constraint on (org, iteration) rejects all but one insert
// and the loser recomputes.
func (r *Resolver) CreateReport(ctx context.Context, org *organization.Organization, input Input) (*report.Report, error) {
	meta := report.Metadata{
		ScanStartDate: input.ScanStartDate,
		ScanEndDate:   input.ScanEndDate,
		Assessee:      input.Assessee,
		Assessor:      input.Assessor,
		Reviewer:      input.Reviewer,
		Approver:      input.Approver,
	}

	var lastErr error
	for attempt := 0; attempt < iterationAttempts; attempt++ {
		iteration := 1
		var previous *shared.ID

		latest, err := r.reportRepo.GetLatestByOrg(ctx, org.ID)
		switch {
		case err == nil:
			iteration = latest.IterationNumber + 1
			prevID := latest.ID
			previous = &prevID
		case errors.Is(err, shared.ErrNotFound):
			// First report for this organization.
		default:
			return nil, fmt.Errorf("failed to read latest report: %w", err)
		}

		rep, err := report.New(org, iteration, previous, meta)
		if err != nil {
			return nil, err
		}

		err = r.reportRepo.Create(ctx, rep)
		if err == nil {
			return rep, nil
		}
		if !errors.Is(err, shared.ErrConflict) {
			return nil, fmt.Errorf("failed to create report: %w", err)
		}

		metrics.ReportIterationRetries.Inc()
		r.logger.Warn("iteration number taken, retrying",
			"org_id", org.ID.String(),
			"iteration", iteration,
			"attempt", attempt+1,
		)
		lastErr = err
	}

	return nil, fmt.Errorf("failed to allocate iteration after %d attempts: %w", iterationAttempts, lastErr)
}
