package report

import (
	"context"
	"time"

	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/pagination"
)

// Filter narrows report listings.
type Filter struct {
	OrgID      *shared.ID
	SourceType organization.SourceType
	Status     Status
}

// Repository defines persistence operations for reports.
type Repository interface {
	// Create persists a new report. Returns shared.ErrConflict when the
	// (org_id, iteration_number) pair is already taken, which signals a
	// lost iteration race; callers retry the iteration computation.
	Create(ctx context.Context, r *Report) error

	// GetByID retrieves a report by ID.
	// Returns shared.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id shared.ID) (*Report, error)

	// GetLatestByOrg returns the report with the highest iteration number
	// for the organization, or shared.ErrNotFound when none exist.
	GetLatestByOrg(ctx context.Context, orgID shared.ID) (*Report, error)

	// List lists reports with filters and pagination, newest first.
	List(ctx context.Context, filter Filter, page pagination.Pagination) (pagination.Result[*Report], error)

	// ListByOrg returns all reports for an organization ordered by
	// iteration number ascending.
	ListByOrg(ctx context.Context, orgID shared.ID) ([]*Report, error)

	// UpdateStatus writes the status and rollup counters of a report.
	UpdateStatus(ctx context.Context, id shared.ID, status Status, counts Counts) error

	// ListStaleProcessing returns reports still in processing that were
	// created before the cutoff. Used by the reconciliation worker.
	ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]*Report, error)
}
