package finding

import (
	"context"

	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/pagination"
)

// Filter narrows finding listings within a report.
type Filter struct {
	Severity      Severity
	HostIP        string
	IsZeroDay     *bool
	IsExploitable *bool
}

// BatchResult reports the outcome of one batch insertion attempt.
type BatchResult struct {
	Inserted int
	Failed   int
}

// Repository defines persistence operations for findings.
type Repository interface {
	// CreateBatch persists a batch of findings in a single statement.
	// The batch either inserts fully or fails fully; the returned result
	// accounts for both outcomes so callers can continue with later
	// batches on failure.
	CreateBatch(ctx context.Context, findings []*Finding) (BatchResult, error)

	// ListByReport lists findings of a report with filters and pagination,
	// ordered by severity rank descending, then name.
	ListByReport(ctx context.Context, reportID shared.ID, filter Filter, page pagination.Pagination) (pagination.Result[*Finding], error)

	// CountByReport returns the number of persisted findings for a report.
	CountByReport(ctx context.Context, reportID shared.ID) (int64, error)
}
