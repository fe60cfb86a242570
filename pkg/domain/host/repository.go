package host

import (
	"context"

	"github.com/vulnreport/api/pkg/domain/shared"
)

// Repository defines persistence operations for hosts.
type Repository interface {
	// CreateBatch persists all hosts in one statement. Hosts depend on no
	// other ingestion output, so this is all-or-nothing.
	CreateBatch(ctx context.Context, hosts []*Host) error

	// UpdateCounts writes the per-host rollup counters.
	UpdateCounts(ctx context.Context, h *Host) error

	// ListByReport returns all hosts of a report ordered by IP address.
	ListByReport(ctx context.Context, reportID shared.ID) ([]*Host, error)
}
