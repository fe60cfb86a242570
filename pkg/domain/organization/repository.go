package organization

import (
	"context"

	"github.com/vulnreport/api/pkg/domain/shared"
)

// Repository defines persistence operations for organizations.
type Repository interface {
	// Create persists a new organization. Returns shared.ErrAlreadyExists
	// when another organization holds the same (name, source_type) pair;
	// callers are expected to retry the lookup in that case.
	Create(ctx context.Context, org *Organization) error

	// GetByID retrieves an organization by ID.
	// Returns shared.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id shared.ID) (*Organization, error)

	// GetByNameAndSourceType retrieves an organization by case-insensitive
	// exact name match and source type.
	// Returns shared.ErrNotFound if it does not exist.
	GetByNameAndSourceType(ctx context.Context, name string, sourceType SourceType) (*Organization, error)

	// List returns all organizations ordered by name.
	List(ctx context.Context) ([]*Organization, error)
}
