// Package organization defines the organization domain model.
// An organization is the owner of a series of scan reports; it is created
// lazily the first time a scan is uploaded under a new name.
package organization

import (
	"strings"
	"time"

	"github.com/vulnreport/api/pkg/domain/shared"
)

// Organization represents an assessed party.
// Identity is (name, source_type), matched case-insensitively.
type Organization struct {
	ID         shared.ID
	Name       string
	SourceType SourceType
	CreatedAt  time.Time
}

// New creates a new organization with a trimmed name.
func New(name string, sourceType SourceType) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "organization name is required", shared.ErrValidation)
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "invalid source type", shared.ErrValidation)
	}

	return &Organization{
		ID:         shared.NewID(),
		Name:       name,
		SourceType: sourceType,
		CreatedAt:  time.Now(),
	}, nil
}
