// Package finding defines the vulnerability finding domain model.
// A finding is one normalized, classified row from a scanner export,
// linked to exactly one host within one report. Findings are immutable
// after creation.
package finding

import (
	"github.com/vulnreport/api/pkg/domain/shared"
)

// Finding represents a single vulnerability observation.
type Finding struct {
	ID       shared.ID
	ReportID shared.ID
	HostID   shared.ID
	HostIP   string

	CVEID    string
	PluginID string
	Name     string

	Severity   Severity
	CVSSScore  *float64
	CVSSVector string

	Description       string
	Solution          string
	FixRecommendation string

	Port     *int
	Protocol string
	Service  string

	IsZeroDay     bool
	IsExploitable bool

	PluginFamily string
	PluginOutput string
}

// Validate checks the invariants every persisted finding must hold.
func (f *Finding) Validate() error {
	if f.ReportID.IsZero() {
		return shared.NewDomainError("VALIDATION", "finding requires a report", shared.ErrValidation)
	}
	if f.HostID.IsZero() {
		return shared.NewDomainError("VALIDATION", "finding requires a host", shared.ErrValidation)
	}
	if f.Name == "" {
		return shared.NewDomainError("VALIDATION", "finding name is required", shared.ErrValidation)
	}
	if !f.Severity.IsValid() {
		return shared.NewDomainError("VALIDATION", "invalid severity", shared.ErrValidation)
	}
	if f.CVSSScore != nil && (*f.CVSSScore < 0 || *f.CVSSScore > 10) {
		return shared.NewDomainError("VALIDATION", "cvss score out of range", shared.ErrValidation)
	}
	return nil
}
