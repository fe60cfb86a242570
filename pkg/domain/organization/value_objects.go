package organization

import (
	"fmt"
	"slices"
	"strings"
)

// SourceType classifies who performed the assessment.
type SourceType string

const (
	// SourceTypeInternal marks a self-assessed organization.
	SourceTypeInternal SourceType = "internal"
	// SourceTypeExternal marks a third-party assessed organization.
	SourceTypeExternal SourceType = "external"
)

// AllSourceTypes returns all valid source types.
func AllSourceTypes() []SourceType {
	return []SourceType{SourceTypeInternal, SourceTypeExternal}
}

// IsValid checks if the source type is valid.
func (t SourceType) IsValid() bool {
	return slices.Contains(AllSourceTypes(), t)
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// ParseSourceType parses a string into a SourceType.
func ParseSourceType(s string) (SourceType, error) {
	t := SourceType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid source type: %s", s)
	}
	return t, nil
}
