package finding

import (
	"fmt"
	"slices"
	"strings"
)

// Severity represents the canonical severity bucket of a finding.
// Raw scanner values are normalized before entering the domain; no other
// value is ever persisted.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "informational"
)

// AllSeverities returns all valid severity buckets, highest first.
func AllSeverities() []Severity {
	return []Severity{
		SeverityCritical,
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
		SeverityInfo,
	}
}

// IsValid checks if the severity is one of the canonical buckets.
func (s Severity) IsValid() bool {
	return slices.Contains(AllSeverities(), s)
}

// String returns the string representation.
func (s Severity) String() string {
	return string(s)
}

// Rank returns the ordering weight of the severity, highest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity parses a canonical severity string.
func ParseSeverity(str string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(str)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid severity: %s", str)
	}
	return s, nil
}
