package report

import (
	"fmt"
	"slices"
	"strings"
)

// Status represents the lifecycle state of a report.
type Status string

const (
	// StatusProcessing is set when the report row is created, before any
	// host or finding has been persisted.
	StatusProcessing Status = "processing"
	// StatusCompleted is set once every finding batch has been attempted.
	StatusCompleted Status = "completed"
	// StatusFailed is the terminal state for unrecoverable ingestion errors.
	StatusFailed Status = "failed"
)

// AllStatuses returns all valid report statuses.
func AllStatuses() []Status {
	return []Status{StatusProcessing, StatusCompleted, StatusFailed}
}

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	return slices.Contains(AllStatuses(), s)
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true once the report can no longer change state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus parses a string into a Status.
func ParseStatus(str string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(str)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid report status: %s", str)
	}
	return s, nil
}
