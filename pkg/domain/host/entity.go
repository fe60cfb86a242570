// Package host defines the scanned-host domain model.
// Hosts are deduplicated within a report by the raw IP string exactly as it
// appears in the scanner export; no canonicalization of the address
// representation is performed.
package host

import (
	"github.com/vulnreport/api/pkg/domain/shared"
)

// Host represents one scanned host within a report.
type Host struct {
	ID         shared.ID
	ReportID   shared.ID
	IPAddress  string
	Hostname   string
	ScanStatus string

	// Per-host rollup counters.
	TotalVulnerabilities int
	CriticalCount        int
	HighCount            int
	MediumCount          int
	LowCount             int
	InfoCount            int
	ZeroDayCount         int
}

// New creates a host for a report.
func New(reportID shared.ID, ipAddress, hostname string) (*Host, error) {
	if ipAddress == "" {
		return nil, shared.NewDomainError("VALIDATION", "host ip address is required", shared.ErrValidation)
	}

	return &Host{
		ID:         shared.NewID(),
		ReportID:   reportID,
		IPAddress:  ipAddress,
		Hostname:   hostname,
		ScanStatus: ScanStatusCompleted,
	}, nil
}

// Scan status values recorded on hosts.
const (
	ScanStatusCompleted = "completed"
)
