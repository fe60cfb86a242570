// Package ingest implements the CSV scan ingestion pipeline: row
// normalization, classification, identity resolution, aggregation, and
// report finalization.
package ingest

import (
	"io"
	"time"

	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
)

const (
	// DefaultBatchSize is the number of findings inserted per statement.
	DefaultBatchSize = 100

	// DefaultMaxUploadSize is the upload size limit in bytes.
	DefaultMaxUploadSize = 10 << 20

	// DefaultZeroDayYearThreshold is the CVE publication year at or after
	// which a finding is considered recently disclosed.
	DefaultZeroDayYearThreshold = 2024
)

// Input represents one scan upload to ingest.
type Input struct {
	// OrgID pins the upload to an existing organization. When set, the
	// organization must exist; there is no fallback to a name lookup.
	OrgID *shared.ID

	// OrgName identifies or creates the organization when OrgID is nil.
	OrgName string

	SourceType organization.SourceType

	ScanStartDate time.Time
	ScanEndDate   time.Time
	Assessee      string
	Assessor      string
	Reviewer      string
	Approver      string

	// CSV is the uploaded file content.
	CSV io.Reader
}

// Stats accounts for every CSV data row of one upload. Validation skips
// (bad data) and persistence skips (system errors) are reported
// separately so callers can tell them apart.
type Stats struct {
	TotalRows                int `json:"totalRows"`
	HostsProcessed           int `json:"hostsProcessed"`
	VulnerabilitiesProcessed int `json:"vulnerabilitiesProcessed"`
	RowsSkippedValidation    int `json:"rowsSkippedValidation"`
	RowsSkippedPersistence   int `json:"rowsSkippedPersistence"`
}

// Output represents the result of one ingestion.
type Output struct {
	ReportID        shared.ID     `json:"reportId"`
	OrgID           shared.ID     `json:"organizationId"`
	IterationNumber int           `json:"iterationNumber"`
	Status          report.Status `json:"status"`
	Stats           Stats         `json:"stats"`
}
