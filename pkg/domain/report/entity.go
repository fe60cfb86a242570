// Package report defines the scan report domain model.
// A report is one ingested scan iteration for an organization; iterations
// are ordered per organization starting at 1.
package report

import (
	"time"

	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/shared"
)

// Report represents one ingested scan submission.
type Report struct {
	ID         shared.ID
	OrgID      shared.ID
	OrgName    string
	SourceType organization.SourceType

	ScanStartDate time.Time
	ScanEndDate   time.Time

	// Personnel recorded on the assessment.
	Assessee string
	Assessor string
	Reviewer string
	Approver string

	// Iteration ordering within the organization.
	IterationNumber  int
	PreviousReportID *shared.ID

	Status Status

	// Rollup counters, written when ingestion finalizes.
	TotalVulnerabilities int
	CriticalCount        int
	HighCount            int
	MediumCount          int
	LowCount             int
	InfoCount            int
	ZeroDayCount         int

	CreatedAt time.Time
}

// Metadata holds the upload form fields used to create a report.
type Metadata struct {
	ScanStartDate time.Time
	ScanEndDate   time.Time
	Assessee      string
	Assessor      string
	Reviewer      string
	Approver      string
}

// New creates a report in the processing state for the given organization
// and iteration. Counters stay zero until the aggregation pass finalizes.
func New(org *organization.Organization, iteration int, previous *shared.ID, meta Metadata) (*Report, error) {
	if org == nil {
		return nil, shared.NewDomainError("VALIDATION", "organization is required", shared.ErrValidation)
	}
	if iteration < 1 {
		return nil, shared.NewDomainError("VALIDATION", "iteration number must be positive", shared.ErrValidation)
	}
	if meta.ScanEndDate.Before(meta.ScanStartDate) {
		return nil, shared.NewDomainError("VALIDATION", "scan end date precedes start date", shared.ErrValidation)
	}

	return &Report{
		ID:               shared.NewID(),
		OrgID:            org.ID,
		OrgName:          org.Name,
		SourceType:       org.SourceType,
		ScanStartDate:    meta.ScanStartDate,
		ScanEndDate:      meta.ScanEndDate,
		Assessee:         meta.Assessee,
		Assessor:         meta.Assessor,
		Reviewer:         meta.Reviewer,
		Approver:         meta.Approver,
		IterationNumber:  iteration,
		PreviousReportID: previous,
		Status:           StatusProcessing,
		CreatedAt:        time.Now(),
	}, nil
}

// Complete transitions the report to completed and records the rollups.
func (r *Report) Complete(counts Counts) {
	r.Status = StatusCompleted
	r.TotalVulnerabilities = counts.Total
	r.CriticalCount = counts.Critical
	r.HighCount = counts.High
	r.MediumCount = counts.Medium
	r.LowCount = counts.Low
	r.InfoCount = counts.Info
	r.ZeroDayCount = counts.ZeroDay
}

// Fail transitions the report to the terminal failed state.
// Counters already accumulated are kept for operator diagnosis.
func (r *Report) Fail(counts Counts) {
	r.Status = StatusFailed
	r.TotalVulnerabilities = counts.Total
	r.CriticalCount = counts.Critical
	r.HighCount = counts.High
	r.MediumCount = counts.Medium
	r.LowCount = counts.Low
	r.InfoCount = counts.Info
	r.ZeroDayCount = counts.ZeroDay
}

// Counts holds the rollup counters written to a report.
type Counts struct {
	Total    int
	Critical int
	High     int
	Medium   int
	Low      int
	Info     int
	ZeroDay  int
}
