package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show detailed information about a resource",
}

var describeReportCmd = &cobra.Command{
	Use:   "report REPORT_ID",
	Short: "Show report details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribeReport,
}

func init() {
	describeCmd.AddCommand(describeReportCmd)
}

type reportDetail struct {
	ID                   string  `json:"id"`
	OrgID                string  `json:"org_id"`
	OrgName              string  `json:"org_name"`
	SourceType           string  `json:"source_type"`
	ScanStartDate        *string `json:"scan_start_date"`
	ScanEndDate          *string `json:"scan_end_date"`
	Assessee             string  `json:"assessee"`
	Assessor             string  `json:"assessor"`
	Reviewer             string  `json:"reviewer"`
	Approver             string  `json:"approver"`
	IterationNumber      int     `json:"iteration_number"`
	PreviousReportID     *string `json:"previous_report_id"`
	Status               string  `json:"status"`
	TotalVulnerabilities int     `json:"total_vulnerabilities"`
	CriticalCount        int     `json:"critical_count"`
	HighCount            int     `json:"high_count"`
	MediumCount          int     `json:"medium_count"`
	LowCount             int     `json:"low_count"`
	InfoCount            int     `json:"info_count"`
	ZeroDayCount         int     `json:"zero_day_count"`
	CreatedAt            string  `json:"created_at"`
}

func runDescribeReport(_ *cobra.Command, args []string) error {
	client := mustClient()

	data, err := client.Get("/api/v1/reports/" + url.PathEscape(args[0]))
	if err != nil {
		return err
	}

	var r reportDetail
	if err := unmarshal(data, &r); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(r)
	case outputYAML:
		printYAML(r)
	default:
		fmt.Printf("ID:              %s\n", r.ID)
		fmt.Printf("Organization:    %s (%s)\n", r.OrgName, r.OrgID)
		fmt.Printf("Source type:     %s\n", r.SourceType)
		fmt.Printf("Iteration:       %d\n", r.IterationNumber)
		if r.PreviousReportID != nil {
			fmt.Printf("Previous report: %s\n", *r.PreviousReportID)
		}
		fmt.Printf("Status:          %s\n", r.Status)
		if r.ScanStartDate != nil && r.ScanEndDate != nil {
			fmt.Printf("Scan window:     %s - %s\n", *r.ScanStartDate, *r.ScanEndDate)
		}
		if r.Assessee != "" {
			fmt.Printf("Assessee:        %s\n", r.Assessee)
		}
		if r.Assessor != "" {
			fmt.Printf("Assessor:        %s\n", r.Assessor)
		}
		if r.Reviewer != "" {
			fmt.Printf("Reviewer:        %s\n", r.Reviewer)
		}
		if r.Approver != "" {
			fmt.Printf("Approver:        %s\n", r.Approver)
		}
		fmt.Printf("Created:         %s\n", r.CreatedAt)
		fmt.Println()
		fmt.Printf("Vulnerabilities: %d total\n", r.TotalVulnerabilities)
		fmt.Printf("  Critical:      %d\n", r.CriticalCount)
		fmt.Printf("  High:          %d\n", r.HighCount)
		fmt.Printf("  Medium:        %d\n", r.MediumCount)
		fmt.Printf("  Low:           %d\n", r.LowCount)
		fmt.Printf("  Informational: %d\n", r.InfoCount)
		fmt.Printf("  Zero-day:      %d\n", r.ZeroDayCount)
	}
	return nil
}
