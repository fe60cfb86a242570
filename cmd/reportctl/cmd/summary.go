package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show platform-wide statistics",
	RunE:  runSummary,
}

type summaryView struct {
	Organizations      int            `json:"organizations"`
	Reports            int            `json:"reports"`
	ReportsByStatus    map[string]int `json:"reports_by_status"`
	TotalFindings      int            `json:"total_findings"`
	FindingsBySeverity map[string]int `json:"findings_by_severity"`
	ZeroDayFindings    int            `json:"zero_day_findings"`
	ExploitableCount   int            `json:"exploitable_findings"`
	HostsScanned       int            `json:"hosts_scanned"`
}

func runSummary(_ *cobra.Command, _ []string) error {
	client := mustClient()

	data, err := client.Get("/api/v1/dashboard/summary")
	if err != nil {
		return err
	}

	var s summaryView
	if err := unmarshal(data, &s); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(s)
	case outputYAML:
		printYAML(s)
	default:
		fmt.Printf("Organizations:   %d\n", s.Organizations)
		fmt.Printf("Reports:         %d\n", s.Reports)
		for status, count := range s.ReportsByStatus {
			fmt.Printf("  %-14s %d\n", status+":", count)
		}
		fmt.Printf("Hosts scanned:   %d\n", s.HostsScanned)
		fmt.Printf("Findings:        %d\n", s.TotalFindings)
		for severity, count := range s.FindingsBySeverity {
			fmt.Printf("  %-14s %d\n", severity+":", count)
		}
		fmt.Printf("Zero-day:        %d\n", s.ZeroDayFindings)
		fmt.Printf("Exploitable:     %d\n", s.ExploitableCount)
	}
	return nil
}
