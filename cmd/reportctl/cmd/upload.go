package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload FILE.csv",
	Short: "Upload a scanner CSV export",
	Long: `Upload a scanner CSV export and ingest it as a new report.

The organization is identified either by --org-id (must exist) or by
--org-name and --source-type, created on first upload.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().String("org-id", "", "Existing organization id")
	uploadCmd.Flags().String("org-name", "", "Organization name (used when --org-id is not set)")
	uploadCmd.Flags().String("source-type", "internal", "Source type: internal or external")
	uploadCmd.Flags().String("scan-start", "", "Scan start date (YYYY-MM-DD)")
	uploadCmd.Flags().String("scan-end", "", "Scan end date (YYYY-MM-DD)")
	uploadCmd.Flags().String("assessee", "", "Assessee name")
	uploadCmd.Flags().String("assessor", "", "Assessor name")
	uploadCmd.Flags().String("reviewer", "", "Reviewer name")
	uploadCmd.Flags().String("approver", "", "Approver name")
}

type uploadResult struct {
	Success         bool   `json:"success"`
	ReportID        string `json:"reportId"`
	OrganizationID  string `json:"organizationId"`
	IterationNumber int    `json:"iterationNumber"`
	Status          string `json:"status"`
	Stats           struct {
		TotalRows                int `json:"totalRows"`
		HostsProcessed           int `json:"hostsProcessed"`
		VulnerabilitiesProcessed int `json:"vulnerabilitiesProcessed"`
		RowsSkippedValidation    int `json:"rowsSkippedValidation"`
		RowsSkippedPersistence   int `json:"rowsSkippedPersistence"`
	} `json:"stats"`
}

func runUpload(cmd *cobra.Command, args []string) error {
	client := mustClient()

	fields := make(map[string]string)
	for _, flag := range []struct{ name, field string }{
		{"org-id", "organizationId"},
		{"org-name", "organizationName"},
		{"source-type", "sourceType"},
		{"scan-start", "scanStartDate"},
		{"scan-end", "scanEndDate"},
		{"assessee", "assessee"},
		{"assessor", "assessor"},
		{"reviewer", "reviewer"},
		{"approver", "approver"},
	} {
		v, _ := cmd.Flags().GetString(flag.name)
		fields[flag.field] = v
	}

	data, err := client.UploadFile("/api/v1/reports/upload", args[0], fields)
	if err != nil {
		return err
	}

	var result uploadResult
	if err := unmarshal(data, &result); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(result)
	case outputYAML:
		printYAML(result)
	default:
		fmt.Printf("Report %s created (iteration %d, status %s)\n",
			result.ReportID, result.IterationNumber, result.Status)
		fmt.Printf("  Rows:                 %d\n", result.Stats.TotalRows)
		fmt.Printf("  Hosts:                %d\n", result.Stats.HostsProcessed)
		fmt.Printf("  Findings:             %d\n", result.Stats.VulnerabilitiesProcessed)
		fmt.Printf("  Skipped (validation): %d\n", result.Stats.RowsSkippedValidation)
		fmt.Printf("  Skipped (storage):    %d\n", result.Stats.RowsSkippedPersistence)
	}
	return nil
}
