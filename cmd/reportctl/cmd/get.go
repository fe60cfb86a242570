package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "List resources",
}

var getReportsCmd = &cobra.Command{
	Use:     "reports",
	Aliases: []string{"report"},
	Short:   "List reports",
	RunE:    runGetReports,
}

var getOrgsCmd = &cobra.Command{
	Use:     "organizations",
	Aliases: []string{"organization", "orgs", "org"},
	Short:   "List organizations",
	RunE:    runGetOrgs,
}

var getHostsCmd = &cobra.Command{
	Use:   "hosts REPORT_ID",
	Short: "List hosts of a report",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetHosts,
}

var getFindingsCmd = &cobra.Command{
	Use:   "findings REPORT_ID",
	Short: "List findings of a report",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetFindings,
}

func init() {
	getReportsCmd.Flags().String("org-id", "", "Filter by organization id")
	getReportsCmd.Flags().String("source-type", "", "Filter by source type (internal/external)")
	getReportsCmd.Flags().String("status", "", "Filter by status (processing/completed/failed)")
	getReportsCmd.Flags().Int("page", 1, "Page number")
	getReportsCmd.Flags().Int("per-page", 20, "Items per page")

	getFindingsCmd.Flags().String("severity", "", "Filter by severity")
	getFindingsCmd.Flags().String("host-ip", "", "Filter by host IP")
	getFindingsCmd.Flags().String("zero-day", "", "Filter by zero-day flag (true/false)")
	getFindingsCmd.Flags().String("exploitable", "", "Filter by exploitable flag (true/false)")
	getFindingsCmd.Flags().Int("page", 1, "Page number")
	getFindingsCmd.Flags().Int("per-page", 20, "Items per page")

	getCmd.AddCommand(getReportsCmd)
	getCmd.AddCommand(getOrgsCmd)
	getCmd.AddCommand(getHostsCmd)
	getCmd.AddCommand(getFindingsCmd)
}

// Response views. These mirror the API response shapes.

type reportView struct {
	ID                   string `json:"id"`
	OrgName              string `json:"org_name"`
	SourceType           string `json:"source_type"`
	IterationNumber      int    `json:"iteration_number"`
	Status               string `json:"status"`
	TotalVulnerabilities int    `json:"total_vulnerabilities"`
	CriticalCount        int    `json:"critical_count"`
	HighCount            int    `json:"high_count"`
	ZeroDayCount         int    `json:"zero_day_count"`
	CreatedAt            string `json:"created_at"`
}

type listEnvelope[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

func runGetReports(cmd *cobra.Command, _ []string) error {
	client := mustClient()

	params := url.Values{}
	for _, flag := range []struct{ name, param string }{
		{"org-id", "org_id"},
		{"source-type", "source_type"},
		{"status", "status"},
	} {
		if v, _ := cmd.Flags().GetString(flag.name); v != "" {
			params.Set(flag.param, v)
		}
	}
	if v, _ := cmd.Flags().GetInt("page"); v > 0 {
		params.Set("page", strconv.Itoa(v))
	}
	if v, _ := cmd.Flags().GetInt("per-page"); v > 0 {
		params.Set("per_page", strconv.Itoa(v))
	}

	data, err := client.Get("/api/v1/reports?" + params.Encode())
	if err != nil {
		return err
	}

	var result listEnvelope[reportView]
	if err := unmarshal(data, &result); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(result)
	case outputYAML:
		printYAML(result)
	default:
		t := newTable("ID", "ORG", "SOURCE", "ITER", "STATUS", "TOTAL", "CRIT", "HIGH", "0-DAY")
		for _, r := range result.Data {
			t.AddRow(r.ID, r.OrgName, r.SourceType, strconv.Itoa(r.IterationNumber), r.Status,
				strconv.Itoa(r.TotalVulnerabilities), strconv.Itoa(r.CriticalCount),
				strconv.Itoa(r.HighCount), strconv.Itoa(r.ZeroDayCount))
		}
		t.Flush()
		printPagination(result.Total, result.Page, result.PerPage, result.TotalPages)
	}
	return nil
}

type orgView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SourceType string `json:"source_type"`
	CreatedAt  string `json:"created_at"`
}

func runGetOrgs(_ *cobra.Command, _ []string) error {
	client := mustClient()

	data, err := client.Get("/api/v1/organizations")
	if err != nil {
		return err
	}

	var result struct {
		Data  []orgView `json:"data"`
		Total int       `json:"total"`
	}
	if err := unmarshal(data, &result); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(result)
	case outputYAML:
		printYAML(result)
	default:
		t := newTable("ID", "NAME", "SOURCE", "CREATED")
		for _, o := range result.Data {
			t.AddRow(o.ID, o.Name, o.SourceType, o.CreatedAt)
		}
		t.Flush()
		fmt.Printf("\n%d organizations\n", result.Total)
	}
	return nil
}

type hostView struct {
	IPAddress            string `json:"ip_address"`
	Hostname             string `json:"hostname"`
	TotalVulnerabilities int    `json:"total_vulnerabilities"`
	CriticalCount        int    `json:"critical_count"`
	HighCount            int    `json:"high_count"`
	MediumCount          int    `json:"medium_count"`
	LowCount             int    `json:"low_count"`
	InfoCount            int    `json:"info_count"`
	ZeroDayCount         int    `json:"zero_day_count"`
}

func runGetHosts(_ *cobra.Command, args []string) error {
	client := mustClient()

	data, err := client.Get("/api/v1/reports/" + url.PathEscape(args[0]) + "/hosts")
	if err != nil {
		return err
	}

	var result struct {
		Data  []hostView `json:"data"`
		Total int        `json:"total"`
	}
	if err := unmarshal(data, &result); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(result)
	case outputYAML:
		printYAML(result)
	default:
		t := newTable("IP", "HOSTNAME", "TOTAL", "CRIT", "HIGH", "MED", "LOW", "INFO", "0-DAY")
		for _, h := range result.Data {
			t.AddRow(h.IPAddress, orDash(h.Hostname), strconv.Itoa(h.TotalVulnerabilities),
				strconv.Itoa(h.CriticalCount), strconv.Itoa(h.HighCount), strconv.Itoa(h.MediumCount),
				strconv.Itoa(h.LowCount), strconv.Itoa(h.InfoCount), strconv.Itoa(h.ZeroDayCount))
		}
		t.Flush()
		fmt.Printf("\n%d hosts\n", result.Total)
	}
	return nil
}

type findingView struct {
	HostIP        string   `json:"host_ip"`
	CVEID         string   `json:"cve_id"`
	Name          string   `json:"name"`
	Severity      string   `json:"severity"`
	CVSSScore     *float64 `json:"cvss_score"`
	Port          *int     `json:"port"`
	IsZeroDay     bool     `json:"is_zero_day"`
	IsExploitable bool     `json:"is_exploitable"`
}

func runGetFindings(cmd *cobra.Command, args []string) error {
	client := mustClient()

	params := url.Values{}
	for _, flag := range []struct{ name, param string }{
		{"severity", "severity"},
		{"host-ip", "host_ip"},
		{"zero-day", "is_zero_day"},
		{"exploitable", "is_exploitable"},
	} {
		if v, _ := cmd.Flags().GetString(flag.name); v != "" {
			params.Set(flag.param, v)
		}
	}
	if v, _ := cmd.Flags().GetInt("page"); v > 0 {
		params.Set("page", strconv.Itoa(v))
	}
	if v, _ := cmd.Flags().GetInt("per-page"); v > 0 {
		params.Set("per_page", strconv.Itoa(v))
	}

	data, err := client.Get("/api/v1/reports/" + url.PathEscape(args[0]) + "/findings?" + params.Encode())
	if err != nil {
		return err
	}

	var result listEnvelope[findingView]
	if err := unmarshal(data, &result); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(result)
	case outputYAML:
		printYAML(result)
	default:
		t := newTable("HOST", "CVE", "SEVERITY", "CVSS", "PORT", "0-DAY", "EXPLOITABLE", "NAME")
		for _, f := range result.Data {
			cvss := "-"
			if f.CVSSScore != nil {
				cvss = strconv.FormatFloat(*f.CVSSScore, 'f', 1, 64)
			}
			port := "-"
			if f.Port != nil {
				port = strconv.Itoa(*f.Port)
			}
			t.AddRow(f.HostIP, orDash(f.CVEID), f.Severity, cvss, port,
				boolToStr(f.IsZeroDay), boolToStr(f.IsExploitable), f.Name)
		}
		t.Flush()
		printPagination(result.Total, result.Page, result.PerPage, result.TotalPages)
	}
	return nil
}
