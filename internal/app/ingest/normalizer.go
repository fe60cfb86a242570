package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// RawRow is the canonical shape a CSV record is normalized into before
// classification. All values are raw strings as read from the export.
type RawRow struct {
	HostIP            string
	Hostname          string
	Severity          string
	Name              string
	CVE               string
	CVSS              string
	CVSSVector        string
	PluginID          string
	Port              string
	Protocol          string
	Service           string
	Description       string
	Solution          string
	FixRecommendation string
	PluginFamily      string
	PluginOutput      string
}

// columnAlias binds a canonical field to the ordered list of header
// spellings that scanner vendors use for it. The first alias present in
// the header wins. New vendor formats are supported by extending the
// table, not by adding branches.
type columnAlias struct {
	aliases []string
	set     func(*RawRow, string)
}

var columnAliases = []columnAlias{
	{
		aliases: []string{"host", "ip", "ip address", "host ip"},
		set:     func(r *RawRow, v string) { r.HostIP = v },
	},
	{
		aliases: []string{"hostname", "dns name", "netbios name", "fqdn"},
		set:     func(r *RawRow, v string) { r.Hostname = v },
	},
	{
		aliases: []string{"risk", "severity"},
		set:     func(r *RawRow, v string) { r.Severity = v },
	},
	{
		aliases: []string{"name", "vulnerability", "plugin name", "title"},
		set:     func(r *RawRow, v string) { r.Name = v },
	},
	{
		aliases: []string{"cve", "cve id"},
		set:     func(r *RawRow, v string) { r.CVE = v },
	},
	{
		aliases: []string{"cvss", "cvss score", "cvss v3.0 base score", "cvss v2.0 base score", "cvss base score"},
		set:     func(r *RawRow, v string) { r.CVSS = v },
	},
	{
		aliases: []string{"cvss vector", "cvss v3.0 vector", "cvss v2.0 vector"},
		set:     func(r *RawRow, v string) { r.CVSSVector = v },
	},
	{
		aliases: []string{"plugin id", "plugin"},
		set:     func(r *RawRow, v string) { r.PluginID = v },
	},
	{
		aliases: []string{"port"},
		set:     func(r *RawRow, v string) { r.Port = v },
	},
	{
		aliases: []string{"protocol"},
		set:     func(r *RawRow, v string) { r.Protocol = v },
	},
	{
		aliases: []string{"service", "service name", "svc"},
		set:     func(r *RawRow, v string) { r.Service = v },
	},
	{
		aliases: []string{"description", "synopsis", "summary"},
		set:     func(r *RawRow, v string) { r.Description = v },
	},
	{
		aliases: []string{"solution", "remediation"},
		set:     func(r *RawRow, v string) { r.Solution = v },
	},
	{
		aliases: []string{"fix recommendation", "fix", "see also"},
		set:     func(r *RawRow, v string) { r.FixRecommendation = v },
	},
	{
		aliases: []string{"plugin family", "family"},
		set:     func(r *RawRow, v string) { r.PluginFamily = v },
	},
	{
		aliases: []string{"plugin output", "output"},
		set:     func(r *RawRow, v string) { r.PluginOutput = v },
	},
}

// Normalizer maps heterogeneous CSV records onto the canonical row shape.
// It is built once per upload from the header row and is stateless
// afterwards.
type Normalizer struct {
	// fields pairs each canonical setter with the resolved column index,
	// or -1 when no alias matched the header.
	fields []resolvedField
}

type resolvedField struct {
	index int
	set   func(*RawRow, string)
}

// NewNormalizer resolves the alias table against a header row. Header
// names are matched case-insensitively; unrecognized columns are ignored.
func NewNormalizer(header []string) *Normalizer {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, taken := index[key]; !taken {
			index[key] = i
		}
	}

	fields := make([]resolvedField, 0, len(columnAliases))
	for _, col := range columnAliases {
		idx := -1
		for _, alias := range col.aliases {
			if i, ok := index[alias]; ok {
				idx = i
				break
			}
		}
		fields = append(fields, resolvedField{index: idx, set: col.set})
	}

	return &Normalizer{fields: fields}
}

// Normalize maps one CSV record onto a RawRow. The second return value
// is false when the row is unusable: host IP, severity, or name missing
// after alias resolution. Unusable rows are skipped, never errors.
func (n *Normalizer) Normalize(record []string) (RawRow, bool) {
	var row RawRow
	for _, f := range n.fields {
		if f.index < 0 || f.index >= len(record) {
			continue
		}
		f.set(&row, strings.TrimSpace(record[f.index]))
	}

	if row.HostIP == "" || row.Severity == "" || row.Name == "" {
		return RawRow{}, false
	}

	return row, true
}

var cvePattern = regexp.MustCompile(`(?i)CVE-\d{4}-\d+`)

// ExtractCVE scans a cell for a CVE identifier and normalizes the match
// to upper case. No match yields the empty string; an identifier is
// never fabricated.
func ExtractCVE(s string) string {
	match := cvePattern.FindString(s)
	if match == "" {
		return ""
	}
	return strings.ToUpper(match)
}

// ParsePort parses a port cell. Parse failures and non-positive values
// yield nil rather than an error.
func ParsePort(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
