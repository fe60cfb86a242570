package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/vulnreport/api/pkg/domain/finding"
)

// Classification holds the derived attributes of one normalized row.
type Classification struct {
	Severity      finding.Severity
	CVEID         string
	CVSSScore     *float64
	IsZeroDay     bool
	IsExploitable bool
}

// Classifier derives severity, CVE, zero-day, and exploitability
// attributes from normalized rows. All classification is pure string and
// number inspection; the classifier never fails, it only rejects rows
// whose severity cannot be normalized.
type Classifier struct {
	zeroDayYearThreshold int
}

// NewClassifier creates a classifier. Findings whose CVE year is at or
// above yearThreshold count as recently disclosed.
func NewClassifier(yearThreshold int) *Classifier {
	if yearThreshold <= 0 {
		yearThreshold = DefaultZeroDayYearThreshold
	}
	return &Classifier{zeroDayYearThreshold: yearThreshold}
}

// Classify derives the classification of one row. The second return
// value is false when the severity value is unrecognized; such rows are
// skipped, never coerced to a default bucket.
func (c *Classifier) Classify(row RawRow) (Classification, bool) {
	severity, ok := NormalizeSeverity(row.Severity)
	if !ok {
		return Classification{}, false
	}

	cveID := ExtractCVE(row.CVE)

	return Classification{
		Severity:      severity,
		CVEID:         cveID,
		CVSSScore:     ParseCVSS(row.CVSS),
		IsZeroDay:     c.IsZeroDay(cveID, row.Name, row.Description),
		IsExploitable: IsExploitable(row.Name, row.Description),
	}, true
}

// NormalizeSeverity maps a raw scanner severity onto a canonical bucket.
// The info spellings collapse to informational; anything else is
// rejected.
func NormalizeSeverity(raw string) (finding.Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return finding.SeverityCritical, true
	case "high":
		return finding.SeverityHigh, true
	case "medium":
		return finding.SeverityMedium, true
	case "low":
		return finding.SeverityLow, true
	case "info", "informational", "information":
		return finding.SeverityInfo, true
	default:
		return "", false
	}
}

// ParseCVSS parses a CVSS score cell. Only finite values within [0, 10]
// are accepted; everything else yields nil.
func ParseCVSS(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 10 {
		return nil
	}
	return &f
}

// zeroDayPhrases are disclosure-language markers searched for in the
// vulnerability name and description.
var zeroDayPhrases = []string{
	"zero-day",
	"zero day",
	"0-day",
	"recently disclosed",
	"newly discovered",
}

// exploitPhrases mark a finding as having a known exploitation vector.
var exploitPhrases = []string{
	"remote code execution",
	"rce",
	"privilege escalation",
	"buffer overflow",
	"sql injection",
	"code injection",
	"arbitrary code",
	"exploit available",
}

// IsZeroDay reports whether a finding looks recently disclosed: either
// its CVE year is at or above the threshold, or its free text carries
// disclosure language. A missing CVE never counts as recent by itself.
func (c *Classifier) IsZeroDay(cveID, name, description string) bool {
	if year, ok := cveYear(cveID); ok && year >= c.zeroDayYearThreshold {
		return true
	}
	return containsAny(name+" "+description, zeroDayPhrases)
}

// IsExploitable reports whether the finding's free text mentions a known
// exploitation technique.
func IsExploitable(name, description string) bool {
	return containsAny(name+" "+description, exploitPhrases)
}

// cveYear extracts the 4-digit year group from a CVE identifier.
func cveYear(cveID string) (int, bool) {
	if len(cveID) < 8 || !strings.HasPrefix(cveID, "CVE-") {
		return 0, false
	}
	year, err := strconv.Atoi(cveID[4:8])
	if err != nil {
		return 0, false
	}
	return year, true
}

func containsAny(text string, phrases []string) bool {
	text = strings.ToLower(text)
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
