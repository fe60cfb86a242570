package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnreport/api/pkg/domain/finding"
)

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected finding.Severity
		ok       bool
	}{
		{name: "critical passes through", input: "critical", expected: finding.SeverityCritical, ok: true},
		{name: "mixed case high", input: "High", expected: finding.SeverityHigh, ok: true},
		{name: "upper case medium", input: "MEDIUM", expected: finding.SeverityMedium, ok: true},
		{name: "padded low", input: "  low ", expected: finding.SeverityLow, ok: true},
		{name: "info collapses", input: "info", expected: finding.SeverityInfo, ok: true},
		{name: "informational collapses", input: "Informational", expected: finding.SeverityInfo, ok: true},
		{name: "information collapses", input: "information", expected: finding.SeverityInfo, ok: true},
		{name: "unknown value rejected", input: "urgent", ok: false},
		{name: "empty rejected", input: "", ok: false},
		{name: "numeric rejected", input: "5", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeSeverity(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestParseCVSS(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{name: "valid score", input: "7.5", expected: floatPtr(7.5)},
		{name: "zero accepted", input: "0", expected: floatPtr(0)},
		{name: "ten accepted", input: "10", expected: floatPtr(10)},
		{name: "out of range rejected", input: "15", expected: nil},
		{name: "negative rejected", input: "-1", expected: nil},
		{name: "not a number", input: "high", expected: nil},
		{name: "empty", input: "", expected: nil},
		{name: "infinity rejected", input: "Inf", expected: nil},
		{name: "nan rejected", input: "NaN", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCVSS(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.InDelta(t, *tt.expected, *got, 0.0001)
			}
		})
	}
}

func TestExtractCVE(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain id", input: "CVE-2021-44228", expected: "CVE-2021-44228"},
		{name: "lower case normalized", input: "cve-2021-44228 (see advisory)", expected: "CVE-2021-44228"},
		{name: "embedded in text", input: "fixed in CVE-2023-1234 advisory", expected: "CVE-2023-1234"},
		{name: "no pattern", input: "no identifier assigned", expected: ""},
		{name: "empty cell", input: "", expected: ""},
		{name: "partial pattern not matched", input: "CVE-123", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractCVE(tt.input))
		})
	}
}

func TestClassifierIsZeroDay(t *testing.T) {
	c := NewClassifier(2024)

	tests := []struct {
		name        string
		cveID       string
		findingName string
		description string
		expected    bool
	}{
		{
			name:     "recent CVE alone",
			cveID:    "CVE-2024-12345",
			expected: true,
		},
		{
			name:        "old CVE with plain description",
			cveID:       "CVE-2019-0001",
			description: "standard misconfiguration",
			expected:    false,
		},
		{
			name:        "no CVE but disclosure language",
			description: "zero-day exploit observed in the wild",
			expected:    true,
		},
		{
			name:     "no CVE and no language",
			expected: false,
		},
		{
			name:        "0-day spelling",
			description: "a 0-day in the parser",
			expected:    true,
		},
		{
			name:        "recently disclosed phrase",
			findingName: "Recently Disclosed RCE",
			expected:    true,
		},
		{
			name:        "newly discovered phrase",
			description: "Newly Discovered weakness",
			expected:    true,
		},
		{
			name:     "threshold year boundary below",
			cveID:    "CVE-2023-9999",
			expected: false,
		},
		{
			name:     "year above threshold",
			cveID:    "CVE-2025-1",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.IsZeroDay(tt.cveID, tt.findingName, tt.description))
		})
	}
}

func TestIsExploitable(t *testing.T) {
	tests := []struct {
		name        string
		findingName string
		description string
		expected    bool
	}{
		{name: "rce in name", findingName: "Apache RCE", expected: true},
		{name: "sql injection in description", description: "blind SQL Injection in login", expected: true},
		{name: "privilege escalation", description: "local Privilege Escalation", expected: true},
		{name: "buffer overflow", findingName: "stack buffer overflow", expected: true},
		{name: "exploit available", description: "public exploit available", expected: true},
		{name: "arbitrary code", description: "allows arbitrary code execution", expected: true},
		{name: "no signal", findingName: "SSL certificate expired", description: "renew the certificate", expected: false},
		{name: "empty", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsExploitable(tt.findingName, tt.description))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier(2024)
	row := RawRow{
		HostIP:      "10.0.0.1",
		Severity:    "High",
		Name:        "Remote Code Execution in demo service",
		CVE:         "cve-2024-1111",
		CVSS:        "9.8",
		Description: "zero-day exploit observed",
	}

	first, ok := c.Classify(row)
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		again, ok := c.Classify(row)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}

	assert.Equal(t, finding.SeverityHigh, first.Severity)
	assert.Equal(t, "CVE-2024-1111", first.CVEID)
	assert.True(t, first.IsZeroDay)
	assert.True(t, first.IsExploitable)
	require.NotNil(t, first.CVSSScore)
	assert.InDelta(t, 9.8, *first.CVSSScore, 0.0001)
}

func TestClassifyRejectsUnknownSeverity(t *testing.T) {
	c := NewClassifier(2024)
	_, ok := c.Classify(RawRow{HostIP: "10.0.0.1", Severity: "urgent", Name: "x"})
	assert.False(t, ok)
}

func floatPtr(f float64) *float64 { return &f }
