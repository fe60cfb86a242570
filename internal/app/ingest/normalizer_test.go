package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizerAliasResolution(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		record []string
		check  func(t *testing.T, row RawRow)
	}{
		{
			name:   "nessus style headers",
			header: []string{"Host", "Risk", "Name", "CVE", "Port"},
			record: []string{"10.0.0.1", "High", "Weak cipher", "CVE-2020-1", "443"},
			check: func(t *testing.T, row RawRow) {
				assert.Equal(t, "10.0.0.1", row.HostIP)
				assert.Equal(t, "High", row.Severity)
				assert.Equal(t, "Weak cipher", row.Name)
				assert.Equal(t, "CVE-2020-1", row.CVE)
				assert.Equal(t, "443", row.Port)
			},
		},
		{
			name:   "lower case vendor headers",
			header: []string{"ip", "severity", "vulnerability", "description"},
			record: []string{"192.168.1.5", "low", "Banner disclosure", "server banner visible"},
			check: func(t *testing.T, row RawRow) {
				assert.Equal(t, "192.168.1.5", row.HostIP)
				assert.Equal(t, "low", row.Severity)
				assert.Equal(t, "Banner disclosure", row.Name)
				assert.Equal(t, "server banner visible", row.Description)
			},
		},
		{
			name:   "first alias wins over later one",
			header: []string{"Host", "IP", "Risk", "Name"},
			record: []string{"10.0.0.1", "10.9.9.9", "Low", "x"},
			check: func(t *testing.T, row RawRow) {
				assert.Equal(t, "10.0.0.1", row.HostIP)
			},
		},
		{
			name:   "unrecognized columns ignored",
			header: []string{"Host", "Risk", "Name", "Vendor Internal Field"},
			record: []string{"10.0.0.1", "Medium", "x", "junk"},
			check: func(t *testing.T, row RawRow) {
				assert.Equal(t, "10.0.0.1", row.HostIP)
				assert.Equal(t, "Medium", row.Severity)
			},
		},
		{
			name:   "values trimmed",
			header: []string{"Host", "Risk", "Name"},
			record: []string{"  10.0.0.1  ", " High ", " Finding "},
			check: func(t *testing.T, row RawRow) {
				assert.Equal(t, "10.0.0.1", row.HostIP)
				assert.Equal(t, "High", row.Severity)
				assert.Equal(t, "Finding", row.Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(tt.header)
			row, ok := n.Normalize(tt.record)
			require.True(t, ok)
			tt.check(t, row)
		})
	}
}

func TestNormalizeUnusableRows(t *testing.T) {
	n := NewNormalizer([]string{"Host", "Risk", "Name"})

	tests := []struct {
		name   string
		record []string
	}{
		{name: "missing ip", record: []string{"", "High", "x"}},
		{name: "missing severity", record: []string{"10.0.0.1", "", "x"}},
		{name: "missing name", record: []string{"10.0.0.1", "High", ""}},
		{name: "whitespace only name", record: []string{"10.0.0.1", "High", "   "}},
		{name: "short record", record: []string{"10.0.0.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := n.Normalize(tt.record)
			assert.False(t, ok)
		})
	}
}

func TestNormalizeTolerantOfRaggedRecords(t *testing.T) {
	n := NewNormalizer([]string{"Host", "Risk", "Name", "Port"})

	// Record longer than the header.
	row, ok := n.Normalize([]string{"10.0.0.1", "High", "x", "80", "extra"})
	require.True(t, ok)
	assert.Equal(t, "80", row.Port)
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *int
	}{
		{name: "valid port", input: "443", expected: intPtr(443)},
		{name: "zero rejected", input: "0", expected: nil},
		{name: "negative rejected", input: "-1", expected: nil},
		{name: "not numeric", input: "https", expected: nil},
		{name: "empty", input: "", expected: nil},
		{name: "padded", input: " 8080 ", expected: intPtr(8080)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePort(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.expected, *got)
			}
		})
	}
}

func intPtr(i int) *int { return &i }
