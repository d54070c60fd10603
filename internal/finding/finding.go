// Package finding holds the normalized data model shared by the scanner,
// the remediation client, and the report renderers.
package finding

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Severity represents the importance level of a finding.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a tool severity string to Severity.
// Returns SeverityUnknown if unrecognized.
func ParseSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return SeverityLow
	case "MEDIUM":
		return SeverityMedium
	case "HIGH":
		return SeverityHigh
	default:
		return SeverityUnknown
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	*s = ParseSeverity(string(b))
	return nil
}

// Finding is one normalized security issue reported by a SAST tool.
// Findings are built by the tool parsers and not modified afterwards.
type Finding struct {
	Severity Severity        `json:"severity"`
	Message  string          `json:"message"`
	FilePath string          `json:"file_path"`
	Line     int             `json:"line_number,omitempty"` // 0 = file-level finding
	RuleID   string          `json:"rule_id,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// HasLine reports whether the tool attached a line number.
func (f *Finding) HasLine() bool {
	return f.Line > 0
}

// Location returns "file:line", or just the file for file-level findings.
func (f *Finding) Location() string {
	if !f.HasLine() {
		return f.FilePath
	}
	return f.FilePath + ":" + strconv.Itoa(f.Line)
}

// ToolKind identifies a supported SAST tool.
type ToolKind string

const (
	ToolBandit  ToolKind = "bandit"
	ToolSemgrep ToolKind = "semgrep"
)

func (k ToolKind) String() string { return string(k) }

// ScanResult is the outcome of one successful tool invocation.
// An empty Findings slice means the tool found no issues.
type ScanResult struct {
	Tool     ToolKind      `json:"tool"`
	Findings []Finding     `json:"findings"`
	Elapsed  time.Duration `json:"elapsed"`
}
