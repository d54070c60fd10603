package tool

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/sastforge/internal/finding"
)

// Semgrep runs the registry's auto-selected rules for any language.
type Semgrep struct{}

type semgrepReport struct {
	Results []json.RawMessage `json:"results"`
}

type semgrepResult struct {
	CheckID string `json:"check_id"`
	Path    string `json:"path"`
	Start   struct {
		Line int `json:"line"`
	} `json:"start"`
	Extra struct {
		Message  string `json:"message"`
		Severity string `json:"severity"` // INFO|WARNING|ERROR
	} `json:"extra"`
}

func (Semgrep) Kind() finding.ToolKind { return finding.ToolSemgrep }

func (Semgrep) Binary() string { return "semgrep" }

func (Semgrep) Args(target, outputPath string) []string {
	return []string{"--config=auto", "--json", "-o", outputPath, target}
}

func (Semgrep) Parse(data []byte) ([]finding.Finding, error) {
	var doc semgrepReport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode semgrep report: %w", err)
	}

	out := make([]finding.Finding, 0, len(doc.Results))
	for i, raw := range doc.Results {
		var r semgrepResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode semgrep result %d: %w", i, err)
		}
		msg := r.Extra.Message
		if msg == "" {
			msg = r.CheckID
		}
		out = append(out, finding.Finding{
			Severity: semgrepSeverity(r.Extra.Severity),
			Message:  orNA(msg),
			FilePath: orNA(filepath.ToSlash(r.Path)),
			Line:     safeLine(r.Start.Line),
			RuleID:   r.CheckID,
			Raw:      raw,
		})
	}
	return out, nil
}

func semgrepSeverity(s string) finding.Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return finding.SeverityHigh
	case "WARNING":
		return finding.SeverityMedium
	case "INFO":
		return finding.SeverityLow
	default:
		return finding.SeverityUnknown
	}
}
