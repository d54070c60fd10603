package tool

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ppiankov/sastforge/internal/finding"
)

// Bandit scans Python code.
type Bandit struct{}

type banditReport struct {
	Results []json.RawMessage `json:"results"`
}

type banditResult struct {
	Filename        string `json:"filename"`
	IssueText       string `json:"issue_text"`
	IssueSeverity   string `json:"issue_severity"`
	IssueConfidence string `json:"issue_confidence"`
	LineNumber      int    `json:"line_number"`
	TestID          string `json:"test_id"`
	TestName        string `json:"test_name"`
}

func (Bandit) Kind() finding.ToolKind { return finding.ToolBandit }

func (Bandit) Binary() string { return "bandit" }

func (Bandit) Args(target, outputPath string) []string {
	return []string{"-r", target, "-f", "json", "-o", outputPath}
}

func (Bandit) Parse(data []byte) ([]finding.Finding, error) {
	var doc banditReport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode bandit report: %w", err)
	}

	out := make([]finding.Finding, 0, len(doc.Results))
	for i, raw := range doc.Results {
		var r banditResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode bandit result %d: %w", i, err)
		}
		msg := r.IssueText
		if msg == "" {
			msg = r.TestName
		}
		out = append(out, finding.Finding{
			Severity: finding.ParseSeverity(r.IssueSeverity),
			Message:  orNA(msg),
			FilePath: orNA(filepath.ToSlash(r.Filename)),
			Line:     safeLine(r.LineNumber),
			RuleID:   r.TestID,
			Raw:      raw,
		})
	}
	return out, nil
}

func safeLine(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
