package tool

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/sastforge/internal/finding"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestBandit_Parse(t *testing.T) {
	findings, err := Bandit{}.Parse(readFixture(t, "bandit.json"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(findings) != 3 {
		t.Fatalf("findings = %d, want 3", len(findings))
	}

	f := findings[0]
	if f.Severity != finding.SeverityHigh {
		t.Errorf("severity = %v, want HIGH", f.Severity)
	}
	if f.Message != "hardcoded password" {
		t.Errorf("message = %q", f.Message)
	}
	if f.FilePath != "./app.py" || f.Line != 42 {
		t.Errorf("location = %s:%d", f.FilePath, f.Line)
	}
	if f.RuleID != "B105" {
		t.Errorf("rule = %q, want B105", f.RuleID)
	}

	var raw map[string]any
	if err := json.Unmarshal(f.Raw, &raw); err != nil {
		t.Fatalf("raw payload not preserved: %v", err)
	}
	if raw["issue_confidence"] != "MEDIUM" {
		t.Errorf("raw issue_confidence = %v", raw["issue_confidence"])
	}

	if findings[1].Severity != finding.SeverityLow {
		t.Errorf("second severity = %v, want LOW", findings[1].Severity)
	}

	// missing issue_text falls back to test_name, undefined severity is UNKNOWN
	last := findings[2]
	if last.Message != "file_level_check" {
		t.Errorf("fallback message = %q", last.Message)
	}
	if last.Severity != finding.SeverityUnknown {
		t.Errorf("severity = %v, want UNKNOWN", last.Severity)
	}
	if last.HasLine() {
		t.Errorf("expected file-level finding, got line %d", last.Line)
	}
}

func TestSemgrep_Parse(t *testing.T) {
	findings, err := Semgrep{}.Parse(readFixture(t, "semgrep.json"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(findings) != 3 {
		t.Fatalf("findings = %d, want 3", len(findings))
	}

	want := []struct {
		sev  finding.Severity
		path string
		line int
	}{
		{finding.SeverityMedium, "server.js", 17},
		{finding.SeverityHigh, "app.py", 3},
		{finding.SeverityLow, "config.yml", 9},
	}
	for i, w := range want {
		f := findings[i]
		if f.Severity != w.sev || f.FilePath != w.path || f.Line != w.line {
			t.Errorf("finding %d = %v %s:%d, want %v %s:%d", i, f.Severity, f.FilePath, f.Line, w.sev, w.path, w.line)
		}
	}
	if findings[2].Message != "generic.secrets.gitleaks.generic-api-key" {
		t.Errorf("empty message should fall back to check_id, got %q", findings[2].Message)
	}
}

func TestParse_Empty(t *testing.T) {
	for _, tl := range []Tool{Bandit{}, Semgrep{}} {
		findings, err := tl.Parse([]byte(`{"results": []}`))
		if err != nil {
			t.Fatalf("%s: %v", tl.Kind(), err)
		}
		if len(findings) != 0 {
			t.Errorf("%s: findings = %d, want 0", tl.Kind(), len(findings))
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	inputs := []string{`not json`, `[1,2,3]`, `{"results": "nope"}`, `{"results": [42]}`}
	for _, tl := range []Tool{Bandit{}, Semgrep{}} {
		for _, in := range inputs {
			if _, err := tl.Parse([]byte(in)); err == nil {
				t.Errorf("%s: expected error for %q", tl.Kind(), in)
			}
		}
	}
}

func TestSemgrepSeverity(t *testing.T) {
	tests := map[string]finding.Severity{
		"ERROR":   finding.SeverityHigh,
		"warning": finding.SeverityMedium,
		"INFO":    finding.SeverityLow,
		"":        finding.SeverityUnknown,
		"CRAZY":   finding.SeverityUnknown,
	}
	for in, want := range tests {
		if got := semgrepSeverity(in); got != want {
			t.Errorf("semgrepSeverity(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestArgs(t *testing.T) {
	b := Bandit{}.Args("/ws/repo", "/ws/out.json")
	wantB := []string{"-r", "/ws/repo", "-f", "json", "-o", "/ws/out.json"}
	if len(b) != len(wantB) {
		t.Fatalf("bandit args = %v", b)
	}
	for i := range b {
		if b[i] != wantB[i] {
			t.Errorf("bandit arg %d = %q, want %q", i, b[i], wantB[i])
		}
	}

	s := Semgrep{}.Args("/ws/repo", "/ws/out.json")
	if s[0] != "--config=auto" || s[len(s)-1] != "/ws/repo" {
		t.Errorf("semgrep args = %v", s)
	}
}

func TestParseToolKind(t *testing.T) {
	if k, err := ParseToolKind("Bandit"); err != nil || k != finding.ToolBandit {
		t.Errorf("ParseToolKind(Bandit) = %q, %v", k, err)
	}
	if k, err := ParseToolKind("semgrep"); err != nil || k != finding.ToolSemgrep {
		t.Errorf("ParseToolKind(semgrep) = %q, %v", k, err)
	}
	if _, err := ParseToolKind("trivy"); err == nil {
		t.Error("expected error for trivy")
	}
}
