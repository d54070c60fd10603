package finding

import (
	"encoding/json"
	"testing"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"LOW", SeverityLow},
		{"medium", SeverityMedium},
		{" High ", SeverityHigh},
		{"critical", SeverityUnknown},
		{"", SeverityUnknown},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.in); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSeverity_JSON(t *testing.T) {
	data, err := json.Marshal(Finding{Severity: SeverityHigh, Message: "m", FilePath: "a.py"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["severity"] != "HIGH" {
		t.Errorf("severity = %v, want HIGH", m["severity"])
	}
	if _, ok := m["line_number"]; ok {
		t.Error("line_number should be omitted for file-level findings")
	}
}

func TestFinding_Location(t *testing.T) {
	f := Finding{FilePath: "app.py", Line: 42}
	if got := f.Location(); got != "app.py:42" {
		t.Errorf("Location = %q, want app.py:42", got)
	}
	f.Line = 0
	if f.HasLine() {
		t.Error("HasLine should be false for line 0")
	}
	if got := f.Location(); got != "app.py" {
		t.Errorf("Location = %q, want app.py", got)
	}
}
