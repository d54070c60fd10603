package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ppiankov/sastforge/internal/tool"
	"github.com/ppiankov/sastforge/internal/workspace"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("boom"), 1},
		{"acquisition", &workspace.AcquisitionError{URL: "https://x.invalid/r.git", Reason: "dns"}, 2},
		{"wrapped acquisition", fmt.Errorf("run: %w", &workspace.AcquisitionError{URL: "u"}), 2},
		{"unsupported tool", &tool.UnsupportedToolError{Tool: "trivy"}, 3},
		{"tool missing", &tool.ToolNotFoundError{Tool: "bandit", Binary: "bandit"}, 3},
		{"bad output", &tool.ScanOutputError{Tool: "semgrep", Path: "/tmp/out.json"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode = %d, want %d", got, tt.want)
			}
		})
	}
}
