// Package tool runs external SAST analyzers against a workspace and
// normalizes their JSON reports into findings.
package tool

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/sastforge/internal/finding"
)

// OutputFileName is the report artifact written by every tool, relative to
// the workspace root.
const OutputFileName = "sast_results.json"

// notAvailable fills required finding fields the tool left empty.
const notAvailable = "N/A"

// Tool describes how to invoke one analyzer and decode its report.
// Adding an analyzer means implementing Tool and registering it.
type Tool interface {
	Kind() finding.ToolKind
	Binary() string
	// Args returns the command-line arguments that scan target and write a
	// JSON report to outputPath.
	Args(target, outputPath string) []string
	// Parse decodes the report artifact in the tool's own result order.
	Parse(data []byte) ([]finding.Finding, error)
}

var registry = map[finding.ToolKind]Tool{}

// Register adds t to the set of supported tools, replacing any tool of the same kind.
func Register(t Tool) {
	registry[t.Kind()] = t
}

func init() {
	Register(Bandit{})
	Register(Semgrep{})
}

// Lookup returns the tool for kind.
func Lookup(kind finding.ToolKind) (Tool, error) {
	t, ok := registry[kind]
	if !ok {
		return nil, &UnsupportedToolError{Tool: string(kind)}
	}
	return t, nil
}

// ParseToolKind resolves a user-supplied tool name, case-insensitively.
func ParseToolKind(name string) (finding.ToolKind, error) {
	kind := finding.ToolKind(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := registry[kind]; !ok {
		return "", &UnsupportedToolError{Tool: name}
	}
	return kind, nil
}

// Supported returns the registered tool kinds in sorted order.
func Supported() []finding.ToolKind {
	kinds := make([]finding.ToolKind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// UnsupportedToolError is returned for a tool outside the registry.
// No process is spawned when it occurs.
type UnsupportedToolError struct {
	Tool string
}

func (e *UnsupportedToolError) Error() string {
	names := make([]string, 0, len(registry))
	for _, k := range Supported() {
		names = append(names, string(k))
	}
	return fmt.Sprintf("unsupported SAST tool %q (supported: %s)", e.Tool, strings.Join(names, ", "))
}

// ToolNotFoundError means the analyzer binary is not installed.
type ToolNotFoundError struct {
	Tool   finding.ToolKind
	Binary string
	Err    error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s: executable %q not found, install it before running", e.Tool, e.Binary)
}

func (e *ToolNotFoundError) Unwrap() error { return e.Err }

// ScanOutputError means the analyzer ran but its report is missing, stale,
// or cannot be decoded.
type ScanOutputError struct {
	Tool finding.ToolKind
	Path string
	Err  error
}

func (e *ScanOutputError) Error() string {
	return fmt.Sprintf("%s output %s: %v", e.Tool, e.Path, e.Err)
}

func (e *ScanOutputError) Unwrap() error { return e.Err }

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
