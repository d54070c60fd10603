package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/sastforge/internal/finding"
)

const (
	placeholder = "No suggestion available."
	noFindings  = "No security findings detected."
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	highStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true) // red
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))           // yellow
	lowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))           // cyan
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // gray
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))           // green
)

// Renderer writes a report in one output format.
type Renderer interface {
	Render(w io.Writer, r *Report) error
}

// NewRenderer returns the renderer for format: text, json, or sarif.
func NewRenderer(format string, color bool) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextRenderer(color), nil
	case "json":
		return JSONRenderer{}, nil
	case "sarif":
		return SARIFRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (use text, json, or sarif)", format)
	}
}

// --- Text ---

// TextRenderer writes human-readable output.
type TextRenderer struct {
	color bool
}

// NewTextRenderer creates a text renderer with optional terminal styling.
func NewTextRenderer(color bool) *TextRenderer {
	return &TextRenderer{color: color}
}

func (t *TextRenderer) Render(w io.Writer, r *Report) error {
	if r.NoFindings || len(r.Entries) == 0 {
		_, err := fmt.Fprintln(w, noFindings)
		return err
	}

	fmt.Fprintln(w, t.style(headerStyle, fmt.Sprintf("--- %s Scan Results with LLM Suggestions ---", strings.ToUpper(string(r.Tool)))))
	fmt.Fprintln(w)

	for _, e := range r.Entries {
		f := e.Finding
		fmt.Fprintf(w, "Severity: %s\n", t.severity(f.Severity))
		fmt.Fprintf(w, "Issue: %s\n", f.Message)
		fmt.Fprintf(w, "File: %s:%s\n", f.FilePath, lineOrNA(f))
		if e.Outcome.Kind == Suggested {
			fmt.Fprintf(w, "Suggestion: %s\n\n", e.Outcome.Text)
		} else {
			fmt.Fprintf(w, "Suggestion: %s\n\n", t.style(dimStyle, placeholder))
		}
	}

	suggested, unavailable := r.Counts()
	summary := fmt.Sprintf("Summary: %d findings, %d suggested, %d unavailable (scan %s)",
		len(r.Entries), suggested, unavailable, r.ScanTime.Round(time.Millisecond))
	_, err := fmt.Fprintln(w, t.style(okStyle, summary))
	return err
}

func (t *TextRenderer) severity(s finding.Severity) string {
	switch s {
	case finding.SeverityHigh:
		return t.style(highStyle, s.String())
	case finding.SeverityMedium:
		return t.style(mediumStyle, s.String())
	case finding.SeverityLow:
		return t.style(lowStyle, s.String())
	default:
		return t.style(dimStyle, s.String())
	}
}

func (t *TextRenderer) style(s lipgloss.Style, text string) string {
	if !t.color {
		return text
	}
	return s.Render(text)
}

func lineOrNA(f finding.Finding) string {
	if !f.HasLine() {
		return "N/A"
	}
	return strconv.Itoa(f.Line)
}

// --- JSON ---

// JSONRenderer writes the report as indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Render(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
