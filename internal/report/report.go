// Package report pairs each finding with a remediation outcome and renders
// the combined result.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ppiankov/sastforge/internal/finding"
	"github.com/ppiankov/sastforge/internal/remediate"
)

// OutcomeKind says whether a suggestion was obtained.
type OutcomeKind int

const (
	Unavailable OutcomeKind = iota
	Suggested
)

func (k OutcomeKind) String() string {
	if k == Suggested {
		return "suggested"
	}
	return "unavailable"
}

func (k OutcomeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Outcome is the remediation result for one finding.
type Outcome struct {
	Kind   OutcomeKind `json:"status"`
	Text   string      `json:"text,omitempty"`   // set when Suggested
	Reason string      `json:"reason,omitempty"` // set when Unavailable
}

// Entry pairs a finding with its outcome.
type Entry struct {
	Finding finding.Finding `json:"finding"`
	Outcome Outcome         `json:"outcome"`
}

// Report is the ordered result of one pipeline invocation.
// Entries follow the tool's finding order.
type Report struct {
	RunID      string           `json:"run_id,omitempty"`
	Repo       string           `json:"repo,omitempty"`
	Tool       finding.ToolKind `json:"tool"`
	ScanTime   time.Duration    `json:"scan_elapsed"`
	Entries    []Entry          `json:"entries"`
	NoFindings bool             `json:"no_findings"`
}

// Counts returns how many entries were suggested and unavailable.
func (r *Report) Counts() (suggested, unavailable int) {
	for _, e := range r.Entries {
		if e.Outcome.Kind == Suggested {
			suggested++
		} else {
			unavailable++
		}
	}
	return
}

// MarshalJSON keeps entries as [] rather than null for empty reports.
func (r *Report) MarshalJSON() ([]byte, error) {
	type alias Report
	a := alias(*r)
	if a.Entries == nil {
		a.Entries = []Entry{}
	}
	return json.Marshal(a)
}

// Suggester produces a remediation suggestion for one finding.
type Suggester interface {
	Suggest(ctx context.Context, f finding.Finding) (string, error)
}

// SuggesterFunc adapts a function to Suggester.
type SuggesterFunc func(ctx context.Context, f finding.Finding) (string, error)

func (fn SuggesterFunc) Suggest(ctx context.Context, f finding.Finding) (string, error) {
	return fn(ctx, f)
}

// Assembler drives the suggester once per finding.
type Assembler struct {
	Suggester Suggester
	// OnEntry, when set, is called after each finding is processed.
	OnEntry func(index, total int, e Entry)
	// Observe, when set, wraps each suggestion call (used for tracing).
	Observe func(ctx context.Context, f finding.Finding, call func(context.Context) Outcome) Outcome
}

// Assemble builds the report for scan. Suggestion failures are recorded as
// Unavailable for that finding only and never returned.
func (a *Assembler) Assemble(ctx context.Context, scan *finding.ScanResult) *Report {
	rep := &Report{
		Tool:     scan.Tool,
		ScanTime: scan.Elapsed,
		Entries:  make([]Entry, 0, len(scan.Findings)),
	}
	if len(scan.Findings) == 0 {
		rep.NoFindings = true
		return rep
	}

	total := len(scan.Findings)
	for i, f := range scan.Findings {
		call := func(ctx context.Context) Outcome { return a.suggest(ctx, f) }
		var out Outcome
		if a.Observe != nil {
			out = a.Observe(ctx, f, call)
		} else {
			out = call(ctx)
		}

		e := Entry{Finding: f, Outcome: out}
		rep.Entries = append(rep.Entries, e)
		if a.OnEntry != nil {
			a.OnEntry(i, total, e)
		}
	}
	return rep
}

func (a *Assembler) suggest(ctx context.Context, f finding.Finding) Outcome {
	if a.Suggester == nil {
		return Outcome{Kind: Unavailable, Reason: "no remediation client configured"}
	}

	text, err := a.Suggester.Suggest(ctx, f)
	if err != nil {
		var remErr *remediate.RemediationError
		switch {
		case errors.As(err, &remErr):
			slog.Warn("remediation failed", "finding", f.Location(), "status", remErr.Status, "body", remErr.Body)
		case errors.Is(err, remediate.ErrUnavailable):
			slog.Warn("remediation service unavailable", "finding", f.Location(), "error", err)
		default:
			slog.Error("unexpected remediation error", "finding", f.Location(), "error", err)
		}
		return Outcome{Kind: Unavailable, Reason: err.Error()}
	}
	if text == "" {
		return Outcome{Kind: Unavailable, Reason: "empty suggestion"}
	}
	return Outcome{Kind: Suggested, Text: text}
}
