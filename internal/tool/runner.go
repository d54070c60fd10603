package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/sastforge/internal/finding"
	"github.com/ppiankov/sastforge/internal/proc"
	"github.com/ppiankov/sastforge/internal/workspace"
)

// Runner invokes analyzers. The zero value is usable.
type Runner struct {
	// Timeout bounds one analyzer run. 0 = bounded only by ctx.
	Timeout time.Duration
	// LookPath resolves analyzer binaries; defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// Run scans ws with the analyzer of the given kind.
//
// The analyzer's exit status is ignored because analyzers exit non-zero when
// they report findings. Success is decided by the report artifact alone: it
// must exist, be non-empty, be written by this invocation, and decode.
func (r *Runner) Run(ctx context.Context, kind finding.ToolKind, ws *workspace.Workspace) (*finding.ScanResult, error) {
	t, err := Lookup(kind)
	if err != nil {
		return nil, err
	}

	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	bin, err := lookPath(t.Binary())
	if err != nil {
		return nil, &ToolNotFoundError{Tool: kind, Binary: t.Binary(), Err: err}
	}

	outPath := filepath.Join(ws.Root, OutputFileName)
	if err := os.Remove(outPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &ScanOutputError{Tool: kind, Path: outPath, Err: fmt.Errorf("remove stale report: %w", err)}
	}

	witness := watchOutput(outPath)
	if witness != nil {
		defer witness.Close()
	}

	slog.Info("running SAST tool", "tool", kind, "path", ws.RepoDir)

	res, err := proc.Run(ctx, proc.Spec{
		Name:    bin,
		Args:    t.Args(ws.RepoDir, outPath),
		Dir:     ws.RepoDir,
		Timeout: r.Timeout,
	})
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &ToolNotFoundError{Tool: kind, Binary: t.Binary(), Err: err}
		}
		return nil, &ScanOutputError{Tool: kind, Path: outPath, Err: err}
	}

	slog.Info("scan completed", "tool", kind, "elapsed", res.Duration.Round(time.Millisecond), "exit_code", res.ExitCode)
	if res.ExitCode != 0 {
		slog.Debug("tool exited non-zero", "tool", kind, "exit_code", res.ExitCode,
			"stderr", truncate(strings.TrimSpace(string(res.Stderr)), 512))
	}

	data, err := readArtifact(outPath, witness, res.Started)
	if err != nil {
		return nil, &ScanOutputError{Tool: kind, Path: outPath, Err: err}
	}

	findings, err := t.Parse(data)
	if err != nil {
		return nil, &ScanOutputError{Tool: kind, Path: outPath, Err: err}
	}
	for i := range findings {
		findings[i].FilePath = relativeTo(ws.RepoDir, findings[i].FilePath)
	}

	return &finding.ScanResult{
		Tool:     kind,
		Findings: findings,
		Elapsed:  res.Duration,
	}, nil
}

func readArtifact(path string, witness *writeWitness, started time.Time) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("report not produced: %w", err)
		}
		return nil, err
	}
	if fi.Size() == 0 {
		return nil, errors.New("report is empty")
	}
	if !isFresh(witness, fi, started) {
		return nil, fmt.Errorf("report predates this run (modified %s)", fi.ModTime().Format(time.RFC3339))
	}
	return os.ReadFile(path)
}

// relativeTo rewrites absolute paths inside root as root-relative.
func relativeTo(root, p string) string {
	if !filepath.IsAbs(filepath.FromSlash(p)) {
		return strings.TrimPrefix(p, "./")
	}
	rel, err := filepath.Rel(root, filepath.FromSlash(p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return filepath.ToSlash(rel)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
