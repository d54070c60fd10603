// Package workspace acquires a throwaway working copy of a remote repository.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/sastforge/internal/proc"
)

const repoSubdir = "repo"

// AcquisitionError reports a failed clone. It is fatal for the invocation.
type AcquisitionError struct {
	URL    string
	Reason string // classified from git stderr, may be empty
	Err    error
}

func (e *AcquisitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("acquire %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("acquire %s: %v", e.URL, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Options controls how a repository is cloned.
type Options struct {
	Git     string        // git binary, default "git"
	Depth   int           // 0 = full history
	Timeout time.Duration // 0 = bounded only by ctx
	TempDir string        // parent for the workspace, default os.TempDir()
}

// Workspace is an ephemeral directory holding one cloned repository.
// It is owned by a single pipeline invocation; Close removes everything.
type Workspace struct {
	Root    string // temp directory, also holds tool output artifacts
	RepoDir string // the working copy
	URL     string

	once     sync.Once
	closeErr error
}

// Acquire clones repoURL into a fresh temporary directory.
// On failure the directory is removed before returning an *AcquisitionError.
func Acquire(ctx context.Context, repoURL string, opts Options) (*Workspace, error) {
	root, err := os.MkdirTemp(opts.TempDir, "sastforge-*")
	if err != nil {
		return nil, &AcquisitionError{URL: repoURL, Err: fmt.Errorf("create workspace: %w", err)}
	}

	ws := &Workspace{
		Root:    root,
		RepoDir: filepath.Join(root, repoSubdir),
		URL:     repoURL,
	}

	if err := ws.clone(ctx, opts); err != nil {
		if cerr := ws.Close(); cerr != nil {
			slog.Warn("workspace cleanup failed", "path", root, "error", cerr)
		}
		return nil, err
	}
	return ws, nil
}

func (ws *Workspace) clone(ctx context.Context, opts Options) error {
	git := opts.Git
	if git == "" {
		git = "git"
	}

	args := []string{"clone", "--quiet"}
	if opts.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(opts.Depth))
	}
	args = append(args, "--", ws.URL, ws.RepoDir)

	slog.Info("cloning repository", "repo", ws.URL, "path", ws.RepoDir)

	classifier := newStderrClassifier(nil)
	res, err := proc.Run(ctx, proc.Spec{
		Name:    git,
		Args:    args,
		Dir:     ws.Root,
		Env:     []string{"GIT_TERMINAL_PROMPT=0"}, // fail instead of prompting for credentials
		Timeout: opts.Timeout,
		Stderr:  classifier,
	})
	if err != nil {
		return &AcquisitionError{URL: ws.URL, Reason: classifier.Reason(), Err: err}
	}
	if res.ExitCode != 0 {
		return &AcquisitionError{
			URL:    ws.URL,
			Reason: classifier.Reason(),
			Err:    fmt.Errorf("git clone exited %d: %s", res.ExitCode, strings.TrimSpace(string(res.Stderr))),
		}
	}

	if fi, err := os.Stat(filepath.Join(ws.RepoDir, ".git")); err != nil || !fi.IsDir() {
		return &AcquisitionError{URL: ws.URL, Err: errors.New("clone produced no .git directory")}
	}

	slog.Info("clone complete", "repo", ws.URL, "elapsed", res.Duration.Round(time.Millisecond))
	return nil
}

// Close removes the workspace and everything written into it.
// Safe to call more than once.
func (ws *Workspace) Close() error {
	ws.once.Do(func() {
		ws.closeErr = os.RemoveAll(ws.Root)
		if ws.closeErr == nil {
			slog.Debug("workspace removed", "path", ws.Root)
		}
	})
	return ws.closeErr
}
