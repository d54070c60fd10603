// Package proc runs external programs (git, SAST analyzers) in their own
// process group with a sanitized environment and an optional wall-clock limit.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// ErrTimeout is returned when the command exceeded Spec.Timeout.
var ErrTimeout = errors.New("command timed out")

// Spec describes one command invocation.
type Spec struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string      // appended to the sanitized environment
	Timeout time.Duration // 0 = bounded only by ctx
	Stderr  io.Writer     // optional tee for stderr
}

// Result holds the outcome of a command that actually ran.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Started  time.Time
	Duration time.Duration
}

// Run executes the command and waits for it.
//
// A non-zero exit code is not an error: the Result carries ExitCode so the
// caller decides what it means. Errors are returned only when the process
// could not be started, was cancelled, or timed out.
func Run(ctx context.Context, spec Spec) (*Result, error) {
	if spec.Name == "" {
		return nil, errors.New("command is required")
	}

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	setupProcessGroup(cmd)
	cmd.Dir = spec.Dir
	cmd.Env = append(SanitizedEnv(), spec.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if spec.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, spec.Stderr)
	} else {
		cmd.Stderr = &stderr
	}

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Started:  start,
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%s: %w", spec.Name, ErrTimeout)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return res, fmt.Errorf("%s: %w", spec.Name, context.Canceled)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("start %s: %w", spec.Name, err)
}
