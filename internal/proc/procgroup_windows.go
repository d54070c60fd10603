//go:build windows

package proc

import "os/exec"

// setupProcessGroup is a no-op on Windows where Setpgid is unavailable.
// The default exec.CommandContext cancel (kill the direct child) is used instead.
func setupProcessGroup(cmd *exec.Cmd) {}
