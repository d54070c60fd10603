package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/sastforge/internal/cli"
	"github.com/ppiankov/sastforge/internal/tool"
	"github.com/ppiankov/sastforge/internal/workspace"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps fatal pipeline errors to distinct process exit codes.
func exitCode(err error) int {
	var (
		acqErr      *workspace.AcquisitionError
		unsupported *tool.UnsupportedToolError
		notFound    *tool.ToolNotFoundError
		outErr      *tool.ScanOutputError
	)
	switch {
	case errors.As(err, &acqErr):
		return 2
	case errors.As(err, &unsupported), errors.As(err, &notFound), errors.As(err, &outErr):
		return 3
	default:
		return 1
	}
}
