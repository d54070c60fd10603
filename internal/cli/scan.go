package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sastforge/internal/config"
	"github.com/ppiankov/sastforge/internal/pipeline"
	"github.com/ppiankov/sastforge/internal/remediate"
	"github.com/ppiankov/sastforge/internal/report"
	"github.com/ppiankov/sastforge/internal/tool"
	"github.com/ppiankov/sastforge/internal/workspace"
)

const defaultScanTimeout = 30 * time.Minute

// scanOptions is the resolved configuration for one scan invocation.
type scanOptions struct {
	tool         string
	format       string
	output       string
	endpoint     string
	timeout      time.Duration
	scanTimeout  time.Duration
	cloneTimeout time.Duration
	depth        int
	remediation  config.RemediationConfig
}

func newScanCmd() *cobra.Command {
	opts := scanOptions{}

	cmd := &cobra.Command{
		Use:     "scan <repo-url>",
		Aliases: []string{"repo_url"},
		Short:   "Clone a repository, scan it, and attach fix suggestions",
		Long:    "Clone the repository into a temporary workspace, run the selected SAST tool, and request a remediation suggestion for each finding from the remediation service.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applySettings(cmd, &opts, cfg)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runScan(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.tool, "tool", "t", "bandit", "SAST tool: "+supportedTools())
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format: text, json, or sarif")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write report to file instead of stdout")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", remediate.DefaultEndpoint, "remediation service URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", remediate.DefaultTimeout, "timeout per remediation request")
	cmd.Flags().DurationVar(&opts.scanTimeout, "scan-timeout", defaultScanTimeout, "wall-clock limit for the SAST tool (0 = none)")
	cmd.Flags().DurationVar(&opts.cloneTimeout, "clone-timeout", 0, "wall-clock limit for git clone (0 = none)")
	cmd.Flags().IntVar(&opts.depth, "depth", 0, "shallow clone depth (0 = full history)")

	return cmd
}

// applySettings fills options from the config file where no flag was given.
func applySettings(cmd *cobra.Command, opts *scanOptions, cfg *config.Settings) {
	if !cmd.Flags().Changed("tool") && cfg.Tool != "" {
		opts.tool = cfg.Tool
	}
	if !cmd.Flags().Changed("format") && cfg.Format != "" {
		opts.format = cfg.Format
	}
	if !cmd.Flags().Changed("scan-timeout") && cfg.ScanTimeout != nil {
		opts.scanTimeout = *cfg.ScanTimeout
	}
	if !cmd.Flags().Changed("clone-timeout") && cfg.CloneTimeout > 0 {
		opts.cloneTimeout = cfg.CloneTimeout
	}
	if !cmd.Flags().Changed("depth") && cfg.CloneDepth > 0 {
		opts.depth = cfg.CloneDepth
	}

	opts.remediation = cfg.RemediationOrZero()
	if !cmd.Flags().Changed("endpoint") && opts.remediation.Endpoint != "" {
		opts.endpoint = opts.remediation.Endpoint
	}
	if !cmd.Flags().Changed("timeout") && opts.remediation.Timeout > 0 {
		opts.timeout = opts.remediation.Timeout
	}
}

func runScan(ctx context.Context, stdout io.Writer, repoURL string, opts scanOptions) error {
	kind, err := tool.ParseToolKind(opts.tool)
	if err != nil {
		return err
	}

	color := opts.output == "" && isTerminal()
	renderer, err := report.NewRenderer(opts.format, color)
	if err != nil {
		return err
	}

	client := remediate.NewClient(remediate.Config{
		Endpoint:    opts.endpoint,
		Model:       opts.remediation.Model,
		MaxLength:   opts.remediation.MaxLength,
		Temperature: opts.remediation.Temperature,
		Timeout:     opts.timeout,
	})

	slog.Info("scan starting", "repo", repoURL, "tool", kind, "endpoint", client.Endpoint())

	rep, err := pipeline.Run(ctx, repoURL, pipeline.Options{
		Tool: kind,
		Workspace: workspace.Options{
			Depth:   opts.depth,
			Timeout: opts.cloneTimeout,
		},
		Runner:    &tool.Runner{Timeout: opts.scanTimeout},
		Suggester: client,
		OnEntry: func(i, total int, e report.Entry) {
			slog.Debug("finding processed",
				"index", i+1, "total", total,
				"finding", e.Finding.Location(),
				"status", e.Outcome.Kind)
		},
	})
	if err != nil {
		return err
	}

	suggested, unavailable := rep.Counts()
	slog.Info("scan finished", "run_id", rep.RunID, "findings", len(rep.Entries),
		"suggested", suggested, "unavailable", unavailable)

	// the output file is only touched once a report exists
	var buf bytes.Buffer
	if err := renderer.Render(&buf, rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if opts.output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

func supportedTools() string {
	kinds := tool.Supported()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
