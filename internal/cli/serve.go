package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sastforge/internal/config"
	"github.com/ppiankov/sastforge/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		listen         string
		backendURL     string
		backendTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the remediation service in front of a local model runtime",
		Long:  "Serve POST /generate, forwarding prompts to an Ollama-compatible backend. Runs until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sc := cfg.ServiceOrZero()
			if !cmd.Flags().Changed("listen") && sc.Listen != "" {
				listen = sc.Listen
			}
			if !cmd.Flags().Changed("backend") && sc.BackendURL != "" {
				backendURL = sc.BackendURL
			}
			if !cmd.Flags().Changed("backend-timeout") && sc.BackendTimeout > 0 {
				backendTimeout = sc.BackendTimeout
			}

			srv := service.New(service.Config{
				Listen:         listen,
				BackendURL:     backendURL,
				BackendTimeout: backendTimeout,
			})
			addr, err := srv.Start()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "remediation service listening on %s\n", addr)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			<-ctx.Done()

			slog.Info("shutting down")
			return srv.Stop()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", service.DefaultListen, "listen address")
	cmd.Flags().StringVar(&backendURL, "backend", service.DefaultBackendURL, "model runtime base URL")
	cmd.Flags().DurationVar(&backendTimeout, "backend-timeout", service.DefaultBackendTimeout, "timeout per backend call")

	return cmd
}
