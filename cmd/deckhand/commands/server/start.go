// Package server provides the Cobra command implementation for the Deckhand server lifecycle.
// It wires CLI flags to the server runtime and handles the start/stop commands.
package server

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deckhand-io/deckhand/cmd/deckhand/internal/bind"
	"github.com/deckhand-io/deckhand/cmd/deckhand/internal/format"
	"github.com/deckhand-io/deckhand/pkg/appctx"
	"github.com/deckhand-io/deckhand/pkg/config"
	"github.com/deckhand-io/deckhand/pkg/logging"
	serversvc "github.com/deckhand-io/deckhand/pkg/server"
	"github.com/deckhand-io/deckhand/pkg/server/app"
)

// newStartServerCommand creates and returns the 'deckhand server start' command.
//
// This command initializes the Deckhand server runtime, which includes:
//   - HTTP API server with REST endpoints (/api/v1/extract/*, /api/v1/jobs, /api/v1/queue)
//   - Health and readiness endpoints (/healthz, /readyz)
//   - Job scheduler with a bounded extraction worker pool
//   - Upload spool with retention janitor
//
// The server runs until interrupted (SIGINT/SIGTERM) or context cancellation,
// then performs graceful shutdown (HTTP close, scheduler drain, spool release).
//
// Configuration is loaded from:
//   - Config file (deckhand.yaml, or --config)
//   - Environment variables (DECKHAND_*)
//   - Server-specific flags (--addr, --port, --no-api, --queue-concurrency, --spool-dir)
//
// Example usage:
//
//	deckhand server start
//	deckhand server start --addr 0.0.0.0 --port 8080
//	deckhand server start --spool-dir /data/deckhand --queue-concurrency 8
func newStartServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the Deckhand server",
		Long: `Start the Deckhand server process.

The server hosts multiple components in a single runtime:
  - HTTP API (REST endpoints for submitting extractions and polling jobs)
  - Job scheduler (bounded worker pool with FIFO dispatch)
  - Upload spool (holds presentation files for the lifetime of their jobs)

The server runs until interrupted (Ctrl+C) or killed, performing graceful
shutdown to drain in-flight requests and complete running extractions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			// Bind flags to options using centralized binder
			opts, err := bind.BindServerOptions(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("start server", err, serversvc.ErrorCode(err))
			}

			// Start from the managed config (file + env), overlay explicit flags
			cfg := config.DefaultServerConfig()
			if cfgMgr, ok := appctx.Config(cmd.Context()); ok {
				cfg = cfgMgr.Get().Server
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = opts.Addr
			}
			if flags.Changed("port") {
				cfg.Port = opts.Port
			}
			if flags.Changed("no-api") {
				cfg.APIEnabled = !opts.NoAPI
			}
			if flags.Changed("queue-concurrency") {
				cfg.Queue.MaxConcurrent = opts.Concurrency
				if cfg.Queue.MaxAdmitted < cfg.Queue.MaxConcurrent {
					cfg.Queue.MaxAdmitted = cfg.Queue.MaxConcurrent
				}
			}
			if flags.Changed("spool-dir") {
				cfg.SpoolDir = opts.SpoolDir
			}

			// Validate configuration
			if err := cfg.Validate(); err != nil {
				wrapped := serversvc.WrapInvalidConfig(err)
				return formatter.PrintTotalFailureSummary("start server", wrapped, serversvc.ErrorCode(wrapped))
			}

			// Create logger for server
			logger := logging.NewLogger("server", zerolog.InfoLevel)

			// Build dependencies
			cfgMgr, _ := appctx.Config(cmd.Context())
			deps := &app.Deps{
				Config: cfgMgr,
				Logger: logger,
			}

			// Create server app
			serverApp, err := app.New(cmd.Context(), cfg, deps)
			if err != nil {
				wrapped := serversvc.WrapAppInit(err)
				return formatter.PrintTotalFailureSummary("start server", wrapped, serversvc.ErrorCode(wrapped))
			}

			// Run server (blocks until shutdown)
			runErr := serverApp.Run(cmd.Context())
			if runErr != nil {
				wrapped := serversvc.WrapRuntime(runErr)
				return formatter.PrintTotalFailureSummary("start server", wrapped, serversvc.ErrorCode(wrapped))
			}

			return nil
		},
	}

	// Server-specific flags
	cmd.Flags().String("addr", "127.0.0.1", "Server listen address")
	cmd.Flags().Int("port", 8080, "Server listen port")
	cmd.Flags().Bool("no-api", false, "Disable REST API endpoints")
	cmd.Flags().Int("queue-concurrency", 4, "Number of concurrent extraction workers")
	cmd.Flags().String("spool-dir", "", "Directory for uploaded presentation files (default: temp dir)")

	return cmd
}
