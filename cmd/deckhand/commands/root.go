package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	serverCmd "github.com/deckhand-io/deckhand/cmd/deckhand/commands/server"
	"github.com/deckhand-io/deckhand/pkg/appctx"
	"github.com/deckhand-io/deckhand/pkg/config"
	"github.com/deckhand-io/deckhand/pkg/logging"
)

const cliExecutable = "deckhand"

// NewCommand constructs the top-level deckhand CLI command, wiring global
// flags and the shared configuration manager.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		verbosityCount int
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Deckhand is an asynchronous presentation extraction service",
		Long: `Deckhand extracts assets and metadata from PowerPoint presentations.

Uploads are processed asynchronously by a bounded worker pool; clients submit
a file, receive a job id, and poll for the result.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			manager := config.NewManager()
			if err := manager.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			applyLogConfig(manager.Get(), verbosityCount)

			// Hot-reload the log level when the config file changes.
			if configFile != "" {
				watcher, err := config.NewFileWatcher(manager, configFile, logging.NewLogger("config", zerolog.InfoLevel))
				if err != nil {
					log.Warn().Err(err).Msg("Config file watcher unavailable")
				} else {
					watcher.OnReload = func(cfg config.Config) {
						applyLogConfig(cfg, verbosityCount)
					}
					if err := watcher.Start(cmd.Context()); err != nil {
						log.Warn().Err(err).Msg("Config file watcher failed to start")
					}
				}
			}

			ctx := appctx.WithConfig(cmd.Context(), manager)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")

	config.BindFlags(cmd.PersistentFlags())
	config.BindServerFlags(cmd.PersistentFlags())

	cmd.AddCommand(serverCmd.NewCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// applyLogConfig applies the loaded log configuration to the global logger.
// Repeated -v flags take precedence over the configured level.
func applyLogConfig(cfg config.Config, verbosityCount int) {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Log.File).Msg("Cannot open log file, keeping current writer")
		} else {
			logging.SetLogWriter(f)
		}
	} else if cfg.Log.Format == "json" {
		logging.SetLogWriter(os.Stdout)
	}

	if verbosityCount > 0 {
		logging.ConfigureGlobal(verbosityToLevel(verbosityCount))
		return
	}
	if err := logging.ConfigureGlobalLogging(cfg.Log.Level); err != nil {
		log.Warn().Err(err).Msg("Failed to configure logging")
	}
}

// verbosityToLevel maps repeated -v flags onto zerolog levels.
func verbosityToLevel(count int) zerolog.Level {
	switch {
	case count <= 0:
		return zerolog.InfoLevel
	case count == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
