//go:build !windows
// +build !windows

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/deckhand-io/deckhand/pkg/logging"
)

// listenSignals reopens the log file on SIGUSR1 so external tools can
// rotate logs without restarting the server.
func (a *App) listenSignals(ctx context.Context) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigs:
			a.reopenLogFile()
		}
	}
}

func (a *App) reopenLogFile() {
	if a.Deps.Config == nil {
		return
	}
	cfg := a.Deps.Config.Get()
	if cfg.Log.File == "" {
		a.Deps.Logger.Debug().Msg("No log file configured, ignoring rotation signal")
		return
	}

	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		a.Deps.Logger.Error().Err(err).Str("path", cfg.Log.File).Msg("Failed to reopen log file")
		return
	}
	logging.SetLogWriter(f)
	if err := logging.ConfigureGlobalLogging(cfg.Log.Level); err != nil {
		a.Deps.Logger.Warn().Err(err).Msg("Failed to reconfigure logging after rotation")
	}
	a.Deps.Logger.Info().Str("path", cfg.Log.File).Msg("Reopened log file for rotation")
}
