// Copyright 2025 Deckhand Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FileWatcher watches the configuration file for changes and reloads the
// Manager when modifications are detected.
//
// Only a subset of configuration takes effect at runtime (the log level is
// re-applied via the OnReload callback); settings such as the listen address
// or queue sizing still require a restart.
type FileWatcher struct {
	// manager is the config Manager to reload on changes
	manager *Manager

	// path is the config file being watched
	path string

	// OnReload is invoked with the freshly loaded config after each
	// successful reload. Optional.
	OnReload func(Config)

	// watcher is the fsnotify file watcher
	watcher *fsnotify.Watcher

	// debounceDelay is the time to wait before reloading after a change
	// (prevents multiple reloads for rapid successive writes)
	debounceDelay time.Duration

	// logger for structured logging
	logger zerolog.Logger

	// mu protects the debounce timer
	mu sync.Mutex

	// debounceTimer is the active debounce timer (if any)
	debounceTimer *time.Timer
}

// NewFileWatcher creates a new configuration file watcher.
//
// The watcher monitors the config file for changes and reloads the Manager
// when modifications are detected. Changes are debounced to avoid multiple
// reloads during rapid successive writes.
//
// Default debounce delay is 100ms, which provides near-instant sync
// while avoiding redundant reloads.
func NewFileWatcher(manager *Manager, path string, logger zerolog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		manager:       manager,
		path:          path,
		watcher:       watcher,
		debounceDelay: 100 * time.Millisecond,
		logger:        logger.With().Str("component", "config.watcher").Logger(),
	}, nil
}

// Start begins watching the config file for changes.
//
// This method blocks until the context is canceled. It should be run
// in a separate goroutine:
//
//	go watcher.Start(ctx)
//
// When a file change is detected, the config is reloaded after the
// debounce delay. Multiple rapid changes are coalesced into a single reload.
func (w *FileWatcher) Start(ctx context.Context) error {
	// Add the config file's parent directory to the watcher
	// (fsnotify requires watching directories, not files directly)
	configDir := filepath.Dir(w.path)
	configFile := filepath.Base(w.path)

	if err := w.watcher.Add(configDir); err != nil {
		w.logger.Error().
			Err(err).
			Str("dir", configDir).
			Msg("Failed to watch config directory")
		return err
	}

	w.logger.Info().
		Str("file", w.path).
		Dur("debounce", w.debounceDelay).
		Msg("Started watching config file")

	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
		w.logger.Info().Msg("Stopped watching config file")
	}()

	for {
		select {
		case <-ctx.Done():
			// Context canceled, stop watching
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				// Watcher closed
				return nil
			}

			// Only react to changes to the config file itself
			// (ignore other files in the same directory)
			if filepath.Base(event.Name) != configFile {
				continue
			}

			// Only react to write/create events
			// (ignore chmod, remove events - remove is handled by create on next write)
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				w.logger.Debug().
					Str("op", event.Op.String()).
					Str("file", event.Name).
					Msg("Detected config file change")

				// Schedule reload with debouncing
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				// Watcher closed
				return nil
			}

			w.logger.Warn().
				Err(err).
				Msg("File watcher error")
		}
	}
}

// scheduleReload schedules a config reload after the debounce delay.
// If a reload is already scheduled, the timer is reset.
func (w *FileWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Cancel existing timer if any
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	// Schedule new reload
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		if err := w.manager.Load(nil, w.path); err != nil {
			w.logger.Error().
				Err(err).
				Msg("Failed to reload config")
			return
		}

		w.logger.Info().Msg("Config reloaded successfully")

		if w.OnReload != nil {
			w.OnReload(w.manager.Get())
		}
	})
}

// Close stops the watcher and releases resources.
func (w *FileWatcher) Close() error {
	return w.watcher.Close()
}
