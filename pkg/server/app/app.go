package app

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/deckhand-io/deckhand/pkg/config"
	"github.com/deckhand-io/deckhand/pkg/extract/office"
	"github.com/deckhand-io/deckhand/pkg/jobs"
	"github.com/deckhand-io/deckhand/pkg/server"
	"github.com/deckhand-io/deckhand/pkg/server/api"
	"github.com/deckhand-io/deckhand/pkg/server/httpx"
	"github.com/deckhand-io/deckhand/pkg/spool"
)

// App orchestrates the server runtime components:
// - HTTP server (extraction API)
// - Job scheduler and its worker pool
// - Upload spool and retention janitor
// - Lifecycle management
type App struct {
	HTTP      *http.Server
	Scheduler *jobs.Scheduler
	Store     *jobs.Store
	Spool     *spool.Spool
	Ready     *atomic.Bool
	Config    config.ServerConfig
	Deps      *Deps

	janitorDone chan struct{}
}

// New creates and configures a new server application.
func New(ctx context.Context, cfg config.ServerConfig, deps *Deps) (*App, error) {
	deps.Logger.Info().Msg("Initializing server application")

	if err := cfg.Validate(); err != nil {
		return nil, server.WrapInvalidConfig(err)
	}

	// Upload spool holds presentation files between submission and extraction
	sp, err := spool.Open(cfg.SpoolDir)
	if err != nil {
		return nil, server.WrapSpoolInit(err)
	}

	extractor := deps.Extractor
	if extractor == nil {
		extractor = office.New()
	}

	store := jobs.NewStore()
	scheduler := jobs.NewScheduler(store, extractor, jobs.SchedulerConfig{
		MaxConcurrent:  cfg.Queue.MaxConcurrent,
		MaxAdmitted:    cfg.Queue.MaxAdmitted,
		DefaultTimeout: cfg.Queue.DefaultTimeout,
		MaxTimeout:     cfg.Queue.MaxTimeout,
	})
	reporter := jobs.NewReporter(store, cfg.Queue.MaxConcurrent)

	// Prepare API dependencies
	ready := &atomic.Bool{}
	apiDeps := &api.Deps{
		Store:          store,
		Queue:          scheduler,
		Reporter:       reporter,
		Spool:          sp,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Ready:          ready,
	}

	// Create router with all endpoints mounted
	router := httpx.NewRouter(cfg, apiDeps, api.DefaultConfig())

	if cfg.APIEnabled {
		deps.Logger.Info().Msg("API endpoints enabled")
	} else {
		deps.Logger.Warn().Msg("API endpoints disabled")
	}

	// Create HTTP server with middleware
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port),
		Handler:      httpx.Chain(router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		HTTP:        httpServer,
		Scheduler:   scheduler,
		Store:       store,
		Spool:       sp,
		Ready:       ready,
		Config:      cfg,
		Deps:        deps,
		janitorDone: make(chan struct{}),
	}, nil
}

// Run starts the server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	a.Deps.Logger.Info().
		Str("addr", a.HTTP.Addr).
		Bool("api", a.Config.APIEnabled).
		Int("max_concurrent", a.Config.Queue.MaxConcurrent).
		Msg("Starting Deckhand server")

	// Start HTTP server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := a.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	// Start the job scheduler
	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	// Start the retention janitor and the log-rotation signal listener
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go a.janitor(janitorCtx)
	go a.listenSignals(janitorCtx)

	// Mark as ready
	a.Ready.Store(true)
	a.Deps.Logger.Info().Msg("Server is ready and accepting connections")

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		a.Deps.Logger.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		a.Deps.Logger.Error().Err(err).Msg("Server error")
		stopJanitor()
		return err
	}

	stopJanitor()
	return a.shutdown()
}

// janitor evicts terminal jobs past the retention TTL and reclaims their
// spooled uploads. Orphaned spool files older than the TTL are swept too,
// so a crash between eviction and removal cannot leak disk.
func (a *App) janitor(ctx context.Context) {
	defer close(a.janitorDone)

	ticker := time.NewTicker(a.Config.Queue.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cutoff := now.Add(-a.Config.Queue.RetentionTTL)

			evicted := a.Store.EvictTerminalBefore(cutoff)
			for _, job := range evicted {
				if job.Input.FileRef == "" {
					continue
				}
				if err := a.Spool.Remove(job.Input.FileRef); err != nil {
					a.Deps.Logger.Warn().
						Err(err).
						Str("job_id", job.ID).
						Str("path", job.Input.FileRef).
						Msg("Failed to remove spooled upload for evicted job")
				}
			}

			swept := a.Spool.Sweep(cutoff)

			if len(evicted) > 0 || swept > 0 {
				a.Deps.Logger.Info().
					Int("evicted", len(evicted)).
					Int("swept", swept).
					Msg("Retention janitor pass complete")
			}
		}
	}
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() error {
	a.Deps.Logger.Info().Msg("Initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Mark as not ready
	a.Ready.Store(false)

	// Shutdown HTTP server
	a.Deps.Logger.Info().Msg("Shutting down HTTP server...")
	if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
		return err
	}
	a.Deps.Logger.Info().Msg("HTTP server stopped")

	// Stop the scheduler, draining in-flight extractions
	a.Deps.Logger.Info().Msg("Stopping job scheduler...")
	if err := a.Scheduler.Stop(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("Scheduler shutdown failed")
		return err
	}
	a.Deps.Logger.Info().Msg("Job scheduler stopped")

	// Wait for the janitor to exit before releasing the spool lock
	<-a.janitorDone

	// Release the spool directory lock
	if err := a.Spool.Close(); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("Spool close failed")
		return err
	}

	a.Deps.Logger.Info().Msg("Server shutdown complete")
	return nil
}
