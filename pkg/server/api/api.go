package api

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/deckhand-io/deckhand/pkg/jobs"
	"github.com/deckhand-io/deckhand/pkg/spool"
)

// Deps holds dependencies for API handlers.
// This pattern enables dependency injection and easier testing.
type Deps struct {
	// Store provides read access to job records
	Store StoreInterface

	// Queue admits, cancels and tracks extraction jobs
	Queue QueueInterface

	// Reporter derives the queue/health/performance snapshot
	Reporter ReporterInterface

	// Spool persists uploaded presentation files
	Spool SpoolInterface

	// MaxUploadBytes bounds accepted multipart request bodies
	MaxUploadBytes int64

	// Ready flag for readiness check
	Ready *atomic.Bool
}

// StoreInterface is the subset of job store methods needed by the API.
// Defined here to avoid circular dependencies and ease mocking.
type StoreInterface interface {
	Get(id string) (*jobs.Job, error)
	List(q jobs.ListQuery) ([]*jobs.Job, int, error)
}

// QueueInterface is the subset of scheduler methods needed by the API.
type QueueInterface interface {
	Submit(req jobs.SubmitRequest) (*jobs.Job, error)
	Position(id string) int
	Cancel(id string) (*jobs.CancelOutcome, error)
	Config() jobs.SchedulerConfig
}

// ReporterInterface produces monitoring snapshots.
type ReporterInterface interface {
	Snapshot(now time.Time) jobs.Snapshot
}

// SpoolInterface persists uploads for later extraction.
type SpoolInterface interface {
	Save(r io.Reader, originalName string) (*spool.File, error)
	Remove(path string) error
}
