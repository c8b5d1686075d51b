// Package jobs implements the asynchronous extraction job queue: the job
// lifecycle model, the in-memory store, the bounded scheduler/worker pool,
// and the queue status reporter.
package jobs

import (
	"time"

	"github.com/deckhand-io/deckhand/pkg/extract"
)

// Type identifies what an extraction job produces.
type Type string

const (
	// TypeAssets extracts embedded media assets from a presentation.
	TypeAssets Type = "extract-assets"
	// TypeMetadata extracts document metadata from a presentation.
	TypeMetadata Type = "extract-metadata"
)

// Valid reports whether t is a known job type.
func (t Type) Valid() bool {
	return t == TypeAssets || t == TypeMetadata
}

// Status is a job lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusQueued, StatusProcessing,
		StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// transitions is the job lifecycle graph. A transition is legal only if
// the target appears in the set for the current state; terminal states
// have no outgoing edges.
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusQueued:    true,
		StatusCancelled: true,
	},
	StatusQueued: {
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
	},
}

// CanTransition reports whether the edge s -> to exists in the lifecycle graph.
func (s Status) CanTransition(to Status) bool {
	return transitions[s][to]
}

// ErrorKind classifies a terminal failure.
type ErrorKind string

const (
	// ErrorKindExtraction means the extractor returned an error.
	ErrorKindExtraction ErrorKind = "extraction"
	// ErrorKindTimeout means the job exceeded its execution deadline.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindPanic means the extractor panicked and was recovered.
	ErrorKindPanic ErrorKind = "panic"
)

// ErrorInfo is the failure payload recorded on a failed job.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Job is one unit of asynchronous extraction work and its lifecycle record.
//
// Identity fields (ID, Type, Input, UserID, CreatedAt) are immutable after
// creation. Mutable state is only ever changed through Store.Update, which
// serializes writers and hands readers consistent copies.
type Job struct {
	ID     string
	Type   Type
	Status Status

	// Progress is 0-100, monotonically non-decreasing while processing and
	// pinned to 100 on completion.
	Progress int

	// Input is opaque to the queue and passed through to the extractor.
	Input extract.Request

	// Result is set iff Status == StatusCompleted.
	Result *extract.Result

	// Error is set iff Status == StatusFailed.
	Error *ErrorInfo

	// UserID is the optional submitting owner; empty means anonymous.
	UserID string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	// Timeout bounds execution wall-clock time once processing starts.
	Timeout time.Duration

	// EstimatedDuration is the submission-time estimate surfaced to clients.
	// Best effort, never authoritative.
	EstimatedDuration time.Duration
}

// Transition moves the job to a new status, stamping startedAt/completedAt
// at the corresponding edges. It fails with InvalidTransitionError when the
// edge is not in the lifecycle graph, which is how a late worker write loses
// the race against an earlier terminal write.
func (j *Job) Transition(to Status, now time.Time) error {
	if !j.Status.CanTransition(to) {
		return &InvalidTransitionError{ID: j.ID, From: j.Status, To: to}
	}

	j.Status = to
	j.UpdatedAt = now

	switch to {
	case StatusProcessing:
		j.StartedAt = now
	case StatusCompleted:
		j.Progress = 100
		j.CompletedAt = now
	case StatusFailed, StatusCancelled:
		j.CompletedAt = now
	}

	return nil
}

// clone returns a copy safe to hand outside the store. Result, Error and
// Input payloads are written once and treated as immutable afterwards, so
// sharing their pointers is safe.
func (j *Job) clone() *Job {
	c := *j
	return &c
}
