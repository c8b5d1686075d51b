package jobs

import (
	"errors"
	"fmt"
)

// Common errors returned by job store and scheduler operations.
var (
	// ErrNotFound is returned when a job id does not exist in the store.
	ErrNotFound = errors.New("job not found")

	// ErrAlreadyExists is returned when inserting a job whose id is taken.
	ErrAlreadyExists = errors.New("job already exists")

	// ErrInvalidTransition is returned when a state change violates the
	// job lifecycle graph, including any mutation of a terminal job.
	ErrInvalidTransition = errors.New("invalid job transition")

	// ErrQueueFull is returned when admission is rejected under backpressure.
	// Clients may retry after backoff.
	ErrQueueFull = errors.New("job queue is full")

	// ErrNotRunning is returned when submitting to a stopped scheduler.
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrInvalidInput is returned when a submission fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError wraps ErrNotFound with the missing job id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job not found: %s", e.ID)
}

// Unwrap returns the underlying error.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Is checks if the error matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError wraps ErrAlreadyExists with the colliding job id.
type AlreadyExistsError struct {
	ID string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("job already exists: %s", e.ID)
}

// Unwrap returns the underlying error.
func (e *AlreadyExistsError) Unwrap() error {
	return ErrAlreadyExists
}

// Is checks if the error matches ErrAlreadyExists.
func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// InvalidTransitionError wraps ErrInvalidTransition with edge context.
type InvalidTransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("job %s: invalid transition %s -> %s", e.ID, e.From, e.To)
}

// Unwrap returns the underlying error.
func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Is checks if the error matches ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// QueueFullError wraps ErrQueueFull with the admission ceiling that was hit.
type QueueFullError struct {
	Limit int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("job queue is full: admission limit %d reached", e.Limit)
}

// Unwrap returns the underlying error.
func (e *QueueFullError) Unwrap() error {
	return ErrQueueFull
}

// Is checks if the error matches ErrQueueFull.
func (e *QueueFullError) Is(target error) bool {
	return target == ErrQueueFull
}

// InvalidInputError wraps ErrInvalidInput with field details.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input for field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// Unwrap returns the underlying error.
func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// Is checks if the error matches ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// IsNotFound checks if an error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidTransition checks if an error is or wraps ErrInvalidTransition.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsQueueFull checks if an error is or wraps ErrQueueFull.
func IsQueueFull(err error) bool {
	return errors.Is(err, ErrQueueFull)
}

// IsInvalidInput checks if an error is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
