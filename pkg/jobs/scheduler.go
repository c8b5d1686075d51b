package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/deckhand-io/deckhand/pkg/extract"
	"github.com/deckhand-io/deckhand/pkg/stringutil"
)

// maxErrorMessageLen bounds the error message stored on a failed job.
const maxErrorMessageLen = 512

// SchedulerConfig bounds the scheduler's resources.
type SchedulerConfig struct {
	// MaxConcurrent is the number of extractions that may run at once.
	MaxConcurrent int

	// MaxAdmitted is the admission ceiling over jobs in {queued, processing}.
	// Submissions beyond it are rejected with ErrQueueFull instead of being
	// accepted and starved.
	MaxAdmitted int

	// DefaultTimeout applies when a submission carries no timeout.
	DefaultTimeout time.Duration

	// MaxTimeout caps caller-supplied timeouts.
	MaxTimeout time.Duration
}

// DefaultSchedulerConfig returns the documented defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrent:  4,
		MaxAdmitted:    50,
		DefaultTimeout: 2 * time.Minute,
		MaxTimeout:     5 * time.Minute,
	}
}

func (c SchedulerConfig) normalized() SchedulerConfig {
	def := DefaultSchedulerConfig()
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = def.MaxConcurrent
	}
	if c.MaxAdmitted <= 0 {
		c.MaxAdmitted = def.MaxAdmitted
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = def.DefaultTimeout
	}
	if c.MaxTimeout <= 0 {
		c.MaxTimeout = def.MaxTimeout
	}
	return c
}

// SubmitRequest describes one job submission.
type SubmitRequest struct {
	Type   Type
	Input  extract.Request
	UserID string

	// Timeout is the caller-supplied execution bound; zero selects the
	// configured default. Values above MaxTimeout are rejected, not clamped.
	Timeout time.Duration
}

// CancelOutcome reports an accepted cancellation.
type CancelOutcome struct {
	JobID          string
	PreviousStatus Status
	CancelledAt    time.Time
}

// Scheduler is the job queue facade: it admits submissions, keeps FIFO
// dispatch order, bounds concurrent extractions with a counting semaphore,
// and arbitrates the terminal-write race between workers, cancellation and
// timeouts through store-level compare-and-swap transitions.
type Scheduler struct {
	cfg       SchedulerConfig
	store     *Store
	extractor extract.Extractor

	mu             sync.Mutex
	started        bool
	dispatchCancel context.CancelFunc
	jobsCtx        context.Context
	jobsCancel     context.CancelFunc
	queue          []string
	admitted       int
	running        map[string]context.CancelFunc

	notify chan struct{}
	slots  chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler over the given store and extractor.
// Out-of-range config values fall back to documented defaults.
func NewScheduler(store *Store, extractor extract.Extractor, cfg SchedulerConfig) *Scheduler {
	cfg = cfg.normalized()
	return &Scheduler{
		cfg:       cfg,
		store:     store,
		extractor: extractor,
		running:   make(map[string]context.CancelFunc),
		notify:    make(chan struct{}, 1),
		slots:     make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Config returns the normalized scheduler configuration.
func (s *Scheduler) Config() SchedulerConfig {
	return s.cfg
}

// Start begins dispatching queued jobs in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	dispatchCtx, dispatchCancel := context.WithCancel(ctx)
	s.dispatchCancel = dispatchCancel

	// Running extractions survive dispatch shutdown so Stop can drain them.
	s.jobsCtx, s.jobsCancel = context.WithCancel(context.WithoutCancel(ctx))

	s.started = true
	s.wg.Add(1)
	go s.dispatch(dispatchCtx)

	log.Info().
		Str("component", "jobs").
		Int("max_concurrent", s.cfg.MaxConcurrent).
		Int("max_admitted", s.cfg.MaxAdmitted).
		Msg("Job scheduler started")

	return nil
}

// Stop gracefully shuts down dispatching and waits for in-flight jobs to
// complete. When ctx expires first, remaining extractions are interrupted
// and ctx's error is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.dispatchCancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().
			Str("component", "jobs").
			Msg("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.jobsCancel()
		log.Warn().
			Str("component", "jobs").
			Msg("Job scheduler shutdown timed out, interrupting running jobs")
		return ctx.Err()
	}
}

// Submit validates and admits a new job. The job is created pending,
// promoted to queued synchronously, and the returned copy reflects the
// queued record. Submission never blocks on execution.
func (s *Scheduler) Submit(req SubmitRequest) (*Job, error) {
	if !req.Type.Valid() {
		return nil, &InvalidInputError{Field: "type", Reason: "unknown job type"}
	}
	if req.Timeout < 0 {
		return nil, &InvalidInputError{Field: "timeoutMs", Reason: "must be >= 0"}
	}
	if req.Timeout > s.cfg.MaxTimeout {
		return nil, &InvalidInputError{
			Field:  "timeoutMs",
			Reason: fmt.Sprintf("must not exceed %d ms", s.cfg.MaxTimeout.Milliseconds()),
		}
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = s.cfg.DefaultTimeout
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil, ErrNotRunning
	}
	if s.admitted >= s.cfg.MaxAdmitted {
		return nil, &QueueFullError{Limit: s.cfg.MaxAdmitted}
	}

	now := time.Now()
	job := &Job{
		ID:                uuid.NewString(),
		Type:              req.Type,
		Status:            StatusPending,
		Input:             req.Input,
		UserID:            req.UserID,
		CreatedAt:         now,
		UpdatedAt:         now,
		Timeout:           timeout,
		EstimatedDuration: estimateDuration(req.Type, req.Input.FileSize),
	}

	if err := s.store.Insert(job); err != nil {
		return nil, err
	}

	queued, err := s.store.Update(job.ID, func(j *Job) error {
		return j.Transition(StatusQueued, time.Now())
	})
	if err != nil {
		return nil, err
	}

	s.admitted++
	s.queue = append(s.queue, job.ID)
	s.kick()

	log.Debug().
		Str("component", "jobs").
		Str("job_id", job.ID).
		Str("job_type", string(job.Type)).
		Int("queue_depth", len(s.queue)).
		Msg("Job admitted")

	return queued, nil
}

// Position returns the 1-based FIFO rank of a queued job, or 0 when the
// job is not currently queued. Recomputed on every read, never stored.
func (s *Scheduler) Position(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, queued := range s.queue {
		if queued == id {
			return i + 1
		}
	}
	return 0
}

// Cancel requests cancellation of a pending, queued or processing job.
//
// Queued jobs are removed from dispatch order and never reach a worker.
// Processing jobs have their extraction context cancelled; the cancelled
// state is recorded immediately and any later worker result loses the
// compare-and-swap and is discarded. Terminal jobs fail with
// ErrInvalidTransition.
func (s *Scheduler) Cancel(id string) (*CancelOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev Status
	now := time.Now()
	job, err := s.store.Update(id, func(j *Job) error {
		prev = j.Status
		return j.Transition(StatusCancelled, now)
	})
	if err != nil {
		return nil, err
	}

	switch prev {
	case StatusPending, StatusQueued:
		s.removeQueuedLocked(id)
		s.admitted--
	case StatusProcessing:
		if cancel, ok := s.running[id]; ok {
			cancel()
		}
	}

	log.Info().
		Str("component", "jobs").
		Str("job_id", id).
		Str("previous_status", string(prev)).
		Msg("Job cancelled")

	return &CancelOutcome{
		JobID:          id,
		PreviousStatus: prev,
		CancelledAt:    job.CompletedAt,
	}, nil
}

// kick signals the dispatch loop without blocking.
func (s *Scheduler) kick() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Scheduler) removeQueuedLocked(id string) {
	for i, queued := range s.queue {
		if queued == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

func (s *Scheduler) queueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// pop removes and returns the oldest queued job id.
func (s *Scheduler) pop() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return "", false
	}
	id := s.queue[0]
	s.queue = s.queue[1:]
	return id, true
}

// dispatch drives queued jobs into workers: acquire a semaphore slot, pop
// the oldest queued job, claim it, and hand it to a worker goroutine.
func (s *Scheduler) dispatch(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.notify:
		}

		for s.queueDepth() > 0 {
			select {
			case <-ctx.Done():
				return
			case s.slots <- struct{}{}:
			}

			id, ok := s.pop()
			if !ok {
				// Cancelled while we waited for a slot.
				<-s.slots
				break
			}
			if !s.startJob(id) {
				<-s.slots
			}
		}
	}
}

// startJob claims a popped job and launches its worker. Returns false when
// the claim lost a race (the job was cancelled between pop and claim).
func (s *Scheduler) startJob(id string) bool {
	job, err := s.store.Update(id, func(j *Job) error {
		if j.Status != StatusQueued {
			return &InvalidTransitionError{ID: id, From: j.Status, To: StatusProcessing}
		}
		return j.Transition(StatusProcessing, time.Now())
	})
	if err != nil {
		log.Debug().
			Str("component", "jobs").
			Str("job_id", id).
			Err(err).
			Msg("Skipping dispatch of job no longer queued")
		return false
	}

	s.mu.Lock()
	jobCtx, cancel := context.WithTimeout(s.jobsCtx, job.Timeout)
	s.running[id] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer cancel()
		s.run(jobCtx, job)
	}()
	return true
}

type extractOutcome struct {
	result   *extract.Result
	err      error
	panicked bool
}

// run executes one claimed job: it races the extractor call against the
// job deadline and cancellation, then records exactly one terminal state.
func (s *Scheduler) run(ctx context.Context, job *Job) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.running, job.ID)
		s.admitted--
		s.mu.Unlock()
		<-s.slots
		s.kick()
	}()

	log.Debug().
		Str("component", "jobs").
		Str("job_id", job.ID).
		Str("job_type", string(job.Type)).
		Dur("timeout", job.Timeout).
		Msg("Job processing started")

	resCh := make(chan extractOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- extractOutcome{
					err:      fmt.Errorf("extractor panicked: %v", r),
					panicked: true,
				}
			}
		}()
		res, err := s.extractor.Extract(ctx, job.Input, s.progressFunc(job.ID))
		resCh <- extractOutcome{result: res, err: err}
	}()

	select {
	case out := <-resCh:
		s.finish(ctx, job, out)
	case <-ctx.Done():
		// The record must reach a terminal state now even if the extractor
		// call never returns. A leaked background call is acceptable
		// collateral; a double report is not.
		s.finishInterrupted(ctx, job)
		go s.discardLate(job.ID, resCh)
	}
}

// finish records the extractor's outcome. A lost compare-and-swap means a
// cancellation already won; that is an expected concurrency outcome, not
// an error.
func (s *Scheduler) finish(ctx context.Context, job *Job, out extractOutcome) {
	now := time.Now()

	if out.err == nil {
		_, err := s.store.Update(job.ID, func(j *Job) error {
			if j.Status != StatusProcessing {
				return &InvalidTransitionError{ID: j.ID, From: j.Status, To: StatusCompleted}
			}
			if err := j.Transition(StatusCompleted, now); err != nil {
				return err
			}
			j.Result = out.result
			return nil
		})
		if err != nil {
			log.Debug().
				Str("component", "jobs").
				Str("job_id", job.ID).
				Msg("Discarding success result for job no longer processing")
			return
		}
		log.Info().
			Str("component", "jobs").
			Str("job_id", job.ID).
			Msg("Job completed")
		return
	}

	// Extractor unwound in response to our cancellation signal.
	if errors.Is(out.err, context.Canceled) && ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.recordCancelled(job.ID)
		return
	}

	kind := ErrorKindExtraction
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(out.err, context.DeadlineExceeded):
		kind = ErrorKindTimeout
	case out.panicked:
		kind = ErrorKindPanic
	}
	s.recordFailed(job, kind, out.err.Error())
}

// finishInterrupted handles the deadline/cancellation branch of the race.
func (s *Scheduler) finishInterrupted(ctx context.Context, job *Job) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		msg := fmt.Sprintf("execution exceeded timeout of %d ms", job.Timeout.Milliseconds())
		s.recordFailed(job, ErrorKindTimeout, msg)
		return
	}
	s.recordCancelled(job.ID)
}

func (s *Scheduler) recordFailed(job *Job, kind ErrorKind, msg string) {
	// Extractor errors can embed multi-line parser output; keep the stored
	// message a bounded single line.
	msg = stringutil.Ellipsis(msg, maxErrorMessageLen)

	now := time.Now()
	_, err := s.store.Update(job.ID, func(j *Job) error {
		if j.Status != StatusProcessing {
			return &InvalidTransitionError{ID: j.ID, From: j.Status, To: StatusFailed}
		}
		if err := j.Transition(StatusFailed, now); err != nil {
			return err
		}
		j.Error = &ErrorInfo{Kind: kind, Message: msg}
		return nil
	})
	if err != nil {
		log.Debug().
			Str("component", "jobs").
			Str("job_id", job.ID).
			Msg("Discarding failure for job no longer processing")
		return
	}
	log.Warn().
		Str("component", "jobs").
		Str("job_id", job.ID).
		Str("error_kind", string(kind)).
		Str("error", msg).
		Msg("Job failed")
}

// recordCancelled finalizes a processing job as cancelled. When Cancel
// already recorded the state the update loses the compare-and-swap, which
// is the intended outcome.
func (s *Scheduler) recordCancelled(id string) {
	now := time.Now()
	_, err := s.store.Update(id, func(j *Job) error {
		if j.Status != StatusProcessing {
			return &InvalidTransitionError{ID: j.ID, From: j.Status, To: StatusCancelled}
		}
		return j.Transition(StatusCancelled, now)
	})
	if err == nil {
		log.Info().
			Str("component", "jobs").
			Str("job_id", id).
			Msg("Job cancelled during processing")
	}
}

// discardLate drains a result that arrived after the job already reached a
// terminal state, so the extractor goroutine can exit.
func (s *Scheduler) discardLate(id string, resCh <-chan extractOutcome) {
	out := <-resCh
	log.Debug().
		Str("component", "jobs").
		Str("job_id", id).
		Bool("had_error", out.err != nil).
		Msg("Discarded late extractor result")
}

// progressFunc persists progress updates for a processing job. Values are
// clamped to [0, 99] until a terminal transition pins the final figure, and
// regressions are dropped to keep progress monotone.
func (s *Scheduler) progressFunc(id string) extract.ProgressFunc {
	return func(percent int) {
		if percent < 0 {
			percent = 0
		}
		if percent > 99 {
			percent = 99
		}
		now := time.Now()
		_, _ = s.store.Update(id, func(j *Job) error {
			if j.Status != StatusProcessing {
				return &InvalidTransitionError{ID: j.ID, From: j.Status, To: StatusProcessing}
			}
			if percent <= j.Progress {
				return errStaleProgress
			}
			j.Progress = percent
			j.UpdatedAt = now
			return nil
		})
	}
}

// errStaleProgress aborts a progress update that would move backwards.
var errStaleProgress = errors.New("stale progress update")

// estimateDuration derives the submission-time duration estimate from the
// job type and upload size. Purely informational.
func estimateDuration(t Type, size int64) time.Duration {
	base := 2 * time.Second
	if t == TypeAssets {
		base = 5 * time.Second
	}
	perMiB := 250 * time.Millisecond
	mib := size / (1 << 20)
	return base + time.Duration(mib)*perMiB
}
