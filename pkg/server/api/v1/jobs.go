package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deckhand-io/deckhand/pkg/extract"
	"github.com/deckhand-io/deckhand/pkg/jobs"
	"github.com/deckhand-io/deckhand/pkg/server/api"
)

// multipartMemoryLimit is the in-memory buffer for multipart parsing;
// larger uploads spill to temp files.
const multipartMemoryLimit = 8 << 20

// SubmitResponse is the 202 payload returned by both submission endpoints.
type SubmitResponse struct {
	JobID               string      `json:"jobId"`
	Status              jobs.Status `json:"status"`
	EstimatedDurationMs int64       `json:"estimatedDurationMs"`
	PollURL             string      `json:"pollUrl"`
	QueuePosition       int         `json:"queuePosition"`
}

// JobView is the client-facing rendering of a job record.
type JobView struct {
	ID                   string          `json:"id"`
	Type                 jobs.Type       `json:"type"`
	Status               jobs.Status     `json:"status"`
	Progress             int             `json:"progress"`
	FileName             string          `json:"fileName,omitempty"`
	Result               *extract.Result `json:"result,omitempty"`
	Error                *jobs.ErrorInfo `json:"error,omitempty"`
	EstimatedRemainingMs *int64          `json:"estimatedRemainingMs,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	StartedAt            *time.Time      `json:"startedAt,omitempty"`
	CompletedAt          *time.Time      `json:"completedAt,omitempty"`
	UserID               string          `json:"userId,omitempty"`
}

// JobEnvelope wraps a single job for GET /api/v1/jobs/{id}.
type JobEnvelope struct {
	Job JobView `json:"job"`
}

// CancelResponse is the payload returned by DELETE /api/v1/jobs/{id}.
type CancelResponse struct {
	JobID          string      `json:"jobId"`
	PreviousStatus jobs.Status `json:"previousStatus"`
	CancelledAt    time.Time   `json:"cancelledAt"`
	Reason         string      `json:"reason"`
}

// Pagination describes one listing page.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasNext bool `json:"hasNext"`
}

// ListJobsResponse is the payload returned by GET /api/v1/jobs.
type ListJobsResponse struct {
	Jobs       []JobView  `json:"jobs"`
	Pagination Pagination `json:"pagination"`
}

// SubmitAssetsHandler handles POST /api/v1/extract/assets
//
// Accepts a multipart form with a presentation file plus options and enqueues
// an asset-extraction job.
//
// Form fields:
//   - file: the .pptx upload (required)
//   - assetTypes: comma-separated filter (image,video,audio), empty for all
//   - generateThumbnails: bool
//   - timeoutMs: per-job execution bound, 0 or absent for the default
//   - userId: optional owner
//
// Response format:
//
//	{"jobId": "...", "status": "queued", "estimatedDurationMs": 5000,
//	 "pollUrl": "/api/v1/jobs/...", "queuePosition": 1}
//
// Returns 400 for invalid forms, 413 for oversized uploads, 503 when the
// queue is at capacity.
func SubmitAssetsHandler(deps *api.Deps, config api.Config) http.HandlerFunc {
	return submitHandler(deps, config, jobs.TypeAssets, func(req *extract.Request, form map[string][]string) error {
		opts, err := ParseAssetOptions(form)
		if err != nil {
			return err
		}
		req.Assets = opts
		return nil
	})
}

// SubmitMetadataHandler handles POST /api/v1/extract/metadata
//
// Same contract as SubmitAssetsHandler, with metadata inclusion flags
// (includeCoreProperties, includeAppProperties, includeSlideStats) instead of
// asset options.
func SubmitMetadataHandler(deps *api.Deps, config api.Config) http.HandlerFunc {
	return submitHandler(deps, config, jobs.TypeMetadata, func(req *extract.Request, form map[string][]string) error {
		opts, err := ParseMetadataOptions(form)
		if err != nil {
			return err
		}
		req.Metadata = opts
		return nil
	})
}

// submitHandler implements the shared submission flow: bound the body, parse
// the multipart form, spool the upload, then admit the job. The spooled file
// is reclaimed when admission fails so rejected submissions leave nothing
// behind.
func submitHandler(deps *api.Deps, config api.Config, jobType jobs.Type, applyOptions func(*extract.Request, map[string][]string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With().
			Str("component", "api.jobs").
			Str("op", "submit").
			Str("type", string(jobType)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		start := time.Now()
		var statusCode int
		defer func() {
			logger.Info().
				Int("status", statusCode).
				Dur("duration_ms", time.Since(start)).
				Msg("request completed")
		}()

		// Apply handler-level timeout (only if request context doesn't have deadline)
		ctx := r.Context()
		if _, hasDeadline := ctx.Deadline(); !hasDeadline && config.HandlerTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, config.HandlerTimeout)
			defer cancel()
		}

		r.Body = http.MaxBytesReader(w, r.Body, deps.MaxUploadBytes)

		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				statusCode = http.StatusRequestEntityTooLarge
				logger.Warn().Int64("limit", maxBytesErr.Limit).Msg("upload exceeds size limit")
				api.WriteError(w, r, err)
				return
			}
			statusCode = http.StatusBadRequest
			logger.Error().Err(err).Msg("failed to parse multipart form")
			api.WriteJSONError(w, statusCode, "Invalid Input", "invalid multipart form: "+err.Error())
			return
		}
		defer cleanupMultipart(r)

		file, header, err := r.FormFile("file")
		if err != nil {
			statusCode = http.StatusBadRequest
			logger.Error().Err(err).Msg("missing file part")
			api.WriteJSONError(w, statusCode, "Invalid Input", "file: multipart file part is required")
			return
		}
		defer file.Close()

		if err := ValidateUploadName(header.Filename); err != nil {
			statusCode = http.StatusBadRequest
			api.WriteJSONError(w, statusCode, "Invalid Input", err.Error())
			return
		}

		common, err := ParseSubmitCommon(r.MultipartForm.Value)
		if err != nil {
			statusCode = http.StatusBadRequest
			api.WriteJSONError(w, statusCode, "Invalid Input", err.Error())
			return
		}

		input := extract.Request{FileName: header.Filename}
		if err := applyOptions(&input, r.MultipartForm.Value); err != nil {
			statusCode = http.StatusBadRequest
			api.WriteJSONError(w, statusCode, "Invalid Input", err.Error())
			return
		}

		spooled, err := deps.Spool.Save(file, header.Filename)
		if err != nil {
			statusCode = http.StatusInternalServerError
			logger.Error().Err(err).Msg("failed to spool upload")
			api.WriteError(w, r, err)
			return
		}
		input.FileRef = spooled.Path
		input.FileSize = spooled.Size

		// Reading a slow upload can outlive the handler timeout; don't admit
		// work the client already gave up on.
		if ctx.Err() != nil {
			if rmErr := deps.Spool.Remove(spooled.Path); rmErr != nil {
				logger.Warn().Err(rmErr).Str("path", spooled.Path).Msg("failed to remove abandoned upload")
			}
			statusCode = http.StatusGatewayTimeout
			logger.Warn().Msg("submission abandoned: handler timeout")
			api.WriteJSONError(w, statusCode, "Gateway Timeout",
				"operation timed out after "+config.HandlerTimeout.String())
			return
		}

		job, err := deps.Queue.Submit(jobs.SubmitRequest{
			Type:    jobType,
			Input:   input,
			UserID:  common.UserID,
			Timeout: common.Timeout,
		})
		if err != nil {
			// Admission failed; the upload will never be read.
			if rmErr := deps.Spool.Remove(spooled.Path); rmErr != nil {
				logger.Warn().Err(rmErr).Str("path", spooled.Path).Msg("failed to remove rejected upload")
			}
			statusCode = errorStatus(err)
			logger.Warn().Err(err).Msg("submission rejected")
			api.WriteError(w, r, err)
			return
		}

		logger.Info().
			Str("job_id", job.ID).
			Str("file", header.Filename).
			Int64("size", spooled.Size).
			Msg("job admitted")

		statusCode = http.StatusAccepted
		api.WriteJSON(w, statusCode, SubmitResponse{
			JobID:               job.ID,
			Status:              job.Status,
			EstimatedDurationMs: job.EstimatedDuration.Milliseconds(),
			PollURL:             "/api/v1/jobs/" + job.ID,
			QueuePosition:       deps.Queue.Position(job.ID),
		})
	}
}

// GetJobHandler handles GET /api/v1/jobs/{id}
//
// Returns the current job record, including the result once completed and
// the failure payload once failed. While the job is processing the view
// carries a best-effort estimatedRemainingMs.
//
// Returns 404 if the job is unknown.
func GetJobHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		job, err := deps.Store.Get(id)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		api.WriteJSON(w, http.StatusOK, JobEnvelope{Job: jobView(job, time.Now())})
	}
}

// CancelJobHandler handles DELETE /api/v1/jobs/{id}
//
// Cancels a pending, queued or processing job. Cancelling a queued job
// guarantees it never runs; cancelling a processing job interrupts the worker
// and discards any late result.
//
// Returns 404 for unknown ids and 400 when the job is already terminal.
func CancelJobHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		outcome, err := deps.Queue.Cancel(id)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		log.Info().
			Str("component", "api.jobs").
			Str("job_id", id).
			Str("previous_status", string(outcome.PreviousStatus)).
			Msg("job cancelled")

		api.WriteJSON(w, http.StatusOK, CancelResponse{
			JobID:          outcome.JobID,
			PreviousStatus: outcome.PreviousStatus,
			CancelledAt:    outcome.CancelledAt,
			Reason:         "user_requested",
		})
	}
}

// ListJobsHandler handles GET /api/v1/jobs
//
// Supports filtering by userId, type and status, ordering by
// createdAt/updatedAt/completedAt in either direction, and limit/offset
// paging. The page and total come from one consistent store snapshot.
//
// Returns 400 for invalid filter values.
func ListJobsHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := ParseListJobsQuery(r)
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Invalid Input", err.Error())
			return
		}

		items, total, err := deps.Store.List(*query)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		now := time.Now()
		views := make([]JobView, 0, len(items))
		for _, job := range items {
			views = append(views, jobView(job, now))
		}

		api.WriteJSON(w, http.StatusOK, ListJobsResponse{
			Jobs: views,
			Pagination: Pagination{
				Total:   total,
				Limit:   query.Limit,
				Offset:  query.Offset,
				HasNext: query.Offset+len(items) < total,
			},
		})
	}
}

// jobView renders a job record for clients.
func jobView(job *jobs.Job, now time.Time) JobView {
	view := JobView{
		ID:        job.ID,
		Type:      job.Type,
		Status:    job.Status,
		Progress:  job.Progress,
		FileName:  job.Input.FileName,
		Result:    job.Result,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UserID:    job.UserID,
	}

	if !job.StartedAt.IsZero() {
		started := job.StartedAt
		view.StartedAt = &started
	}
	if !job.CompletedAt.IsZero() {
		completed := job.CompletedAt
		view.CompletedAt = &completed
	}

	if job.Status == jobs.StatusProcessing && job.EstimatedDuration > 0 {
		remaining := job.EstimatedDuration - now.Sub(job.StartedAt)
		if remaining < 0 {
			remaining = 0
		}
		ms := remaining.Milliseconds()
		view.EstimatedRemainingMs = &ms
	}

	return view
}

// errorStatus mirrors api.WriteError's mapping for logging purposes.
func errorStatus(err error) int {
	switch {
	case jobs.IsNotFound(err):
		return http.StatusNotFound
	case jobs.IsQueueFull(err):
		return http.StatusServiceUnavailable
	case jobs.IsInvalidInput(err):
		return http.StatusBadRequest
	case jobs.IsInvalidTransition(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// cleanupMultipart releases temp files created for large multipart bodies.
func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Debug().
				Str("component", "api.jobs").
				Err(err).
				Msg("failed to clean up multipart temp files")
		}
	}
}
