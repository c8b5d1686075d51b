package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/deckhand-io/deckhand/pkg/jobs"
)

// ErrorResponse represents a standard JSON error response.
// Used consistently across all API endpoints for error responses.
//
// Example:
//
//	{
//	  "error": "Not Found",
//	  "message": "job with ID 'job-123' not found"
//	}
type ErrorResponse struct {
	Error   string `json:"error"`             // Short error type (e.g., "Not Found", "Internal Server Error")
	Message string `json:"message,omitempty"` // Detailed error message (optional)
}

// WriteError writes a standard JSON error response to the client.
// It automatically determines the HTTP status code based on error type:
//   - jobs.NotFoundError → 404 Not Found
//   - jobs.InvalidInputError → 400 Bad Request
//   - jobs.InvalidTransitionError → 400 Bad Request (not cancellable)
//   - jobs.QueueFullError → 503 Service Unavailable
//   - http.MaxBytesError → 413 Request Entity Too Large
//   - All other errors → 500 Internal Server Error
//
// It also logs the error with structured logging for observability.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	// Determine status code and error message based on error type
	var statusCode int
	var errorType string
	message := err.Error()

	var maxBytesErr *http.MaxBytesError
	switch {
	case jobs.IsNotFound(err):
		statusCode = http.StatusNotFound
		errorType = "Not Found"
	case jobs.IsQueueFull(err):
		statusCode = http.StatusServiceUnavailable
		errorType = "Queue Full"
	case jobs.IsInvalidInput(err):
		statusCode = http.StatusBadRequest
		errorType = "Invalid Input"
	case jobs.IsInvalidTransition(err):
		statusCode = http.StatusBadRequest
		errorType = "Invalid State"
	case errors.As(err, &maxBytesErr):
		statusCode = http.StatusRequestEntityTooLarge
		errorType = "File Too Large"
	default:
		// Generic error - return 500
		statusCode = http.StatusInternalServerError
		errorType = "Internal Server Error"
	}

	// Log the error with context
	logEvent := log.Error().
		Str("component", "api").
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", statusCode).
		Err(err)

	switch statusCode {
	case http.StatusNotFound:
		logEvent.Msg("Resource not found")
	case http.StatusServiceUnavailable:
		logEvent.Msg("Queue at capacity")
	default:
		logEvent.Msg("Request failed")
	}

	// Write error response
	w.Header().Set("Content-Type", "application/json")
	if statusCode == http.StatusServiceUnavailable {
		// Backpressure is retryable; tell well-behaved clients when.
		w.Header().Set("Retry-After", "5")
	}
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   errorType,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode error response")
	}
}

// WriteJSONError writes a custom JSON error response with a specific status code.
// Use this when you need fine-grained control over the error response.
//
// Example:
//
//	WriteJSONError(w, http.StatusBadRequest, "Invalid Input", "file part is required")
func WriteJSONError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   errorType,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode error response")
	}
}

// WriteJSON writes a JSON response to the client.
// Use this for successful API responses.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode JSON response")
	}
}
