package server

import (
	"errors"
	"fmt"
)

const (
	errorCodeInvalidPort        = "SERVER_INVALID_PORT"
	errorCodeInvalidConcurrency = "SERVER_INVALID_CONCURRENCY"
	errorCodeAPIDisabled        = "SERVER_API_DISABLED"
	errorCodeConfigUnavailable  = "SERVER_CONFIG_UNAVAILABLE"
	errorCodeInvalidConfig      = "SERVER_INVALID_CONFIG"
	errorCodeSpoolInitFailed    = "SERVER_SPOOL_INIT_FAILED"
	errorCodeAppInitFailed      = "SERVER_INIT_FAILED"
	errorCodeRuntimeFailed      = "SERVER_RUNTIME_FAILED"
)

var (
	// ErrInvalidPort indicates an invalid port flag value.
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidConcurrency indicates an invalid queue concurrency value.
	ErrInvalidConcurrency = errors.New("invalid queue concurrency")
	// ErrAPIDisabled indicates the API was disabled, leaving nothing to serve.
	ErrAPIDisabled = errors.New("api disabled")
	// ErrConfigUnavailable indicates the CLI context lacked a config manager.
	ErrConfigUnavailable = errors.New("config manager unavailable")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with a server error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// NewInvalidPortError formats an invalid port error with context.
func NewInvalidPortError(port int) error {
	return WithErrorCode(fmt.Errorf("%w: invalid port %d: must be between 1 and 65535", ErrInvalidPort, port), errorCodeInvalidPort)
}

// NewInvalidConcurrencyError formats an invalid concurrency error.
func NewInvalidConcurrencyError(concurrency int) error {
	return WithErrorCode(fmt.Errorf("%w: invalid concurrency %d: must be at least 1", ErrInvalidConcurrency, concurrency), errorCodeInvalidConcurrency)
}

// NewAPIDisabledError reports a configuration that disables the whole API surface.
func NewAPIDisabledError() error {
	return WithErrorCode(fmt.Errorf("%w: cannot disable the API: the server would have nothing to serve", ErrAPIDisabled), errorCodeAPIDisabled)
}

// WrapInvalidConfig annotates server config validation errors.
func WrapInvalidConfig(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("invalid server configuration: %w", err), errorCodeInvalidConfig)
}

// WrapSpoolInit annotates upload spool initialization failures.
func WrapSpoolInit(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeSpoolInitFailed)
}

// WrapAppInit annotates server app creation failures.
func WrapAppInit(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeAppInitFailed)
}

// WrapRuntime annotates server runtime failures.
func WrapRuntime(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeRuntimeFailed)
}

// ErrorCode resolves a server error to its error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrInvalidPort):
		return errorCodeInvalidPort
	case errors.Is(err, ErrInvalidConcurrency):
		return errorCodeInvalidConcurrency
	case errors.Is(err, ErrAPIDisabled):
		return errorCodeAPIDisabled
	case errors.Is(err, ErrConfigUnavailable):
		return errorCodeConfigUnavailable
	default:
		return errorCodeRuntimeFailed
	}
}

// ExitCode maps server errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrInvalidPort),
		errors.Is(err, ErrInvalidConcurrency),
		errors.Is(err, ErrAPIDisabled):
		return 2
	case errors.Is(err, ErrConfigUnavailable):
		return 1
	case ErrorCode(err) == errorCodeSpoolInitFailed,
		ErrorCode(err) == errorCodeAppInitFailed:
		return 7
	default:
		return 1
	}
}

// HTTPStatus maps server errors to HTTP status codes.
func HTTPStatus(err error) int {
	if err == nil {
		return 200
	}

	switch {
	case errors.Is(err, ErrInvalidPort),
		errors.Is(err, ErrInvalidConcurrency),
		errors.Is(err, ErrAPIDisabled):
		return 400
	case errors.Is(err, ErrConfigUnavailable):
		return 500
	default:
		return 500
	}
}

// Suggestions provides CLI hints for server errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeInvalidPort:
		return []string{
			"Use a port between 1 and 65535",
			"Example:                 deckhand server start --port 8080",
		}
	case errorCodeInvalidConcurrency:
		return []string{
			"Set queue concurrency to at least 1",
			"Example:                 deckhand server start --queue-concurrency 4",
		}
	case errorCodeAPIDisabled:
		return []string{
			"Enable the API flag",
			"Remove --no-api",
		}
	case errorCodeConfigUnavailable:
		return []string{
			"Run via the deckhand CLI so the config manager initializes",
			"Avoid calling server start from custom scripts without init",
		}
	case errorCodeInvalidConfig:
		return []string{
			"Check configuration values in config file",
			"Retry with --verbose for detailed validation errors",
		}
	case errorCodeSpoolInitFailed:
		return []string{
			"Verify spool directory permissions",
			"Override spool directory:  deckhand server start --spool-dir <path>",
		}
	case errorCodeAppInitFailed:
		return []string{
			"Retry with verbose logging: deckhand server start --verbose",
			"Review configuration for invalid values",
		}
	case errorCodeRuntimeFailed:
		return []string{
			"Check server logs for runtime errors",
			"Ensure no other process is using the selected port",
		}
	default:
		return nil
	}
}
