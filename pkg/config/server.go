package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// DefaultServerConfig returns the default server configuration.
// These are sensible defaults for local development and can be overridden
// via flags, environment variables, or config files.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           "127.0.0.1",
		Port:           8080,
		APIEnabled:     true,
		SpoolDir:       "",
		MaxUploadBytes: 50 << 20,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		Queue:          DefaultQueueConfig(),
	}
}

// DefaultQueueConfig returns the default extraction queue configuration.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxConcurrent:   4,
		MaxAdmitted:     50,
		DefaultTimeout:  2 * time.Minute,
		MaxTimeout:      5 * time.Minute,
		RetentionTTL:    24 * time.Hour,
		JanitorInterval: 5 * time.Minute,
	}
}

// Validate checks the server configuration for values that would make the
// server unable to start or the queue misbehave at runtime.
func (c ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid server port %d: must be between 1 and 65535", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid max_upload_bytes %d: must be positive", c.MaxUploadBytes)
	}
	if c.Queue.MaxConcurrent < 1 {
		return fmt.Errorf("invalid queue.max_concurrent %d: must be at least 1", c.Queue.MaxConcurrent)
	}
	if c.Queue.MaxAdmitted < c.Queue.MaxConcurrent {
		return fmt.Errorf("invalid queue.max_admitted %d: must be at least max_concurrent (%d)",
			c.Queue.MaxAdmitted, c.Queue.MaxConcurrent)
	}
	if c.Queue.DefaultTimeout <= 0 {
		return fmt.Errorf("invalid queue.default_timeout %s: must be positive", c.Queue.DefaultTimeout)
	}
	if c.Queue.MaxTimeout < c.Queue.DefaultTimeout {
		return fmt.Errorf("invalid queue.max_timeout %s: must be at least default_timeout (%s)",
			c.Queue.MaxTimeout, c.Queue.DefaultTimeout)
	}
	if c.Queue.RetentionTTL <= 0 {
		return fmt.Errorf("invalid queue.retention_ttl %s: must be positive", c.Queue.RetentionTTL)
	}
	if c.Queue.JanitorInterval <= 0 {
		return fmt.Errorf("invalid queue.janitor_interval %s: must be positive", c.Queue.JanitorInterval)
	}
	return nil
}

// BindServerFlags binds server-specific flags to the provided FlagSet.
// These flags will be used by the 'deckhand server start' command.
//
// Flags are namespaced under 'server.' to avoid conflicts with global flags.
// Example: --server.addr, --server.port
//
// This function should be called when setting up the server command.
func BindServerFlags(flags *pflag.FlagSet) {
	defaults := DefaultServerConfig()

	flags.String("server.addr", defaults.Addr, "Server listen address (use 0.0.0.0 for all interfaces)")
	flags.Int("server.port", defaults.Port, "Server listen port")
	flags.Bool("server.api_enabled", defaults.APIEnabled, "Enable REST API endpoints")
	flags.String("server.spool_dir", "", "Directory for uploaded presentation files (default: temp dir)")
	flags.Int64("server.max_upload_bytes", defaults.MaxUploadBytes, "Maximum accepted upload size in bytes")
	flags.Duration("server.read_timeout", defaults.ReadTimeout, "HTTP read timeout")
	flags.Duration("server.write_timeout", defaults.WriteTimeout, "HTTP write timeout")
	flags.Int("server.queue.max_concurrent", defaults.Queue.MaxConcurrent, "Number of extraction jobs processed at once")
	flags.Int("server.queue.max_admitted", defaults.Queue.MaxAdmitted, "Admission ceiling across queued and processing jobs")
	flags.Duration("server.queue.default_timeout", defaults.Queue.DefaultTimeout, "Per-job timeout applied when the request does not set one")
	flags.Duration("server.queue.max_timeout", defaults.Queue.MaxTimeout, "Upper bound on requested per-job timeouts")
	flags.Duration("server.queue.retention_ttl", defaults.Queue.RetentionTTL, "How long finished jobs are kept before eviction")
	flags.Duration("server.queue.janitor_interval", defaults.Queue.JanitorInterval, "How often finished jobs and stale uploads are swept")
}
