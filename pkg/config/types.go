// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for the Deckhand application.
// It aggregates all other specific configuration structs.
type Config struct {
	Log    LogConfig    `description:"Logging configuration" koanf:"log"`   // Logging configuration
	Server ServerConfig `description:"Server configuration" koanf:"server"` // Server configuration
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level applied to deckhand logs." koanf:"level"`  // Log level (e.g., "debug", "info", "warn", "error")
	Format string `description:"Deckhand log format: json | text" koanf:"format"`    // Log format (e.g., "json", "text")
	File   string `description:"Log file path" koanf:"file"`                         // Log file path (optional)
}

// ServerConfig holds configuration for the Deckhand server runtime.
// Used by 'deckhand server start' command.
type ServerConfig struct {
	// Network settings
	Addr string `description:"Server listen address" koanf:"addr"`
	Port int    `description:"Server listen port" koanf:"port"`

	// Component toggles
	APIEnabled bool `description:"Enable REST API endpoints" koanf:"api_enabled"`

	// Paths
	SpoolDir string `description:"Directory for uploaded presentation files" koanf:"spool_dir"`

	// Upload limits
	MaxUploadBytes int64 `description:"Maximum accepted upload size in bytes" koanf:"max_upload_bytes"`

	// HTTP timeouts
	ReadTimeout  time.Duration `description:"HTTP read timeout" koanf:"read_timeout"`
	WriteTimeout time.Duration `description:"HTTP write timeout" koanf:"write_timeout"`

	// Sub-configurations
	Queue QueueConfig `description:"Extraction queue configuration" koanf:"queue"`
}

// QueueConfig holds extraction queue and worker pool configuration.
type QueueConfig struct {
	MaxConcurrent   int           `description:"Number of extraction jobs processed at once" koanf:"max_concurrent"`
	MaxAdmitted     int           `description:"Admission ceiling across queued and processing jobs" koanf:"max_admitted"`
	DefaultTimeout  time.Duration `description:"Per-job timeout applied when the request does not set one" koanf:"default_timeout"`
	MaxTimeout      time.Duration `description:"Upper bound on requested per-job timeouts" koanf:"max_timeout"`
	RetentionTTL    time.Duration `description:"How long finished jobs are kept before eviction" koanf:"retention_ttl"`
	JanitorInterval time.Duration `description:"How often finished jobs and stale uploads are swept" koanf:"janitor_interval"`
}
