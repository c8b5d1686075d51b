package app

import (
	"github.com/rs/zerolog"

	"github.com/deckhand-io/deckhand/pkg/config"
	"github.com/deckhand-io/deckhand/pkg/extract"
)

// Deps holds dependencies for the server application.
// This pattern enables dependency injection and easier testing.
type Deps struct {
	// Extractor performs the actual presentation processing.
	// Nil selects the built-in Office Open XML extractor.
	Extractor extract.Extractor

	// Config manager for runtime configuration
	Config *config.Manager

	// Logger for structured logging (injected by caller)
	Logger zerolog.Logger
}
