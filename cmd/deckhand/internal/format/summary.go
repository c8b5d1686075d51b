// Copyright 2025 Deckhand Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// PrintTotalFailureSummary prints total failure with error and suggestions
// Example output:
//
//	✗ Failed to start server: invalid port 0: must be between 1 and 65535
//
//	💡 Suggestions:
//	  → Use a port between 1 and 65535
//	  → Example:                 deckhand server start --port 8080
func (f *formatter) PrintTotalFailureSummary(operation string, err error, errorCode string) error {
	if f.quiet {
		// Quiet mode: suppress summary
		return nil
	}

	if f.mode == ModeJSON {
		// JSON mode: structured output
		return f.PrintJSON(map[string]any{
			"success":    false,
			"operation":  operation,
			"error":      err.Error(),
			"error_code": errorCode,
		})
	}

	// Table mode: formatted error with suggestions
	var sb strings.Builder

	// Error message
	errorMsg := fmt.Sprintf("✗ Failed to %s: %v", operation, err)
	if f.color {
		sb.WriteString(color.RedString("%s\n", errorMsg))
	} else {
		sb.WriteString(fmt.Sprintf("%s\n", errorMsg))
	}

	// Suggestions based on error code
	suggestions := GetSuggestions(errorCode)
	if len(suggestions) > 0 {
		sb.WriteString("\n💡 Suggestions:\n")
		for _, s := range suggestions {
			sb.WriteString(fmt.Sprintf("  → %s\n", s))
		}
	}

	_, writeErr := f.stdout.Write([]byte(sb.String()))
	return writeErr
}

// GetSuggestions returns actionable hints based on error code
func GetSuggestions(errorCode string) []string {
	suggestions := []string{}

	switch errorCode {
	case "SERVER_INVALID_PORT":
		suggestions = append(suggestions,
			"Use a port between 1 and 65535",
			"Example:                 deckhand server start --port 8080",
		)

	case "SERVER_INVALID_CONCURRENCY":
		suggestions = append(suggestions,
			"Set queue concurrency to at least 1",
			"Example:                 deckhand server start --queue-concurrency 4",
		)

	case "SERVER_API_DISABLED":
		suggestions = append(suggestions,
			"Enable the API flag",
			"Remove --no-api",
		)

	case "SERVER_CONFIG_UNAVAILABLE":
		suggestions = append(suggestions,
			"Run via the deckhand CLI so the config manager initializes",
		)

	case "SERVER_INVALID_CONFIG":
		suggestions = append(suggestions,
			"Check configuration values in config file",
			"Retry with --verbosity for detailed validation errors",
		)

	case "SERVER_SPOOL_INIT_FAILED":
		suggestions = append(suggestions,
			"Verify spool directory permissions",
			"Override spool directory:  deckhand server start --spool-dir <path>",
		)

	case "SERVER_RUNTIME_FAILED":
		suggestions = append(suggestions,
			"Check server logs for runtime errors",
			"Ensure no other process is using the selected port",
		)
	}

	return suggestions
}
