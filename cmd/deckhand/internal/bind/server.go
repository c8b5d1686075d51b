package bind

import (
	"github.com/spf13/cobra"

	srv "github.com/deckhand-io/deckhand/pkg/server"
)

// ServerOptions holds configuration options for the server start command.
type ServerOptions struct {
	Addr        string
	Port        int
	NoAPI       bool
	Concurrency int
	SpoolDir    string
}

// BindServerOptions extracts and validates server command flags.
//
// This function reads the server-specific flags from the Cobra command and
// constructs a properly validated ServerOptions struct.
//
// Flags read:
//   - --addr: Server listen address (e.g., "127.0.0.1", "0.0.0.0")
//   - --port: Server listen port (1-65535)
//   - --no-api: Disable REST API endpoints (health endpoints stay mounted)
//   - --queue-concurrency: Number of concurrent extraction workers
//   - --spool-dir: Directory for uploaded presentation files
//
// Returns an error if validation fails (e.g., invalid port range, invalid concurrency).
func BindServerOptions(cmd *cobra.Command) (ServerOptions, error) {
	addr, _ := cmd.Flags().GetString("addr")
	port, _ := cmd.Flags().GetInt("port")
	noAPI, _ := cmd.Flags().GetBool("no-api")
	concurrency, _ := cmd.Flags().GetInt("queue-concurrency")
	spoolDir, _ := cmd.Flags().GetString("spool-dir")

	// Validate port range
	if port < 1 || port > 65535 {
		return ServerOptions{}, srv.NewInvalidPortError(port)
	}

	// Validate concurrency
	if concurrency < 1 {
		return ServerOptions{}, srv.NewInvalidConcurrencyError(concurrency)
	}

	opts := ServerOptions{
		Addr:        addr,
		Port:        port,
		NoAPI:       noAPI,
		Concurrency: concurrency,
		SpoolDir:    spoolDir,
	}

	return opts, nil
}
