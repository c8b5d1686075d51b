package bind

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	srv "github.com/deckhand-io/deckhand/pkg/server"
)

func newServerFlagsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "start"}
	cmd.Flags().String("addr", "127.0.0.1", "")
	cmd.Flags().Int("port", 8080, "")
	cmd.Flags().Bool("no-api", false, "")
	cmd.Flags().Int("queue-concurrency", 4, "")
	cmd.Flags().String("spool-dir", "", "")
	return cmd
}

func TestBindServerOptions(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*cobra.Command)
		expected ServerOptions
	}{
		{
			name:  "defaults",
			setup: func(cmd *cobra.Command) {},
			expected: ServerOptions{
				Addr:        "127.0.0.1",
				Port:        8080,
				Concurrency: 4,
			},
		},
		{
			name: "all flags set",
			setup: func(cmd *cobra.Command) {
				_ = cmd.Flags().Set("addr", "0.0.0.0")
				_ = cmd.Flags().Set("port", "9090")
				_ = cmd.Flags().Set("no-api", "true")
				_ = cmd.Flags().Set("queue-concurrency", "8")
				_ = cmd.Flags().Set("spool-dir", "/var/lib/deckhand/spool")
			},
			expected: ServerOptions{
				Addr:        "0.0.0.0",
				Port:        9090,
				NoAPI:       true,
				Concurrency: 8,
				SpoolDir:    "/var/lib/deckhand/spool",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newServerFlagsCommand()
			tt.setup(cmd)

			opts, err := BindServerOptions(cmd)
			require.NoError(t, err)
			require.Equal(t, tt.expected, opts)
		})
	}
}

func TestBindServerOptions_InvalidPort(t *testing.T) {
	for _, port := range []string{"0", "-1", "70000"} {
		cmd := newServerFlagsCommand()
		require.NoError(t, cmd.Flags().Set("port", port))

		_, err := BindServerOptions(cmd)
		require.Error(t, err)
		require.ErrorIs(t, err, srv.ErrInvalidPort)
	}
}

func TestBindServerOptions_InvalidConcurrency(t *testing.T) {
	cmd := newServerFlagsCommand()
	require.NoError(t, cmd.Flags().Set("queue-concurrency", "0"))

	_, err := BindServerOptions(cmd)
	require.Error(t, err)
	require.ErrorIs(t, err, srv.ErrInvalidConcurrency)
}
