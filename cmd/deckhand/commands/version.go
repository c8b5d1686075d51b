package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	v "github.com/deckhand-io/deckhand/pkg/version"
)

func newVersionCommand() *cobra.Command {
	var (
		short bool
		check bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			info := v.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", cliExecutable, info.Version)
			if short {
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", info.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Build Date: %s\n", info.BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Go Version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)

			if check {
				newer, err := v.CheckNewVersion(cmd.Context())
				switch {
				case err != nil:
					fmt.Fprintf(cmd.ErrOrStderr(), "Version check failed: %v\n", err)
				case newer != "":
					fmt.Fprintf(cmd.OutOrStdout(), "A newer release is available: %s\n", newer)
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "You are running the latest release")
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")

	return cmd
}
