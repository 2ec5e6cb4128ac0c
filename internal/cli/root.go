// Package cli implements the courier command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/dogmatiq/courier/internal/version"
	"github.com/spf13/cobra"
)

// NewRootCommand returns the root "courier" command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "courier",
		Short: "JSON-RPC over HTTP request transport",
		Long: `courier sends serialized JSON-RPC requests to an HTTP endpoint and reports
the outcome of each exchange.

Flags may also be set with COURIER_* environment variables, for example
COURIER_ADDRESS or COURIER_LOG_LEVEL. Variables in .env and .env.local are
loaded automatically.`,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSendCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of courier",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "courier %s\n", version.Version)
			},
		},
	)

	return root
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
