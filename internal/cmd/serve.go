package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/BANCS-Norway/session-coordinator/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coordination tool server on stdio",
	Long: `Run the long-lived tool server. Requests arrive as one JSON object
per line on stdin ({"id", "tool", "args"}) and responses are written as
one JSON object per line on stdout. The session context lives for the
lifetime of the process.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	coord, cleanup, err := buildCoordinator(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	// Release the slot on orderly shutdown so it does not stay taken.
	defer coord.SignOff(ctx)

	srv := server.New(coord, nil, os.Stdin, os.Stdout)
	return srv.Run(ctx)
}
