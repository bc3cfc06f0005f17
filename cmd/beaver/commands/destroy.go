package commands

import (
	"github.com/spf13/cobra"

	"github.com/beaver-logs/beaver/cmd/beaver/handlers"
)

// Destroy returns the destroy command.
func Destroy() *cobra.Command {
	var opts handlers.DestroyOptions

	cmd := &cobra.Command{
		Use:   "destroy <dir>",
		Short: "Delete the log pipeline of a configuration root",
		Long: `Destroy deletes every resource recorded for <dir>.

Resources are deleted in reverse dependency order:
  - Cloud Scheduler trigger
  - Cloud Run job
  - Cloud Storage bucket and its objects
  - Pub/Sub topic
  - BigQuery dataset and its tables

Resources that no longer exist are skipped. On success the resource model
is cleared, so the next deploy starts from scratch.

WARNING: This operation is irreversible. All collected log data is lost.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Destroy(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info or error (default from config.yaml)")

	return cmd
}
