package commands

import (
	"github.com/spf13/cobra"

	"github.com/beaver-logs/beaver/cmd/beaver/handlers"
)

// Deploy returns the deploy command.
//
// The deploy command creates every missing resource of the pipeline and
// refreshes the routing config and the job's bucket mount.
func Deploy() *cobra.Command {
	var opts handlers.DeployOptions

	cmd := &cobra.Command{
		Use:   "deploy <dir>",
		Short: "Create or update the log pipeline of a configuration root",
		Long: `Deploy provisions the pipeline described by <dir>/config.yaml.

Resources are created in dependency order:
  - BigQuery dataset and table
  - Pub/Sub topic
  - Cloud Storage bucket with the generated Vector config
  - Cloud Run job mounting the bucket
  - Cloud Scheduler trigger running the job

Resources already recorded in <dir>/artifacts/resources.yaml are kept.
Re-running deploy regenerates and uploads the Vector config and re-applies
the bucket mount, so it is safe to run after editing the pipeline fragment.

Example:
  beaver deploy ./deploy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Deploy(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Parallel, "parallel", false, "Create the table, topic and bucket concurrently")
	cmd.Flags().BoolVar(&opts.Rollback, "rollback", false, "Delete resources created by this run if it fails")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info or error (default from config.yaml)")

	return cmd
}
