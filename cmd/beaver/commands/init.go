package commands

import (
	"github.com/spf13/cobra"

	"github.com/beaver-logs/beaver/cmd/beaver/handlers"
)

// Init returns the command that creates a configuration root.
//
// Flags:
//
//	--project, -p: Google Cloud project ID
//	--region, -r: region of the job and trigger
//	--name, -n: deployment name
//	--force: overwrite an existing config.yaml
func Init() *cobra.Command {
	var opts handlers.InitOptions

	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Create a deployment configuration",
		Long: `Create a deployment configuration in <dir>.

This writes:

  - <dir>/config.yaml with the project, region and deployment name
  - <dir>/artifacts/resources.yaml, an empty resource model
  - <dir>/../beaver_config/beaver_config.yaml, a starter Vector pipeline
    fragment, unless one already exists

Values not given as flags are asked for interactively when stdin is a
terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Init(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Google Cloud project ID")
	cmd.Flags().StringVarP(&opts.Region, "region", "r", "", "Region of the Cloud Run job and Scheduler trigger")
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Deployment name used to derive resource names")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing config.yaml")

	return cmd
}
