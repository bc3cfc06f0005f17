// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the beaver CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beaver",
		Short: "Provision a Vector to BigQuery log pipeline on Google Cloud",
		// main prints the error once and maps it to an exit code.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(Init())
	cmd.AddCommand(Deploy())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
