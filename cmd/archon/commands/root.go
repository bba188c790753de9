// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing and flag binding. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the archon CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "archon",
		Short:         "Staged, resumable installer for a target block device",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Install())
	cmd.AddCommand(List())
	cmd.AddCommand(Clean())
	cmd.AddCommand(Init())

	cmd.AddCommand(Stage2())
	cmd.AddCommand(Version())

	return cmd
}
