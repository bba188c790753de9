package commands

import (
	"github.com/spf13/cobra"

	"github.com/archon-install/archon/cmd/archon/handlers"
	"github.com/archon-install/archon/internal/config"
)

// Install returns the command running phase one of the installation.
func Install() *cobra.Command {
	var (
		configPath string
		diskArg    string
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Run phase one: partition the disk, install the base system, hand off",
		Long: `Runs phase one of the installation from the boot media.

Every step is checkpointed; re-running install after a failure resumes
just past the last completed step. Use --disk to bypass the interactive
device selection and confirmation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Install(cmd.Context(), configPath, diskArg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultFile, "path to the installer configuration file")
	cmd.Flags().StringVarP(&diskArg, "disk", "d", "", "target device, bypasses interactive selection and confirmation")

	return cmd
}
