package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archon-install/archon/cmd/archon/handlers"
)

// List returns the command enumerating candidate installation targets.
func List() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List candidate block devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.List(cmd.Context())
		},
	}
}

// Clean returns the command that unmounts the target, disables swap and
// erases the checkpoint stores.
func Clean() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Unmount the target, disable swap and erase all checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Clean(cmd.Context())
		},
	}
}

// Init returns the command generating a configuration file interactively.
func Init() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate an installer configuration file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "install.conf", "where to write the configuration")
	return cmd
}

// Stage2 returns the hidden command the handoff invokes inside the new
// root. Operators never run it directly.
func Stage2() *cobra.Command {
	return &cobra.Command{
		Use:    "stage2 <UEFI|BIOS> <device>",
		Short:  "Run phase two inside the new root (invoked by the handoff)",
		Hidden: true,
		Args:   cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Stage2(cmd.Context(), args)
		},
	}
}

// Version information set at build time via SetVersionInfo.
var (
	versionStr = "dev"
	commitStr  = "none"
	dateStr    = "unknown"
)

// SetVersionInfo records build metadata for the version command.
func SetVersionInfo(version, commit, date string) {
	versionStr, commitStr, dateStr = version, commit, date
}

// Version returns the command printing build information.
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("archon %s (commit %s, built %s)\n", versionStr, commitStr, dateStr)
		},
	}
}
