// Package main is the entry point for the archon installer.
//
// archon drives an unattended, two-phase operating-system installation
// onto a target block device. Phase one runs from the installation media:
// it validates the configuration, plans and executes the disk layout,
// installs the base system and hands off into the new root. Phase two runs
// chrooted inside the target and finishes configuration. Both phases
// checkpoint every step, so a failed run resumes where it stopped.
//
// For usage information, run:
//
//	archon --help
package main

import (
	"fmt"
	"os"

	"github.com/archon-install/archon/cmd/archon/commands"
	"github.com/archon-install/archon/internal/ui"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorLine(err))
		os.Exit(1)
	}
}
