package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/archon-install/archon/internal/checkpoint"
	"github.com/archon-install/archon/internal/config"
	"github.com/archon-install/archon/internal/config/wizard"
	"github.com/archon-install/archon/internal/disk"
	"github.com/archon-install/archon/internal/install"
	"github.com/archon-install/archon/internal/ui"
)

// List prints the candidate installation targets.
func List(ctx context.Context) error {
	devices, err := disk.ListDevices(ctx, newRunner(os.Stdout))
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No block devices found.")
		return nil
	}
	fmt.Print(ui.DeviceTable(devices))
	return nil
}

// Clean returns the machine to a restartable state: target mounts are
// detached, swap is disabled, and both phases' checkpoint stores are
// erased so the next run starts from scratch. Mount teardown is best
// effort since a partial run may not have gotten that far.
func Clean(ctx context.Context) error {
	runner := newRunner(os.Stdout)
	if err := runner.Run(ctx, "swapoff", "--all"); err != nil {
		fmt.Println("swap already disabled")
	}
	if err := runner.Run(ctx, "umount", "--recursive", install.DefaultTarget); err != nil {
		fmt.Println("target not mounted")
	}
	if err := runner.Run(ctx, "vgchange", "--activate", "n"); err == nil {
		_ = runner.Run(ctx, "cryptsetup", "close", "cryptsys")
	}

	for _, phase := range []string{install.Stage1, install.Stage2} {
		store := checkpoint.New(storePath(phase))
		if err := store.Reset(); err != nil {
			return err
		}
	}

	fmt.Println(ui.DoneLine("Checkpoints erased; the next run starts clean."))
	return nil
}

// Init interactively generates a configuration file and validates it the
// same way install will.
func Init(ctx context.Context, output string) error {
	answers, err := wizard.Run(ctx)
	if err != nil {
		return err
	}
	if err := wizard.Write(output, answers); err != nil {
		return err
	}
	if _, err := config.LoadFile(output); err != nil {
		return fmt.Errorf("generated configuration failed validation: %w", err)
	}
	fmt.Println(ui.DoneLine("Wrote " + output))
	return nil
}
