package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/archon-install/archon/internal/checkpoint"
	"github.com/archon-install/archon/internal/config"
	"github.com/archon-install/archon/internal/disk"
	"github.com/archon-install/archon/internal/handoff"
	"github.com/archon-install/archon/internal/install"
	"github.com/archon-install/archon/internal/ui"
)

// Stage2 runs phase two inside the new root. The stage context arrives as
// the positional arguments of the handoff; configuration and checkpoint
// files sit next to the staged binary.
func Stage2(ctx context.Context, args []string) error {
	sc, err := handoff.Parse(args)
	if err != nil {
		return err
	}

	configPath, err := stagedConfigPath()
	if err != nil {
		return err
	}
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}

	store := checkpoint.New(storePath(install.Stage2))
	if err := store.Load(); err != nil {
		return err
	}

	observer, logTee, closeObserver, err := newObserver(install.Stage2)
	if err != nil {
		return err
	}

	prompter, err := newPrompter()
	if err != nil {
		closeObserver()
		return err
	}

	ictx := install.NewContext(ctx, cfg, store, newRunner(logTee), prompter, observer)
	ictx.ConfigPath = configPath
	ictx.Target = "/"
	ictx.State.Firmware = sc.Firmware
	ictx.State.Device = disk.BlockDevice{Path: sc.Device}

	if err := install.RunSteps(ictx, install.Stage2Steps(cfg)); err != nil {
		closeObserver()
		return err
	}
	closeObserver()

	// Drop the remaining staged files (checkpoints, logs); the binary
	// and configuration were removed by the cleanup step.
	_ = os.RemoveAll(handoff.StageDir)

	fmt.Println(ui.DoneLine("System configuration complete."))
	return nil
}

func stagedConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating staged binary: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), config.DefaultFile), nil
}
