// Package handlers implements the business logic for CLI commands.
//
// Handlers are framework-agnostic and can be tested independently of the
// CLI framework. Collaborators are bound through package-level function
// variables so tests can inject fakes.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/archon-install/archon/internal/checkpoint"
	"github.com/archon-install/archon/internal/config"
	"github.com/archon-install/archon/internal/install"
	"github.com/archon-install/archon/internal/platform/run"
	"github.com/archon-install/archon/internal/ui"
	"github.com/archon-install/archon/internal/ui/prompt"
)

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	loadConfigFile = config.LoadFile

	newRunner = func(out io.Writer) run.Runner { return run.NewExec(out) }

	newPrompter = func() (prompt.Prompter, error) { return prompt.NewTerminal() }

	newObserver = func(phase string) (install.Observer, io.Writer, func() error, error) {
		obs, err := install.NewLogObserver(phase)
		if err != nil {
			return nil, nil, nil, err
		}
		return obs, obs.Writer(), obs.Close, nil
	}

	storePath = checkpoint.DefaultPath
)

// Install runs phase one of the installation.
func Install(ctx context.Context, configPath, diskArg string) error {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}

	store := checkpoint.New(storePath(install.Stage1))
	if err := store.Load(); err != nil {
		return err
	}

	observer, logTee, closeObserver, err := newObserver(install.Stage1)
	if err != nil {
		return err
	}
	defer closeObserver()

	prompter, err := newPrompter()
	if err != nil {
		if !errors.Is(err, prompt.ErrNonInteractive) {
			return err
		}
		// Without a terminal the run can still proceed when the device
		// was given explicitly and no passphrase will be needed.
		if diskArg == "" || cfg.Encrypted {
			return err
		}
		prompter = prompt.Disabled{}
	}

	ictx := install.NewContext(ctx, cfg, store, newRunner(logTee), prompter, observer)
	ictx.ConfigPath = configPath
	ictx.DiskArg = diskArg

	if err := install.RunSteps(ictx, install.Stage1Steps()); err != nil {
		return err
	}

	fmt.Println(ui.DoneLine("Installation finished. Remove the boot media and reboot."))
	return nil
}
