package install

import (
	"context"

	"github.com/archon-install/archon/internal/checkpoint"
	"github.com/archon-install/archon/internal/config"
	"github.com/archon-install/archon/internal/disk"
	"github.com/archon-install/archon/internal/disk/engine"
	"github.com/archon-install/archon/internal/platform/run"
	"github.com/archon-install/archon/internal/ui/prompt"
)

// Carried-value keys shared between phases.
const (
	CarriedDisk     = "DISK"
	CarriedFirmware = "FIRMWARE"
)

// DefaultTarget is where the new root is assembled during phase one.
const DefaultTarget = "/mnt"

// State holds the results steps hand to later steps. It is progressively
// populated as the sequence advances and rehydrated from carried
// checkpoint values when a run resumes past the step that produced it.
type State struct {
	Device   disk.BlockDevice
	Firmware disk.Firmware
	Layout   *disk.Layout
	Roles    engine.RoleDevices
}

// Context wraps everything a step needs: the validated configuration, the
// phase's checkpoint store, the command runner, the prompter and the
// observer. One Context lives for the whole phase.
type Context struct {
	context.Context
	Config   *config.Config
	Store    *checkpoint.Store
	Runner   run.Runner
	Prompt   prompt.Prompter
	Observer Observer
	State    *State

	// Target is the new root's mount point during phase one. Phase two
	// runs chrooted, so its target is "/".
	Target string

	// ConfigPath is the configuration file staged into the new root
	// during handoff.
	ConfigPath string

	// DiskArg bypasses interactive device selection and confirmation
	// when set (the --disk flag).
	DiskArg string

	// ProbeURL overrides the connectivity probe endpoint.
	ProbeURL string
}

// NewContext assembles a phase context with defaults applied.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	store *checkpoint.Store,
	runner run.Runner,
	prompter prompt.Prompter,
	observer Observer,
) *Context {
	return &Context{
		Context:  ctx,
		Config:   cfg,
		Store:    store,
		Runner:   runner,
		Prompt:   prompter,
		Observer: observer,
		State:    &State{},
		Target:   DefaultTarget,
	}
}
