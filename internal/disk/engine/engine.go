// Package engine executes a disk.Layout against a real block device.
//
// Every sub-step is checkpointed, so a run interrupted between wipe and
// mount resumes exactly where it stopped. The engine contains no layout
// decisions; it only carries out what the planner produced. Failures abort
// immediately and nothing rolls back destructive steps already performed.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/archon-install/archon/internal/checkpoint"
	"github.com/archon-install/archon/internal/disk"
	"github.com/archon-install/archon/internal/platform/run"
	"github.com/archon-install/archon/internal/ui/prompt"
	"github.com/archon-install/archon/internal/util/retry"
)

// Observer receives progress lines from the engine.
type Observer interface {
	Printf(format string, args ...any)
}

// RoleDevices maps each data role to the device node that carries it.
// Built explicitly from the layout, never re-derived from enumeration
// order.
type RoleDevices map[disk.Role]string

// CarriedKey returns the checkpoint key persisting the device for a role.
func CarriedKey(role disk.Role) string {
	return "DEV_" + strings.ToUpper(string(role))
}

// Engine applies a layout to one device through checkpointed sub-steps.
type Engine struct {
	Runner run.Runner
	Store  *checkpoint.Store
	Prompt prompt.Prompter
	Log    Observer

	// Target is the mount point for the new root; boot and home are
	// mounted beneath it.
	Target string

	// passphrase is held between the format and open sub-steps of a
	// single run so the operator is not asked twice.
	passphrase string
}

// Sub-step checkpoint names. Stable across runs and configurations.
const (
	StepWipe       = "disk-wipe"
	StepTable      = "disk-table"
	StepPartitions = "disk-partitions"
	StepLuksFormat = "luks-format"
	StepLuksOpen   = "luks-open"
	StepVG         = "disk-vg"
	StepLVs        = "disk-lvs"
	StepFormat     = "disk-format"
	StepMount      = "disk-mount"
)

// Apply partitions, formats and mounts device according to layout and
// returns the explicit role-to-device table. The capacity precondition is
// enforced before any mutating command is issued.
func (e *Engine) Apply(ctx context.Context, device disk.BlockDevice, layout disk.Layout) (RoleDevices, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("refusing invalid layout: %w", err)
	}
	if device.SizeBytes < disk.MinDiskBytes {
		return nil, &disk.CapacityError{Device: device.Path, SizeBytes: device.SizeBytes}
	}

	roles := RolesFor(device.Path, layout)

	type subStep struct {
		name string
		skip bool
		body func(context.Context) error
	}
	steps := []subStep{
		{name: StepWipe, body: func(ctx context.Context) error { return e.wipe(ctx, device.Path) }},
		{name: StepTable, body: func(ctx context.Context) error { return e.table(ctx, device.Path, layout) }},
		{name: StepPartitions, body: func(ctx context.Context) error { return e.partitions(ctx, device.Path, layout) }},
		{name: StepLuksFormat, skip: !layout.Encrypted(), body: func(ctx context.Context) error {
			return e.luksFormat(ctx, roles[disk.RoleContainer])
		}},
		{name: StepLuksOpen, skip: !layout.Encrypted(), body: func(ctx context.Context) error {
			return e.luksOpen(ctx, roles[disk.RoleContainer], layout.VolumeGroup.Mapper)
		}},
		{name: StepVG, skip: !layout.Encrypted(), body: func(ctx context.Context) error {
			return e.volumeGroup(ctx, layout.VolumeGroup)
		}},
		{name: StepLVs, skip: !layout.Encrypted(), body: func(ctx context.Context) error {
			return e.logicalVolumes(ctx, layout.VolumeGroup)
		}},
		{name: StepFormat, body: func(ctx context.Context) error { return e.format(ctx, layout, roles) }},
		{name: StepMount, body: func(ctx context.Context) error { return e.mount(ctx, layout, roles) }},
	}

	for _, s := range steps {
		if s.skip {
			continue
		}
		if e.Store.IsComplete(s.name) {
			e.Log.Printf("[%s] already complete, skipping", s.name)
			continue
		}
		e.Log.Printf("[%s] starting", s.name)
		if err := s.body(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		if err := e.Store.MarkComplete(s.name, e.carriedFor(s.name, roles)); err != nil {
			return nil, err
		}
		e.Log.Printf("[%s] completed", s.name)
	}

	return roles, nil
}

// RolesFor builds the role table for the layout on device. Partition
// numbers follow creation order; logical volumes live under /dev/mapper.
func RolesFor(device string, layout disk.Layout) RoleDevices {
	roles := make(RoleDevices)
	for i, p := range layout.Partitions {
		roles[p.Role] = disk.PartitionPath(device, i+1)
	}
	if vg := layout.VolumeGroup; vg != nil {
		for _, v := range vg.Volumes {
			roles[v.Role] = filepath.Join("/dev/mapper", vg.Name+"-"+v.Name)
		}
	}
	return roles
}

// carriedFor persists the role table once the partitions (or volumes)
// exist, so phase two and resumed runs can read it back.
func (e *Engine) carriedFor(step string, roles RoleDevices) map[string]string {
	if step != StepPartitions && step != StepLVs {
		return nil
	}
	extra := make(map[string]string)
	for role, dev := range roles {
		extra[CarriedKey(role)] = dev
	}
	return extra
}

func (e *Engine) wipe(ctx context.Context, device string) error {
	return e.Runner.Run(ctx, "wipefs", "--all", device)
}

func (e *Engine) table(ctx context.Context, device string, layout disk.Layout) error {
	return e.Runner.Run(ctx, "parted", "--script", device, "mklabel", string(layout.Table))
}

func (e *Engine) partitions(ctx context.Context, device string, layout disk.Layout) error {
	for i, p := range layout.Partitions {
		end := "100%"
		if p.EndMiB != disk.SizeRemainder {
			end = fmt.Sprintf("%dMiB", p.EndMiB)
		}
		name := p.Label
		if layout.Table == disk.TableMBR {
			name = "primary"
		}
		args := []string{"--script", device, "mkpart", name}
		if fs := partedFsType(p.Filesystem); fs != "" {
			args = append(args, fs)
		}
		args = append(args, fmt.Sprintf("%dMiB", p.StartMiB), end)
		if err := e.Runner.Run(ctx, "parted", args...); err != nil {
			return err
		}
		if p.Role == disk.RoleBoot {
			flag := "esp"
			if layout.Table == disk.TableMBR {
				flag = "boot"
			}
			if err := e.Runner.Run(ctx, "parted", "--script", device, "set", fmt.Sprintf("%d", i+1), flag, "on"); err != nil {
				return err
			}
		}
	}
	// The kernel can hold the old table busy for a moment right after
	// parted; partprobe settles with a short backoff.
	return retry.WithExponentialBackoff(ctx, func() error {
		return e.Runner.Run(ctx, "partprobe", device)
	}, partprobeBackoff...)
}

// partprobeBackoff bounds the partition-table reread retries; variable so
// tests do not sleep.
var partprobeBackoff = []retry.Option{
	retry.WithMaxRetries(3),
	retry.WithInitialDelay(500 * time.Millisecond),
	retry.WithMaxDelay(2 * time.Second),
}

func partedFsType(fs disk.Filesystem) string {
	switch fs {
	case disk.FSFat32:
		return "fat32"
	case disk.FSSwap:
		return "linux-swap"
	case disk.FSExt4:
		return "ext4"
	}
	return ""
}

func (e *Engine) luksFormat(ctx context.Context, device string) error {
	return retry.Interactive(ctx, func() error {
		pass, err := e.Prompt.NewSecret("Encryption passphrase",
			"Protects the system container on "+device)
		if err != nil {
			return retry.Fatal(err)
		}
		if err := e.Runner.RunInput(ctx, pass, "cryptsetup", "luksFormat",
			"--type", "luks2", "--batch-mode", "--key-file=-", device); err != nil {
			e.Log.Printf("luksFormat rejected input: %v", err)
			return err
		}
		e.passphrase = pass
		return nil
	})
}

func (e *Engine) luksOpen(ctx context.Context, device, mapper string) error {
	return retry.Interactive(ctx, func() error {
		pass := e.passphrase
		if pass == "" {
			p, err := e.Prompt.Secret("Encryption passphrase",
				"Unlocks the system container on "+device)
			if err != nil {
				return retry.Fatal(err)
			}
			pass = p
		}
		if err := e.Runner.RunInput(ctx, pass, "cryptsetup", "open",
			"--key-file=-", device, mapper); err != nil {
			e.Log.Printf("container did not open: %v", err)
			e.passphrase = ""
			return err
		}
		return nil
	})
}

func (e *Engine) volumeGroup(ctx context.Context, vg *disk.VGSpec) error {
	mapper := filepath.Join("/dev/mapper", vg.Mapper)
	if err := e.Runner.Run(ctx, "pvcreate", mapper); err != nil {
		return err
	}
	return e.Runner.Run(ctx, "vgcreate", vg.Name, mapper)
}

func (e *Engine) logicalVolumes(ctx context.Context, vg *disk.VGSpec) error {
	for _, v := range vg.Volumes {
		var args []string
		if v.SizeMiB == disk.SizeRemainder {
			args = []string{"--extents", "100%FREE"}
		} else {
			args = []string{"--size", fmt.Sprintf("%dM", v.SizeMiB)}
		}
		args = append(args, "--name", v.Name, vg.Name)
		if err := e.Runner.Run(ctx, "lvcreate", args...); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) format(ctx context.Context, layout disk.Layout, roles RoleDevices) error {
	formatOne := func(role disk.Role, fs disk.Filesystem, label string) error {
		dev := roles[role]
		switch fs {
		case disk.FSFat32:
			return e.Runner.Run(ctx, "mkfs.fat", "-F32", dev)
		case disk.FSSwap:
			return e.Runner.Run(ctx, "mkswap", dev)
		case disk.FSExt4:
			return e.Runner.Run(ctx, "mkfs.ext4", "-F", "-L", label, dev)
		}
		return fmt.Errorf("no formatter for filesystem %q", fs)
	}

	for _, p := range layout.Partitions {
		if p.Role == disk.RoleContainer {
			continue
		}
		if err := formatOne(p.Role, p.Filesystem, p.Label); err != nil {
			return err
		}
	}
	if vg := layout.VolumeGroup; vg != nil {
		for _, v := range vg.Volumes {
			if err := formatOne(v.Role, v.Filesystem, v.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// mount attaches the new filesystems in role order: root first, then boot
// and home beneath it, then swap.
func (e *Engine) mount(ctx context.Context, layout disk.Layout, roles RoleDevices) error {
	if err := e.Runner.Run(ctx, "mount", roles[disk.RoleRoot], e.Target); err != nil {
		return err
	}
	if err := e.Runner.Run(ctx, "mount", "--mkdir", roles[disk.RoleBoot], filepath.Join(e.Target, "boot")); err != nil {
		return err
	}
	if home, ok := roles[disk.RoleHome]; ok {
		if err := e.Runner.Run(ctx, "mount", "--mkdir", home, filepath.Join(e.Target, "home")); err != nil {
			return err
		}
	}
	return e.Runner.Run(ctx, "swapon", roles[disk.RoleSwap])
}
