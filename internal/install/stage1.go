package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/archon-install/archon/internal/disk"
	"github.com/archon-install/archon/internal/disk/engine"
	"github.com/archon-install/archon/internal/firmware"
	"github.com/archon-install/archon/internal/handoff"
	"github.com/archon-install/archon/internal/netcheck"
	"github.com/archon-install/archon/internal/platform/run"
	"github.com/archon-install/archon/internal/ui/prompt"
)

// Stage1 is the phase-one store identity.
const Stage1 = "stage1"

// ErrNotConfirmed is returned when the operator declines the device
// confirmation. No destructive command has been issued at that point.
var ErrNotConfirmed = errors.New("target device not confirmed")

// Stage1Steps returns phase one's fixed step sequence.
func Stage1Steps() []Step {
	return []Step{
		{Name: "preflight", Run: stepPreflight},
		{Name: "check-network", Run: stepCheckNetwork},
		{Name: "select-disk", Run: stepSelectDisk},
		{Name: "partition", Run: stepPartition},
		{Name: "install-base", Run: stepInstallBase},
		{Name: "generate-fstab", Run: stepGenerateFstab},
		{Name: "handoff", Run: stepHandoff},
	}
}

// stepPreflight verifies the external tools the run will need, before
// anything else happens.
func stepPreflight(c *Context) error {
	tools := []string{"lsblk", "wipefs", "parted", "partprobe", "mkfs.fat",
		"mkfs.ext4", "mkswap", "mount", "swapon", "pacstrap", "genfstab", "chroot"}
	if c.Config.Encrypted {
		tools = append(tools, "cryptsetup", "pvcreate", "vgcreate", "lvcreate")
	}
	return run.CheckTools(tools...)
}

func stepCheckNetwork(c *Context) error {
	url := c.ProbeURL
	if url == "" {
		url = netcheck.DefaultProbeURL
	}
	return netcheck.Probe(c, url)
}

// stepSelectDisk chooses and confirms the target device, validates its
// capacity, and persists the choice for resumed runs and phase two.
func stepSelectDisk(c *Context) error {
	devices, err := disk.ListDevices(c, c.Runner)
	if err != nil {
		return err
	}

	var dev disk.BlockDevice
	if c.DiskArg != "" {
		dev, err = disk.FindDevice(devices, c.DiskArg)
		if err != nil {
			return err
		}
	} else {
		if len(devices) == 0 {
			return errors.New("no candidate block devices found")
		}
		opts := make([]prompt.Option, 0, len(devices))
		for _, d := range devices {
			opts = append(opts, prompt.Option{
				Value: d.Path,
				Label: fmt.Sprintf("%s  %d GiB  %s", d.Path, d.SizeGiB(), d.Model),
			})
		}
		choice, err := c.Prompt.Select("Installation target", opts)
		if err != nil {
			return err
		}
		dev, err = disk.FindDevice(devices, choice)
		if err != nil {
			return err
		}
		ok, err := c.Prompt.Confirm(
			fmt.Sprintf("Erase %s?", dev.Path),
			"All data on the device will be destroyed. This cannot be undone.")
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotConfirmed
		}
	}

	if dev.SizeBytes < disk.MinDiskBytes {
		return &disk.CapacityError{Device: dev.Path, SizeBytes: dev.SizeBytes}
	}

	c.State.Device = dev
	c.State.Firmware = firmware.Detect()
	if err := c.Store.Carry(CarriedDisk, dev.Path); err != nil {
		return err
	}
	return c.Store.Carry(CarriedFirmware, string(c.State.Firmware))
}

// ensureDevice rehydrates the selected device and firmware mode from
// carried checkpoint values when a resumed run skipped select-disk.
func ensureDevice(c *Context) error {
	if c.State.Device.Path != "" {
		return nil
	}
	path, ok := c.Store.Carried(CarriedDisk)
	if !ok {
		return errors.New("no target device recorded in checkpoint store")
	}
	devices, err := disk.ListDevices(c, c.Runner)
	if err != nil {
		return err
	}
	dev, err := disk.FindDevice(devices, path)
	if err != nil {
		return fmt.Errorf("recorded device vanished: %w", err)
	}
	c.State.Device = dev

	if fw, ok := c.Store.Carried(CarriedFirmware); ok {
		mode, err := disk.ParseFirmware(fw)
		if err != nil {
			return err
		}
		c.State.Firmware = mode
	} else {
		c.State.Firmware = firmware.Detect()
	}
	return nil
}

// stepPartition plans the layout and lets the engine execute it. The
// engine's sub-steps carry their own checkpoints, so an interrupted
// partitioning resumes mid-sequence even though this outer step is not
// yet complete.
func stepPartition(c *Context) error {
	if err := ensureDevice(c); err != nil {
		return err
	}
	layout := disk.Plan(c.State.Firmware, c.Config.Encrypted, c.Config.SinglePartition)
	c.State.Layout = &layout

	eng := &engine.Engine{
		Runner: c.Runner,
		Store:  c.Store,
		Prompt: c.Prompt,
		Log:    c.Observer,
		Target: c.Target,
	}
	roles, err := eng.Apply(c, c.State.Device, layout)
	if err != nil {
		return err
	}
	c.State.Roles = roles
	return nil
}

// stepInstallBase provisions the minimal base system into the target.
// Package management is an external collaborator; this step only shells
// out to it.
func stepInstallBase(c *Context) error {
	packages := []string{"base", "linux", "linux-firmware", "networkmanager", "sudo", "grub"}
	if c.State.Firmware == disk.FirmwareUEFI {
		packages = append(packages, "efibootmgr")
	}
	if c.Config.Encrypted {
		packages = append(packages, "lvm2", "cryptsetup")
	}
	args := append([]string{"-K", c.Target}, packages...)
	return c.Runner.Run(c, "pacstrap", args...)
}

func stepGenerateFstab(c *Context) error {
	out, err := c.Runner.Output(c, "genfstab", "-U", c.Target)
	if err != nil {
		return err
	}
	etc := filepath.Join(c.Target, "etc")
	if err := os.MkdirAll(etc, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(etc, "fstab"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(out + "\n"); err != nil {
		return err
	}
	return f.Sync()
}

// stepHandoff stages the tree into the new root and runs phase two
// chrooted. Phase two owns its own checkpoint store; if it fails, this
// step stays incomplete and the next run re-enters a resuming phase two.
func stepHandoff(c *Context) error {
	if err := ensureDevice(c); err != nil {
		return err
	}
	sc := handoff.StageContext{
		Firmware: c.State.Firmware,
		Device:   c.State.Device.Path,
	}
	return handoff.Enter(c, c.Target, sc, c.ConfigPath)
}
