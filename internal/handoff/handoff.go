// Package handoff transfers execution from the installation media into the
// freshly created root. It stages the working tree inside the target,
// bind-mounts the kernel filesystems, and runs phase two chrooted with an
// explicit StageContext instead of inherited ambient state.
package handoff

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/archon-install/archon/internal/config"
	"github.com/archon-install/archon/internal/disk"
)

// StageDir is the directory inside the new root holding the staged tree.
// Phase two finds its binary, configuration and checkpoint file here.
const StageDir = "/archon"

// StageContext is the minimal state that crosses the chroot boundary.
// It is serialized as the positional arguments of the stage2 command.
type StageContext struct {
	Firmware disk.Firmware
	Device   string
}

// Args serializes the context for the stage2 invocation.
func (c StageContext) Args() []string {
	return []string{string(c.Firmware), c.Device}
}

// Parse rebuilds a StageContext from stage2's positional arguments.
func Parse(args []string) (StageContext, error) {
	if len(args) != 2 {
		return StageContext{}, fmt.Errorf("stage2 expects exactly 2 arguments (firmware mode, device), got %d", len(args))
	}
	fw, err := disk.ParseFirmware(args[0])
	if err != nil {
		return StageContext{}, err
	}
	if args[1] == "" {
		return StageContext{}, fmt.Errorf("stage2 device argument is empty")
	}
	return StageContext{Firmware: fw, Device: args[1]}, nil
}

// bindMounts are the kernel filesystems phase two needs inside the chroot.
var bindMounts = []struct {
	source string
	fstype string
	flags  uintptr
}{
	{source: "proc", fstype: "proc"},
	{source: "/sys", flags: unix.MS_BIND | unix.MS_REC},
	{source: "/dev", flags: unix.MS_BIND | unix.MS_REC},
	{source: "/run", flags: unix.MS_BIND},
}

// Enter stages the working tree into target and executes phase two
// chrooted, streaming its output through the real process streams so the
// operator sees phase two directly, bypassing any log redirection. The
// staged checkpoint file from a previous interrupted phase two is left in
// place so the child resumes.
func Enter(ctx context.Context, target string, sc StageContext, configPath string) error {
	if err := stageTree(target, configPath); err != nil {
		return err
	}

	if err := mountKernelFilesystems(target); err != nil {
		return err
	}
	defer unmountKernelFilesystems(target)

	args := append([]string{target, filepath.Join(StageDir, "archon"), "stage2"}, sc.Args()...)
	cmd := exec.CommandContext(ctx, "chroot", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("phase two failed: %w", err)
	}
	return nil
}

// stageTree copies the running binary and the configuration into the
// stage directory. The configuration always lands under its default name,
// whatever it was called on the boot media; phase two resolves it by that
// fixed name next to the staged binary.
func stageTree(target, configPath string) error {
	stage := filepath.Join(target, StageDir)
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return fmt.Errorf("creating stage directory: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating installer binary: %w", err)
	}
	if err := copyFile(exe, filepath.Join(stage, "archon"), 0o755); err != nil {
		return fmt.Errorf("staging installer binary: %w", err)
	}
	if err := copyFile(configPath, filepath.Join(stage, config.DefaultFile), 0o644); err != nil {
		return fmt.Errorf("staging configuration: %w", err)
	}
	return nil
}

func mountKernelFilesystems(target string) error {
	for _, m := range bindMounts {
		dest := filepath.Join(target, mountName(m.source))
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dest, err)
		}
		if err := unix.Mount(m.source, dest, m.fstype, m.flags, ""); err != nil {
			return fmt.Errorf("mounting %s on %s: %w", m.source, dest, err)
		}
	}
	return nil
}

func unmountKernelFilesystems(target string) {
	// Reverse order; lazy detach tolerates busy recursive trees.
	for i := len(bindMounts) - 1; i >= 0; i-- {
		dest := filepath.Join(target, mountName(bindMounts[i].source))
		_ = unix.Unmount(dest, unix.MNT_DETACH)
	}
}

func mountName(source string) string {
	if source == "proc" {
		return "proc"
	}
	return filepath.Base(source)
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
