package install

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/archon-install/archon/internal/config"
	"github.com/archon-install/archon/internal/desktop"
	"github.com/archon-install/archon/internal/disk"
	"github.com/archon-install/archon/internal/disk/engine"
	"github.com/archon-install/archon/internal/handoff"
	"github.com/archon-install/archon/internal/util/retry"
)

// Stage2 is the phase-two store identity. Phase two runs chrooted inside
// the new root with its own checkpoint store, so resuming it never
// re-runs phase one.
const Stage2 = "stage2"

// Stage2Steps returns phase two's fixed step sequence for cfg.
// Conditional steps keep stable names so re-runs with the same
// configuration resume correctly.
func Stage2Steps(cfg *config.Config) []Step {
	steps := []Step{
		{Name: "set-timezone", Run: stepTimezone},
		{Name: "set-locale", Run: stepLocale},
		{Name: "set-hostname", Run: stepHostname},
		{Name: "set-root-password", Run: stepRootPassword},
		{Name: "create-admin-user", Run: stepAdminUser},
	}
	if cfg.Encrypted {
		steps = append(steps, Step{Name: "configure-initramfs", Run: stepInitramfs})
	}
	steps = append(steps,
		Step{Name: "install-bootloader", Run: stepBootloader},
		Step{Name: "enable-services", Run: stepServices},
	)
	if cfg.Desktop {
		steps = append(steps, Step{Name: "install-desktop", Run: stepDesktop})
	}
	steps = append(steps, Step{Name: "cleanup", Run: stepCleanup})
	return steps
}

func stepTimezone(c *Context) error {
	zone := filepath.Join("/usr/share/zoneinfo", c.Config.Timezone)
	if err := c.Runner.Run(c, "ln", "-sf", zone, "/etc/localtime"); err != nil {
		return err
	}
	return c.Runner.Run(c, "hwclock", "--systohc")
}

func stepLocale(c *Context) error {
	entry := c.Config.Locale + " " + localeCharset(c.Config.Locale)
	if err := appendLine("/etc/locale.gen", entry); err != nil {
		return err
	}
	if err := c.Runner.Run(c, "locale-gen"); err != nil {
		return err
	}
	if err := os.WriteFile("/etc/locale.conf", []byte("LANG="+c.Config.Locale+"\n"), 0o644); err != nil {
		return err
	}
	if c.Config.Keymap != "" {
		return os.WriteFile("/etc/vconsole.conf", []byte("KEYMAP="+c.Config.Keymap+"\n"), 0o644)
	}
	return nil
}

func localeCharset(locale string) string {
	if i := strings.IndexByte(locale, '.'); i >= 0 {
		return locale[i+1:]
	}
	return "UTF-8"
}

func stepHostname(c *Context) error {
	host := c.Config.Hostname
	if err := os.WriteFile("/etc/hostname", []byte(host+"\n"), 0o644); err != nil {
		return err
	}
	hosts := fmt.Sprintf("127.0.0.1\tlocalhost\n::1\t\tlocalhost\n127.0.1.1\t%s\n", host)
	return os.WriteFile("/etc/hosts", []byte(hosts), 0o644)
}

// stepRootPassword assigns the root password, re-prompting until the
// system accepts it.
func stepRootPassword(c *Context) error {
	return setPassword(c, "root")
}

// stepAdminUser creates the administrator account, assigns its password
// and grants it wheel sudo access. Account creation tolerates a re-run
// that was interrupted after useradd.
func stepAdminUser(c *Context) error {
	user := c.Config.AdminUser
	if _, err := c.Runner.Output(c, "id", "-u", user); err != nil {
		if err := c.Runner.Run(c, "useradd", "-m", "-G", "wheel", user); err != nil {
			return err
		}
	}
	if err := setPassword(c, user); err != nil {
		return err
	}
	sudoers := "%wheel ALL=(ALL:ALL) ALL\n"
	return os.WriteFile("/etc/sudoers.d/10-wheel", []byte(sudoers), 0o440)
}

func setPassword(c *Context, user string) error {
	return retry.Interactive(c, func() error {
		pass, err := c.Prompt.NewSecret("Password for "+user, "")
		if err != nil {
			return retry.Fatal(err)
		}
		if err := c.Runner.RunInput(c, user+":"+pass+"\n", "chpasswd"); err != nil {
			c.Observer.Warnf("password for %s rejected: %v", user, err)
			return err
		}
		return nil
	})
}

var hooksPattern = regexp.MustCompile(`(?m)^HOOKS=\(.*\)$`)

// stepInitramfs rebuilds the initramfs with the encrypt and lvm2 hooks so
// the kernel can open the container and activate the volume group at boot.
func stepInitramfs(c *Context) error {
	const hooks = `HOOKS=(base udev autodetect modconf kms keyboard keymap consolefont block encrypt lvm2 filesystems fsck)`
	if err := editFile("/etc/mkinitcpio.conf", func(data []byte) []byte {
		return hooksPattern.ReplaceAll(data, []byte(hooks))
	}); err != nil {
		return err
	}
	return c.Runner.Run(c, "mkinitcpio", "-P")
}

var cmdlinePattern = regexp.MustCompile(`(?m)^GRUB_CMDLINE_LINUX=".*"$`)

// stepBootloader installs GRUB for the firmware mode recorded in the
// stage context. With encryption the kernel command line is pointed at
// the container by UUID and the root volume by mapper path.
func stepBootloader(c *Context) error {
	if c.Config.Encrypted {
		layout := disk.Plan(c.State.Firmware, true, c.Config.SinglePartition)
		roles := engine.RolesFor(c.State.Device.Path, layout)
		container := roles[disk.RoleContainer]

		uuid, err := c.Runner.Output(c, "blkid", "-s", "UUID", "-o", "value", container)
		if err != nil {
			return fmt.Errorf("reading container UUID: %w", err)
		}
		cmdline := fmt.Sprintf(`GRUB_CMDLINE_LINUX="cryptdevice=UUID=%s:%s root=%s"`,
			uuid, layout.VolumeGroup.Mapper, roles[disk.RoleRoot])
		if err := editFile("/etc/default/grub", func(data []byte) []byte {
			return cmdlinePattern.ReplaceAll(data, []byte(cmdline))
		}); err != nil {
			return err
		}
	}

	switch c.State.Firmware {
	case disk.FirmwareUEFI:
		if err := c.Runner.Run(c, "grub-install", "--target=x86_64-efi",
			"--efi-directory=/boot", "--bootloader-id=GRUB"); err != nil {
			return err
		}
	default:
		if err := c.Runner.Run(c, "grub-install", "--target=i386-pc", c.State.Device.Path); err != nil {
			return err
		}
	}
	return c.Runner.Run(c, "grub-mkconfig", "-o", "/boot/grub/grub.cfg")
}

func stepServices(c *Context) error {
	return c.Runner.Run(c, "systemctl", "enable", "NetworkManager")
}

// stepDesktop installs the selected environment from the desktop catalog
// and enables its display manager.
func stepDesktop(c *Context) error {
	env, ok := desktop.Lookup(c.Config.DesktopEnv)
	if !ok {
		return fmt.Errorf("desktop environment %q not in catalog", c.Config.DesktopEnv)
	}
	args := append([]string{"-S", "--noconfirm", "--needed"}, env.Packages...)
	if err := c.Runner.Run(c, "pacman", args...); err != nil {
		return err
	}
	return c.Runner.Run(c, "systemctl", "enable", env.DisplayManager)
}

// stepCleanup removes the staged binary and configuration from the
// installed system. The checkpoint and log files go when the stage
// directory is dropped after the sequence finishes.
func stepCleanup(c *Context) error {
	for _, name := range []string{"archon", config.DefaultFile} {
		if err := os.Remove(filepath.Join(handoff.StageDir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func editFile(path string, edit func([]byte) []byte) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, edit(data), info.Mode().Perm())
}
