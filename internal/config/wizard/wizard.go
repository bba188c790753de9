// Package wizard interactively builds an installer configuration file.
package wizard

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/archon-install/archon/internal/config"
	"github.com/archon-install/archon/internal/desktop"
)

// Answers holds the raw values collected from the operator, keyed by
// configuration key. Validation happens when the written file is loaded.
type Answers map[string]string

// Run walks the operator through every configuration key.
func Run(ctx context.Context) (Answers, error) {
	var (
		timezone  = "Europe/Berlin"
		locale    = "en_US.UTF-8"
		hostname  string
		adminUser = "admin"
		encrypted bool
		single    bool
		desktopOn bool
		de        string
	)

	deOpts := make([]huh.Option[string], 0, len(desktop.Names()))
	for _, name := range desktop.Names() {
		env, _ := desktop.Lookup(name)
		deOpts = append(deOpts, huh.NewOption(env.Label, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Timezone").
				Description("IANA zone name, e.g. Europe/Berlin").
				Value(&timezone),
			huh.NewInput().
				Title("Locale").
				Description("LANG value, e.g. en_US.UTF-8").
				Value(&locale),
			huh.NewInput().
				Title("Hostname").
				Placeholder("archbox").
				Value(&hostname),
			huh.NewInput().
				Title("Administrator account").
				Value(&adminUser),
		).Title("System"),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Encrypt the disk?").
				Description("LUKS container with LVM volumes inside").
				Value(&encrypted),
			huh.NewConfirm().
				Title("Single partition?").
				Description("Merge /home into the root partition").
				Value(&single),
		).Title("Disk"),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Install a desktop environment?").
				Value(&desktopOn),
			huh.NewSelect[string]().
				Title("Desktop environment").
				Options(deOpts...).
				Value(&de),
		).Title("Desktop"),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("configuration wizard: %w", err)
	}

	answers := Answers{
		config.KeyTimezone:        timezone,
		config.KeyLocale:          locale,
		config.KeyHostname:        hostname,
		config.KeyAdminUser:       adminUser,
		config.KeyEncrypted:       yesNo(encrypted),
		config.KeySinglePartition: yesNo(single),
		config.KeyDesktop:         yesNo(desktopOn),
	}
	if desktopOn {
		answers[config.KeyDesktopEnv] = de
	}
	return answers, nil
}

// Write renders the answers as an env-style configuration file.
func Write(path string, answers Answers) error {
	order := []string{
		config.KeyTimezone, config.KeyLocale, config.KeyHostname,
		config.KeyAdminUser, config.KeyEncrypted, config.KeySinglePartition,
		config.KeyDesktop, config.KeyDesktopEnv, config.KeyKeymap,
	}
	var b strings.Builder
	b.WriteString("# archon installer configuration\n")
	for _, key := range order {
		if v, ok := answers[key]; ok {
			fmt.Fprintf(&b, "%s=%s\n", key, v)
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
