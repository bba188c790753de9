package config

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/archon-install/archon/internal/desktop"
	"github.com/archon-install/archon/internal/platform/run"
)

// System reference locations, variables so tests can point them at
// fixtures.
var (
	zoneinfoDir     = "/usr/share/zoneinfo"
	localeCatalog   = "/usr/share/i18n/SUPPORTED"
	keymapsDir      = "/usr/share/kbd/keymaps"
	hostnamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	usernamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)
)

// localeRunner shells out to the system locale tool; variable so tests
// inject a fake.
var localeRunner run.Runner = run.NewExec(nil)

// Validate checks every field against system-observable reference data and
// the closed option sets. The first violation is returned as a FieldError
// naming the offending key.
func (c *Config) Validate() error {
	if c.Timezone == "" {
		return fieldErr(KeyTimezone, "missing")
	}
	if strings.HasPrefix(c.Timezone, "/") || strings.Contains(c.Timezone, "..") {
		return fieldErr(KeyTimezone, "malformed zone name %q", c.Timezone)
	}
	info, err := os.Stat(filepath.Join(zoneinfoDir, c.Timezone))
	if err != nil {
		return fieldErr(KeyTimezone, "zone %q not found under %s", c.Timezone, zoneinfoDir)
	}
	// "Europe" alone names a directory in the tree, not a zone.
	if !info.Mode().IsRegular() {
		return fieldErr(KeyTimezone, "%q is not a zone file", c.Timezone)
	}

	if c.Locale == "" {
		return fieldErr(KeyLocale, "missing")
	}
	known, err := localeKnown(c.Locale)
	if err != nil {
		return fieldErr(KeyLocale, "cannot read locale catalog: %v", err)
	}
	if !known {
		return fieldErr(KeyLocale, "locale %q not in system catalog", c.Locale)
	}

	if c.Hostname == "" {
		return fieldErr(KeyHostname, "missing")
	}
	if !hostnamePattern.MatchString(c.Hostname) {
		return fieldErr(KeyHostname, "%q is not a valid hostname", c.Hostname)
	}

	if c.Desktop {
		if c.DesktopEnv == "" {
			return fieldErr(KeyDesktopEnv, "required when %s=yes", KeyDesktop)
		}
		if _, ok := desktop.Lookup(c.DesktopEnv); !ok {
			return fieldErr(KeyDesktopEnv, "%q is not supported (one of: %s)",
				c.DesktopEnv, strings.Join(desktop.Names(), ", "))
		}
	}

	if !usernamePattern.MatchString(c.AdminUser) {
		return fieldErr(KeyAdminUser, "%q is not a valid login name", c.AdminUser)
	}

	if c.Keymap != "" {
		found, err := keymapKnown(c.Keymap)
		if err != nil {
			return fieldErr(KeyKeymap, "cannot search keymaps: %v", err)
		}
		if !found {
			return fieldErr(KeyKeymap, "keymap %q not found under %s", c.Keymap, keymapsDir)
		}
	}

	return nil
}

// localeKnown reports whether locale is usable: listed by `locale -a` on
// the running system, or present in the catalog of generatable locales.
// The tool only lists already-generated locales, so the catalog is
// consulted as well, and alone when the tool is unavailable.
func localeKnown(locale string) (bool, error) {
	if out, err := localeRunner.Output(context.Background(), "locale", "-a"); err == nil {
		for _, line := range strings.Split(out, "\n") {
			if localeEqual(strings.TrimSpace(line), locale) {
				return true, nil
			}
		}
	}
	return localeInCatalog(locale)
}

// localeEqual compares locale names ignoring codeset spelling: `locale -a`
// prints en_US.utf8 where the catalog says en_US.UTF-8.
func localeEqual(a, b string) bool {
	norm := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(s), "-", "")
	}
	return a != "" && norm(a) == norm(b)
}

// localeInCatalog scans the system locale catalog. Catalog lines look
// like "en_US.UTF-8 UTF-8"; the first column matches.
func localeInCatalog(locale string) (bool, error) {
	f, err := os.Open(localeCatalog)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 && fields[0] == locale {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// keymapKnown searches the console keymap tree for "<name>.map.gz".
func keymapKnown(name string) (bool, error) {
	want := name + ".map.gz"
	found := false
	err := filepath.WalkDir(keymapsDir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == want {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found, err
}
