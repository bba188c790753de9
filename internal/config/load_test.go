package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-install/archon/internal/platform/run"
)

// setupFixtures points the system reference locations at a temporary tree
// containing one zone, two locales and one keymap.
func setupFixtures(t *testing.T) {
	t.Helper()
	root := t.TempDir()

	zones := filepath.Join(root, "zoneinfo", "Europe")
	require.NoError(t, os.MkdirAll(zones, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(zones, "Berlin"), []byte("TZif"), 0o644))

	supported := filepath.Join(root, "SUPPORTED")
	require.NoError(t, os.WriteFile(supported, []byte(
		"# comment\nen_US.UTF-8 UTF-8\nde_DE.UTF-8 UTF-8\n"), 0o644))

	keymaps := filepath.Join(root, "keymaps", "i386", "qwertz")
	require.NoError(t, os.MkdirAll(keymaps, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(keymaps, "de-latin1.map.gz"), []byte{0x1f, 0x8b}, 0o644))

	oldZone, oldLocale, oldKeymaps, oldRunner := zoneinfoDir, localeCatalog, keymapsDir, localeRunner
	zoneinfoDir = filepath.Join(root, "zoneinfo")
	localeCatalog = supported
	keymapsDir = filepath.Join(root, "keymaps")
	localeRunner = run.NewFake()
	t.Cleanup(func() {
		zoneinfoDir, localeCatalog, keymapsDir, localeRunner = oldZone, oldLocale, oldKeymaps, oldRunner
	})
}

func validRaw() map[string]string {
	return map[string]string{
		KeyTimezone:        "Europe/Berlin",
		KeyLocale:          "en_US.UTF-8",
		KeyHostname:        "archbox",
		KeyEncrypted:       "no",
		KeySinglePartition: "no",
		KeyDesktop:         "no",
	}
}

func TestParseValid(t *testing.T) {
	setupFixtures(t)

	cfg, err := Parse(validRaw())
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, "en_US.UTF-8", cfg.Locale)
	assert.Equal(t, "archbox", cfg.Hostname)
	assert.False(t, cfg.Encrypted)
	assert.False(t, cfg.SinglePartition)
	assert.False(t, cfg.Desktop)
	assert.Equal(t, "admin", cfg.AdminUser, "admin user defaults when unset")
}

func TestParseOptionalKeys(t *testing.T) {
	setupFixtures(t)

	raw := validRaw()
	raw[KeyEncrypted] = "yes"
	raw[KeyDesktop] = "yes"
	raw[KeyDesktopEnv] = "gnome"
	raw[KeyAdminUser] = "ops"
	raw[KeyKeymap] = "de-latin1"

	cfg, err := Parse(raw)
	require.NoError(t, err)
	assert.True(t, cfg.Encrypted)
	assert.True(t, cfg.Desktop)
	assert.Equal(t, "gnome", cfg.DesktopEnv)
	assert.Equal(t, "ops", cfg.AdminUser)
	assert.Equal(t, "de-latin1", cfg.Keymap)
}

func TestParseRejections(t *testing.T) {
	setupFixtures(t)

	tests := []struct {
		name    string
		mutate  func(map[string]string)
		wantKey string
	}{
		{"missing timezone", func(m map[string]string) { delete(m, KeyTimezone) }, KeyTimezone},
		{"unknown timezone", func(m map[string]string) { m[KeyTimezone] = "Europe/Atlantis" }, KeyTimezone},
		{"directory instead of zone", func(m map[string]string) { m[KeyTimezone] = "Europe" }, KeyTimezone},
		{"path traversal timezone", func(m map[string]string) { m[KeyTimezone] = "../etc/passwd" }, KeyTimezone},
		{"missing locale", func(m map[string]string) { delete(m, KeyLocale) }, KeyLocale},
		{"unknown locale", func(m map[string]string) { m[KeyLocale] = "xx_XX.UTF-8" }, KeyLocale},
		{"missing hostname", func(m map[string]string) { delete(m, KeyHostname) }, KeyHostname},
		{"bad hostname", func(m map[string]string) { m[KeyHostname] = "Arch Box!" }, KeyHostname},
		{"missing encryption flag", func(m map[string]string) { delete(m, KeyEncrypted) }, KeyEncrypted},
		{"non yes/no flag", func(m map[string]string) { m[KeyEncrypted] = "true" }, KeyEncrypted},
		{"desktop without environment", func(m map[string]string) { m[KeyDesktop] = "yes" }, KeyDesktopEnv},
		{"unsupported environment", func(m map[string]string) {
			m[KeyDesktop] = "yes"
			m[KeyDesktopEnv] = "enlightenment"
		}, KeyDesktopEnv},
		{"bad admin user", func(m map[string]string) { m[KeyAdminUser] = "9admin" }, KeyAdminUser},
		{"unknown keymap", func(m map[string]string) { m[KeyKeymap] = "qwerty-mars" }, KeyKeymap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(raw)

			_, err := Parse(raw)
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.wantKey, fieldErr.Key)
		})
	}
}

// A locale already generated on the running system passes even when the
// catalog does not list it; `locale -a` spells codesets without dashes.
func TestLocaleKnownViaSystemTool(t *testing.T) {
	setupFixtures(t)
	fake := run.NewFake()
	fake.Stub("locale -a", "C\nPOSIX\nen_GB.utf8\n")
	localeRunner = fake

	raw := validRaw()
	raw[KeyLocale] = "en_GB.UTF-8"
	_, err := Parse(raw)
	assert.NoError(t, err)
}

func TestLocaleFallsBackToCatalogWithoutTool(t *testing.T) {
	setupFixtures(t)
	fake := run.NewFake()
	fake.Fail("locale -a", run.Errf("locale: not found"))
	localeRunner = fake

	raw := validRaw()
	raw[KeyLocale] = "de_DE.UTF-8"
	_, err := Parse(raw)
	assert.NoError(t, err)
}

func TestLoadFile(t *testing.T) {
	setupFixtures(t)

	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(
		"TIMEZONE=Europe/Berlin\n"+
			"LANG=de_DE.UTF-8\n"+
			"HOSTNAME=archbox\n"+
			"LUKS_AND_LVM=yes\n"+
			"SINGLE_PARTITION=yes\n"+
			"DESKTOP=no\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "de_DE.UTF-8", cfg.Locale)
	assert.True(t, cfg.Encrypted)
	assert.True(t, cfg.SinglePartition)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.conf"))
	assert.Error(t, err)
}
