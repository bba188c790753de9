package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// Keys recognized in the configuration file.
const (
	KeyTimezone        = "TIMEZONE"
	KeyLocale          = "LANG"
	KeyHostname        = "HOSTNAME"
	KeyEncrypted       = "LUKS_AND_LVM"
	KeySinglePartition = "SINGLE_PARTITION"
	KeyDesktop         = "DESKTOP"
	KeyDesktopEnv      = "DE"
	KeyAdminUser       = "ADMIN_USER"
	KeyKeymap          = "KEYMAP"
)

// LoadFile reads, parses and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	raw, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds a Config from raw key/values and validates it.
func Parse(raw map[string]string) (*Config, error) {
	cfg := &Config{
		Timezone:   raw[KeyTimezone],
		Locale:     raw[KeyLocale],
		Hostname:   raw[KeyHostname],
		DesktopEnv: raw[KeyDesktopEnv],
		AdminUser:  raw[KeyAdminUser],
		Keymap:     raw[KeyKeymap],
	}
	if cfg.AdminUser == "" {
		cfg.AdminUser = "admin"
	}

	for _, f := range []struct {
		key  string
		dest *bool
	}{
		{KeyEncrypted, &cfg.Encrypted},
		{KeySinglePartition, &cfg.SinglePartition},
		{KeyDesktop, &cfg.Desktop},
	} {
		v, ok := raw[f.key]
		if !ok || v == "" {
			return nil, fieldErr(f.key, "missing (must be yes or no)")
		}
		switch v {
		case "yes":
			*f.dest = true
		case "no":
			*f.dest = false
		default:
			return nil, fieldErr(f.key, "must be exactly yes or no, got %q", v)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
