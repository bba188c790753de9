// Package config loads and validates the installer configuration.
//
// The configuration is an env-style key=value file read once at startup.
// Validation is all-or-nothing: the first missing or invalid key aborts
// the run before any destructive action, and the resulting Config value is
// never mutated afterwards.
package config

import "fmt"

// Default file name, expected next to the invoking binary so it travels
// with the tree during stage handoff.
const DefaultFile = "install.conf"

// Config is the validated, immutable installer configuration.
type Config struct {
	// Timezone is an IANA zone name, e.g. "Europe/Berlin".
	Timezone string
	// Locale is the LANG value, e.g. "en_US.UTF-8".
	Locale string
	// Hostname for the installed system.
	Hostname string
	// Encrypted selects the LUKS-on-LVM layout.
	Encrypted bool
	// SinglePartition merges home into the root partition or volume.
	SinglePartition bool
	// Desktop enables desktop-environment installation in phase two.
	Desktop bool
	// DesktopEnv names the environment from the desktop catalog.
	// Only meaningful when Desktop is set.
	DesktopEnv string
	// AdminUser is the administrator account created in phase two.
	AdminUser string
	// Keymap is the console keymap; empty keeps the default.
	Keymap string
}

// FieldError reports the specific configuration key that failed
// validation. The whole configuration is rejected on the first one.
type FieldError struct {
	Key    string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Key, e.Reason)
}

func fieldErr(key, format string, args ...any) error {
	return &FieldError{Key: key, Reason: fmt.Sprintf(format, args...)}
}
