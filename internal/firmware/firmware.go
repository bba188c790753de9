// Package firmware detects the boot environment of the installation host.
package firmware

import (
	"os"

	"github.com/archon-install/archon/internal/disk"
)

// efiSysfsPath exists when the kernel was booted through EFI firmware.
// Variable so tests can point it at a fixture.
var efiSysfsPath = "/sys/firmware/efi"

// Detect returns the firmware mode of the running system.
func Detect() disk.Firmware {
	if info, err := os.Stat(efiSysfsPath); err == nil && info.IsDir() {
		return disk.FirmwareUEFI
	}
	return disk.FirmwareBIOS
}
