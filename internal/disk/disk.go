package disk

import (
	"fmt"
	"strings"
	"unicode"
)

// Firmware identifies the boot environment of the installation host.
// It determines the partition table type and bootloader installation path.
type Firmware string

const (
	// FirmwareUEFI boots through EFI firmware and requires a GPT table.
	FirmwareUEFI Firmware = "UEFI"
	// FirmwareBIOS boots through legacy BIOS and uses an MBR table.
	FirmwareBIOS Firmware = "BIOS"
)

// ParseFirmware converts a string (e.g. a stage-handoff argument) into a
// Firmware value.
func ParseFirmware(s string) (Firmware, error) {
	switch Firmware(strings.ToUpper(s)) {
	case FirmwareUEFI:
		return FirmwareUEFI, nil
	case FirmwareBIOS:
		return FirmwareBIOS, nil
	}
	return "", fmt.Errorf("unknown firmware mode %q (expected UEFI or BIOS)", s)
}

// Role describes what a partition or logical volume is for.
type Role string

const (
	RoleBoot      Role = "boot"
	RoleSwap      Role = "swap"
	RoleRoot      Role = "root"
	RoleHome      Role = "home"
	RoleContainer Role = "container"
)

// Filesystem identifies the filesystem (or filesystem-like format) placed
// on a partition or logical volume.
type Filesystem string

const (
	FSFat32 Filesystem = "fat32"
	FSExt4  Filesystem = "ext4"
	FSSwap  Filesystem = "swap"
	// FSLuks marks the encrypted container partition. The filesystems of
	// the volumes inside it are described by the volume group spec.
	FSLuks Filesystem = "luks"
)

// TableType is the partition table written to the device.
type TableType string

const (
	TableGPT TableType = "gpt"
	TableMBR TableType = "msdos"
)

// Size constants for the fixed portions of every layout, in MiB.
const (
	// AlignMiB is the offset of the first partition; 1 MiB alignment.
	AlignMiB = 1
	// BootMiB is the size of the FAT32 boot partition.
	BootMiB = 1024
	// SwapMiB is the size of the swap partition or logical volume.
	SwapMiB = 4096
	// RootMiB is the size of the root partition or logical volume in
	// dual-partition mode. In single-partition mode root spans the
	// remaining space instead.
	RootMiB = 30720
)

// MinDiskBytes is the smallest target device the installer accepts.
// Enforced before any destructive operation.
const MinDiskBytes = 40 << 30

// SizeRemainder marks a partition or volume that spans all remaining space.
const SizeRemainder = 0

// PartitionSpec describes one partition to create on the target device.
// StartMiB/EndMiB are absolute offsets from the beginning of the device;
// EndMiB == SizeRemainder means the partition extends to the end of the disk.
type PartitionSpec struct {
	Role       Role
	Filesystem Filesystem
	Label      string
	StartMiB   int64
	EndMiB     int64
}

// LVSpec describes one logical volume inside the volume group.
// SizeMiB == SizeRemainder means the volume takes all remaining extents.
type LVSpec struct {
	Name       string
	Role       Role
	Filesystem Filesystem
	SizeMiB    int64
}

// VGSpec describes the volume group created inside the encrypted container.
type VGSpec struct {
	Name    string
	Mapper  string // device-mapper name for the opened container
	Volumes []LVSpec
}

// Layout is the complete plan for a target device: the partition table
// type, the ordered partitions, and (when encryption is enabled) the
// volume group carved out of the container partition. A Layout is produced
// once by Plan and consumed exactly once by the engine.
type Layout struct {
	Table       TableType
	Partitions  []PartitionSpec
	VolumeGroup *VGSpec
}

// Encrypted reports whether the layout places swap/root/home inside an
// encrypted container.
func (l *Layout) Encrypted() bool {
	return l.VolumeGroup != nil
}

// Roles returns every role in the layout in creation order, with container
// contents expanded after the container itself.
func (l *Layout) Roles() []Role {
	var roles []Role
	for _, p := range l.Partitions {
		roles = append(roles, p.Role)
	}
	if l.VolumeGroup != nil {
		for _, v := range l.VolumeGroup.Volumes {
			roles = append(roles, v.Role)
		}
	}
	return roles
}

// DataRoles returns the roles that end up carrying a mountable filesystem
// or swap space, i.e. every role except the container.
func (l *Layout) DataRoles() []Role {
	var roles []Role
	for _, r := range l.Roles() {
		if r != RoleContainer {
			roles = append(roles, r)
		}
	}
	return roles
}

// Validate checks the structural invariants of a layout: partition
// boundaries strictly increasing and contiguous, exactly one boot, swap and
// root role, and at most one home role.
func (l *Layout) Validate() error {
	if len(l.Partitions) == 0 {
		return fmt.Errorf("layout has no partitions")
	}
	prevEnd := int64(AlignMiB)
	for i, p := range l.Partitions {
		if p.StartMiB != prevEnd {
			return fmt.Errorf("partition %d (%s) starts at %d MiB, expected %d MiB", i+1, p.Role, p.StartMiB, prevEnd)
		}
		if p.EndMiB != SizeRemainder {
			if p.EndMiB <= p.StartMiB {
				return fmt.Errorf("partition %d (%s) has non-positive extent [%d, %d)", i+1, p.Role, p.StartMiB, p.EndMiB)
			}
			prevEnd = p.EndMiB
		} else if i != len(l.Partitions)-1 {
			return fmt.Errorf("partition %d (%s) spans the remainder but is not last", i+1, p.Role)
		}
	}

	counts := map[Role]int{}
	for _, r := range l.Roles() {
		counts[r]++
	}
	for _, r := range []Role{RoleBoot, RoleSwap, RoleRoot} {
		if counts[r] != 1 {
			return fmt.Errorf("layout has %d %s roles, want exactly 1", counts[r], r)
		}
	}
	if counts[RoleHome] > 1 {
		return fmt.Errorf("layout has %d home roles, want at most 1", counts[RoleHome])
	}
	return nil
}

// PartitionPath returns the device node of partition n on device. Devices
// whose name ends in a digit (nvme0n1, mmcblk0) use a "p" separator.
func PartitionPath(device string, n int) string {
	if device != "" && unicode.IsDigit(rune(device[len(device)-1])) {
		return fmt.Sprintf("%sp%d", device, n)
	}
	return fmt.Sprintf("%s%d", device, n)
}
