package disk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/archon-install/archon/internal/platform/run"
)

// BlockDevice is one candidate installation target as reported by lsblk.
type BlockDevice struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size"`
	Model     string `json:"model"`
	Removable bool   `json:"rm"`
	Type      string `json:"type"`
}

// SizeGiB returns the device capacity in whole GiB.
func (d BlockDevice) SizeGiB() int64 {
	return d.SizeBytes >> 30
}

type lsblkOutput struct {
	BlockDevices []BlockDevice `json:"blockdevices"`
}

// ListDevices enumerates whole disks on the host via lsblk. Partitions,
// loop devices and optical drives are excluded.
func ListDevices(ctx context.Context, r run.Runner) ([]BlockDevice, error) {
	out, err := r.Output(ctx, "lsblk", "--json", "--bytes", "--nodeps",
		"--output", "NAME,PATH,SIZE,MODEL,RM,TYPE")
	if err != nil {
		return nil, fmt.Errorf("enumerating block devices: %w", err)
	}

	var parsed lsblkOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, fmt.Errorf("parsing lsblk output: %w", err)
	}

	var disks []BlockDevice
	for _, d := range parsed.BlockDevices {
		if d.Type != "disk" {
			continue
		}
		if d.Path == "" {
			d.Path = "/dev/" + d.Name
		}
		disks = append(disks, d)
	}
	return disks, nil
}

// FindDevice returns the device whose path or name matches target.
func FindDevice(devices []BlockDevice, target string) (BlockDevice, error) {
	for _, d := range devices {
		if d.Path == target || d.Name == target || "/dev/"+d.Name == target {
			return d, nil
		}
	}
	return BlockDevice{}, fmt.Errorf("block device %q not found", target)
}
