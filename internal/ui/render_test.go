package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/archon-install/archon/internal/disk"
)

func TestStatusLines(t *testing.T) {
	assert.Contains(t, ErrorLine(errors.New("disk on fire")), "disk on fire")
	assert.Contains(t, ErrorLine(errors.New("x")), "[FAILED]")
	assert.Contains(t, DoneLine("finished"), "[OK]")
}

func TestDeviceTable(t *testing.T) {
	out := DeviceTable([]disk.BlockDevice{
		{Path: "/dev/sda", SizeBytes: 500 << 30, Model: "Samsung SSD"},
		{Path: "/dev/vdb", SizeBytes: 20 << 30, Model: "small volume"},
	})
	assert.Contains(t, out, "/dev/sda")
	assert.Contains(t, out, "Samsung SSD")
	assert.Contains(t, out, "below 40 GiB minimum")
}
