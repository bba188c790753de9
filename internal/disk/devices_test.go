package disk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-install/archon/internal/platform/run"
)

const lsblkFixture = `{
  "blockdevices": [
    {"name":"sda","path":"/dev/sda","size":500107862016,"model":"Samsung SSD 870","rm":false,"type":"disk"},
    {"name":"sda1","path":"/dev/sda1","size":1073741824,"model":null,"rm":false,"type":"part"},
    {"name":"sr0","path":"/dev/sr0","size":1073741824,"model":"DVD-RW","rm":true,"type":"rom"},
    {"name":"nvme0n1","path":"/dev/nvme0n1","size":1024209543168,"model":"WD_BLACK SN850","rm":false,"type":"disk"},
    {"name":"loop0","path":"/dev/loop0","size":734003200,"model":null,"rm":false,"type":"loop"}
  ]
}`

func TestListDevicesFiltersToWholeDisks(t *testing.T) {
	fake := run.NewFake()
	fake.Stub("lsblk", lsblkFixture)

	devices, err := ListDevices(context.Background(), fake)
	require.NoError(t, err)
	require.Len(t, devices, 2, "partitions, optical drives and loop devices are excluded")

	assert.Equal(t, "/dev/sda", devices[0].Path)
	assert.Equal(t, int64(465), devices[0].SizeGiB())
	assert.Equal(t, "/dev/nvme0n1", devices[1].Path)
	assert.Equal(t, "WD_BLACK SN850", devices[1].Model)
}

func TestListDevicesBadOutput(t *testing.T) {
	fake := run.NewFake()
	fake.Stub("lsblk", "lsblk: not found")

	_, err := ListDevices(context.Background(), fake)
	assert.Error(t, err)
}

func TestListDevicesCommandFailure(t *testing.T) {
	fake := run.NewFake()
	fake.Fail("lsblk", run.Errf("exit status 1"))

	_, err := ListDevices(context.Background(), fake)
	assert.Error(t, err)
}

func TestFindDevice(t *testing.T) {
	devices := []BlockDevice{
		{Name: "sda", Path: "/dev/sda"},
		{Name: "nvme0n1", Path: "/dev/nvme0n1"},
	}

	byPath, err := FindDevice(devices, "/dev/nvme0n1")
	require.NoError(t, err)
	assert.Equal(t, "nvme0n1", byPath.Name)

	byName, err := FindDevice(devices, "sda")
	require.NoError(t, err)
	assert.Equal(t, "/dev/sda", byName.Path)

	_, err = FindDevice(devices, "/dev/vdz")
	assert.Error(t, err)
}

func TestCapacityErrorMessage(t *testing.T) {
	err := &CapacityError{Device: "/dev/sda", SizeBytes: 30 << 30}
	assert.Contains(t, err.Error(), "/dev/sda")
	assert.Contains(t, err.Error(), "30 GiB")
	assert.Contains(t, err.Error(), "40 GiB")
}
