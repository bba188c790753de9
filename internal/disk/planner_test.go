package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allCombinations() []struct {
	name      string
	firmware  Firmware
	encrypted bool
	single    bool
} {
	var combos []struct {
		name      string
		firmware  Firmware
		encrypted bool
		single    bool
	}
	for _, fw := range []Firmware{FirmwareUEFI, FirmwareBIOS} {
		for _, enc := range []bool{false, true} {
			for _, single := range []bool{false, true} {
				name := string(fw)
				if enc {
					name += "/encrypted"
				} else {
					name += "/plain"
				}
				if single {
					name += "/single"
				} else {
					name += "/dual"
				}
				combos = append(combos, struct {
					name      string
					firmware  Firmware
					encrypted bool
					single    bool
				}{name, fw, enc, single})
			}
		}
	}
	return combos
}

func TestPlanRoleCounts(t *testing.T) {
	for _, tt := range allCombinations() {
		t.Run(tt.name, func(t *testing.T) {
			layout := Plan(tt.firmware, tt.encrypted, tt.single)
			require.NoError(t, layout.Validate())

			counts := map[Role]int{}
			for _, r := range layout.DataRoles() {
				counts[r]++
			}
			assert.Equal(t, 1, counts[RoleBoot])
			assert.Equal(t, 1, counts[RoleSwap])
			assert.Equal(t, 1, counts[RoleRoot])
			if tt.single {
				assert.Equal(t, 0, counts[RoleHome], "single-partition mode must not have a home role")
				assert.Len(t, layout.DataRoles(), 3)
			} else {
				assert.Equal(t, 1, counts[RoleHome])
				assert.Len(t, layout.DataRoles(), 4)
			}
		})
	}
}

func TestPlanTableTypeFollowsFirmware(t *testing.T) {
	assert.Equal(t, TableGPT, Plan(FirmwareUEFI, false, false).Table)
	assert.Equal(t, TableMBR, Plan(FirmwareBIOS, false, false).Table)
}

func TestPlanEncryptedLayoutShape(t *testing.T) {
	for _, single := range []bool{false, true} {
		layout := Plan(FirmwareUEFI, true, single)

		require.Len(t, layout.Partitions, 2, "encrypted layouts have boot plus one container partition")
		assert.Equal(t, RoleBoot, layout.Partitions[0].Role)
		assert.Equal(t, FSFat32, layout.Partitions[0].Filesystem)
		assert.Equal(t, RoleContainer, layout.Partitions[1].Role)
		assert.Equal(t, FSLuks, layout.Partitions[1].Filesystem)
		assert.EqualValues(t, SizeRemainder, layout.Partitions[1].EndMiB)

		require.NotNil(t, layout.VolumeGroup)
		vols := layout.VolumeGroup.Volumes
		require.NotEmpty(t, vols)
		assert.Equal(t, RoleSwap, vols[0].Role)
		assert.EqualValues(t, SwapMiB, vols[0].SizeMiB)
	}
}

// UEFI, plain, dual-partition: boot 1 GiB FAT32, swap 4 GiB, root 30 GiB
// ext4, home spanning the remainder.
func TestPlanPlainDualScenario(t *testing.T) {
	layout := Plan(FirmwareUEFI, false, false)
	require.NoError(t, layout.Validate())
	require.Len(t, layout.Partitions, 4)

	boot, swap, root, home := layout.Partitions[0], layout.Partitions[1], layout.Partitions[2], layout.Partitions[3]

	assert.Equal(t, RoleBoot, boot.Role)
	assert.EqualValues(t, BootMiB, boot.EndMiB-boot.StartMiB)

	assert.Equal(t, RoleSwap, swap.Role)
	assert.EqualValues(t, SwapMiB, swap.EndMiB-swap.StartMiB)

	assert.Equal(t, RoleRoot, root.Role)
	assert.Equal(t, FSExt4, root.Filesystem)
	assert.EqualValues(t, RootMiB, root.EndMiB-root.StartMiB)

	assert.Equal(t, RoleHome, home.Role)
	assert.Equal(t, FSExt4, home.Filesystem)
	assert.EqualValues(t, SizeRemainder, home.EndMiB)
}

// BIOS, encrypted, single-partition: boot plus container holding a 4 GiB
// swap volume and a root volume taking the remainder; no home role.
func TestPlanEncryptedSingleBIOSScenario(t *testing.T) {
	layout := Plan(FirmwareBIOS, true, true)
	require.NoError(t, layout.Validate())

	assert.Equal(t, TableMBR, layout.Table)
	require.NotNil(t, layout.VolumeGroup)
	require.Len(t, layout.VolumeGroup.Volumes, 2)

	swap, root := layout.VolumeGroup.Volumes[0], layout.VolumeGroup.Volumes[1]
	assert.Equal(t, RoleSwap, swap.Role)
	assert.EqualValues(t, SwapMiB, swap.SizeMiB)
	assert.Equal(t, RoleRoot, root.Role)
	assert.EqualValues(t, SizeRemainder, root.SizeMiB)

	assert.NotContains(t, layout.Roles(), RoleHome)
}

func TestPlanBoundariesStrictlyIncreasing(t *testing.T) {
	for _, tt := range allCombinations() {
		t.Run(tt.name, func(t *testing.T) {
			layout := Plan(tt.firmware, tt.encrypted, tt.single)
			prevEnd := int64(AlignMiB)
			for i, p := range layout.Partitions {
				assert.Equal(t, prevEnd, p.StartMiB, "partition %d must start where the previous ended", i+1)
				if p.EndMiB != SizeRemainder {
					assert.Greater(t, p.EndMiB, p.StartMiB)
					prevEnd = p.EndMiB
				} else {
					assert.Equal(t, len(layout.Partitions)-1, i, "only the last partition may span the remainder")
				}
			}
		})
	}
}

func TestPartitionPath(t *testing.T) {
	tests := []struct {
		device string
		n      int
		want   string
	}{
		{"/dev/sda", 1, "/dev/sda1"},
		{"/dev/vdb", 3, "/dev/vdb3"},
		{"/dev/nvme0n1", 2, "/dev/nvme0n1p2"},
		{"/dev/mmcblk0", 1, "/dev/mmcblk0p1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PartitionPath(tt.device, tt.n))
	}
}

func TestLayoutValidateRejectsBrokenLayouts(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
	}{
		{
			name:   "empty",
			layout: Layout{Table: TableGPT},
		},
		{
			name: "gap between partitions",
			layout: Layout{Table: TableGPT, Partitions: []PartitionSpec{
				{Role: RoleBoot, Filesystem: FSFat32, StartMiB: AlignMiB, EndMiB: AlignMiB + BootMiB},
				{Role: RoleSwap, Filesystem: FSSwap, StartMiB: AlignMiB + BootMiB + 10, EndMiB: SizeRemainder},
			}},
		},
		{
			name: "remainder not last",
			layout: Layout{Table: TableGPT, Partitions: []PartitionSpec{
				{Role: RoleBoot, Filesystem: FSFat32, StartMiB: AlignMiB, EndMiB: SizeRemainder},
				{Role: RoleRoot, Filesystem: FSExt4, StartMiB: AlignMiB, EndMiB: SizeRemainder},
			}},
		},
		{
			name: "missing swap",
			layout: Layout{Table: TableGPT, Partitions: []PartitionSpec{
				{Role: RoleBoot, Filesystem: FSFat32, StartMiB: AlignMiB, EndMiB: AlignMiB + BootMiB},
				{Role: RoleRoot, Filesystem: FSExt4, StartMiB: AlignMiB + BootMiB, EndMiB: SizeRemainder},
			}},
		},
		{
			name: "two roots",
			layout: Layout{Table: TableGPT, Partitions: []PartitionSpec{
				{Role: RoleBoot, Filesystem: FSFat32, StartMiB: AlignMiB, EndMiB: AlignMiB + BootMiB},
				{Role: RoleSwap, Filesystem: FSSwap, StartMiB: AlignMiB + BootMiB, EndMiB: AlignMiB + BootMiB + SwapMiB},
				{Role: RoleRoot, Filesystem: FSExt4, StartMiB: AlignMiB + BootMiB + SwapMiB, EndMiB: AlignMiB + BootMiB + SwapMiB + 100},
				{Role: RoleRoot, Filesystem: FSExt4, StartMiB: AlignMiB + BootMiB + SwapMiB + 100, EndMiB: SizeRemainder},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.layout.Validate())
		})
	}
}

func TestParseFirmware(t *testing.T) {
	fw, err := ParseFirmware("uefi")
	assert.NoError(t, err)
	assert.Equal(t, FirmwareUEFI, fw)

	fw, err = ParseFirmware("BIOS")
	assert.NoError(t, err)
	assert.Equal(t, FirmwareBIOS, fw)

	_, err = ParseFirmware("coreboot")
	assert.Error(t, err)
}
