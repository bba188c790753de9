package disk

// Plan derives the partition and volume scheme for an installation from the
// firmware mode and the user's choices. It is the single source of truth
// for layout decisions; the engine only executes what Plan produced.
//
// Every layout opens with a 1 GiB FAT32 boot partition. BIOS mode does not
// strictly require one, but keeping it uniform removes firmware-specific
// branches from formatting, mounting and fstab generation.
func Plan(firmware Firmware, encrypted, single bool) Layout {
	layout := Layout{
		Table: TableGPT,
		Partitions: []PartitionSpec{
			{
				Role:       RoleBoot,
				Filesystem: FSFat32,
				Label:      "BOOT",
				StartMiB:   AlignMiB,
				EndMiB:     AlignMiB + BootMiB,
			},
		},
	}
	if firmware == FirmwareBIOS {
		layout.Table = TableMBR
	}

	next := AlignMiB + BootMiB

	if encrypted {
		layout.Partitions = append(layout.Partitions, PartitionSpec{
			Role:       RoleContainer,
			Filesystem: FSLuks,
			Label:      "cryptsys",
			StartMiB:   int64(next),
			EndMiB:     SizeRemainder,
		})
		vg := &VGSpec{
			Name:   "sysvg",
			Mapper: "cryptsys",
			Volumes: []LVSpec{
				{Name: "swap", Role: RoleSwap, Filesystem: FSSwap, SizeMiB: SwapMiB},
			},
		}
		if single {
			vg.Volumes = append(vg.Volumes,
				LVSpec{Name: "root", Role: RoleRoot, Filesystem: FSExt4, SizeMiB: SizeRemainder})
		} else {
			vg.Volumes = append(vg.Volumes,
				LVSpec{Name: "root", Role: RoleRoot, Filesystem: FSExt4, SizeMiB: RootMiB},
				LVSpec{Name: "home", Role: RoleHome, Filesystem: FSExt4, SizeMiB: SizeRemainder})
		}
		layout.VolumeGroup = vg
		return layout
	}

	layout.Partitions = append(layout.Partitions, PartitionSpec{
		Role:       RoleSwap,
		Filesystem: FSSwap,
		Label:      "swap",
		StartMiB:   int64(next),
		EndMiB:     int64(next + SwapMiB),
	})
	next += SwapMiB

	if single {
		layout.Partitions = append(layout.Partitions, PartitionSpec{
			Role:       RoleRoot,
			Filesystem: FSExt4,
			Label:      "root",
			StartMiB:   int64(next),
			EndMiB:     SizeRemainder,
		})
		return layout
	}

	layout.Partitions = append(layout.Partitions,
		PartitionSpec{
			Role:       RoleRoot,
			Filesystem: FSExt4,
			Label:      "root",
			StartMiB:   int64(next),
			EndMiB:     int64(next + RootMiB),
		},
		PartitionSpec{
			Role:       RoleHome,
			Filesystem: FSExt4,
			Label:      "home",
			StartMiB:   int64(next + RootMiB),
			EndMiB:     SizeRemainder,
		})
	return layout
}
