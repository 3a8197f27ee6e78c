// Package fwdirectory holds the in-memory inventory of images known to
// the running agent: which image types exist, where they live, and the
// boot/active/previous bank bookkeeping the metadata manager persists.
package fwdirectory

import "github.com/deploymenttheory/go-fwu/internal/installtype"

// MaxEntries bounds the number of distinct image types a directory can
// hold, mirroring the original source's fixed-size directory array.
const MaxEntries = 20

// BootInfo records which bank the bootloader booted from and which bank
// the metadata considers active/previous at synchronize time.
type BootInfo struct {
	BootIndex            uint32
	ActiveIndex          uint32
	PreviousActiveIndex  uint32
}

// ImageInfo describes one image type tracked by the directory.
type ImageInfo struct {
	ImageTypeUUID         [16]byte
	MaxSize               uint64
	LowestAcceptedVersion uint32
	ActiveVersion         uint32
	Permissions           uint32
	ImageIndex            uint32
	LocationID            uint32
	InstallType           installtype.InstallType
}

// FwDirectory is the fixed-capacity inventory of image types plus the
// current boot/active/previous bookkeeping.
type FwDirectory struct {
	boot    BootInfo
	entries [MaxEntries]ImageInfo
	num     int
}

// New returns an empty directory, ready for population by an FwInspector.
func New() *FwDirectory {
	return &FwDirectory{}
}

// SetBootInfo replaces the directory's boot bookkeeping wholesale.
func (d *FwDirectory) SetBootInfo(info BootInfo) {
	d.boot = info
}

// BootInfo returns the current boot bookkeeping.
func (d *FwDirectory) BootInfo() BootInfo {
	return d.boot
}

// AddImageInfo appends a new image entry, assigning it the next free
// image index regardless of whatever index the caller supplied.
func (d *FwDirectory) AddImageInfo(info ImageInfo) bool {
	if d.num >= MaxEntries {
		return false
	}
	info.ImageIndex = uint32(d.num)
	d.entries[d.num] = info
	d.num++
	return true
}

// FindImageInfo returns the entry matching uuid, or (zero, false).
func (d *FwDirectory) FindImageInfo(uuid [16]byte) (ImageInfo, bool) {
	for i := 0; i < d.num; i++ {
		if d.entries[i].ImageTypeUUID == uuid {
			return d.entries[i], true
		}
	}
	return ImageInfo{}, false
}

// ImageInfoAt returns the entry at index, or (zero, false) if out of range.
func (d *FwDirectory) ImageInfoAt(index int) (ImageInfo, bool) {
	if index < 0 || index >= d.num {
		return ImageInfo{}, false
	}
	return d.entries[index], true
}

// NumImages returns the number of populated entries.
func (d *FwDirectory) NumImages() int {
	return d.num
}

// FwInspector populates a freshly constructed FwDirectory with the image
// types the platform actually has at the given boot bank. Implementations
// range from a fixed test fixture to one that enumerates every registered
// installer.
type FwInspector interface {
	Inspect(dir *FwDirectory, bootIndex uint32) error
}
