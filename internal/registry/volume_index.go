// Package registry provides the explicit VolumeIndex and InstallerIndex
// collaborators that the agent constructor wires together, replacing the
// original source's global singleton registries with state threaded
// through the call chain the way a systems implementation should.
package registry

import (
	"fmt"

	"github.com/deploymenttheory/go-fwu/internal/interfaces"
)

const volumeIndexMaxEntries = 8

type volumeEntry struct {
	id     uint32
	volume interfaces.Volume
}

// VolumeIndex maps a volume id to its concrete Volume implementation.
type VolumeIndex struct {
	entries []volumeEntry
}

// NewVolumeIndex returns an empty VolumeIndex.
func NewVolumeIndex() *VolumeIndex {
	return &VolumeIndex{}
}

// Add registers volume under id. Returns an error once the fixed
// capacity mirrored from the original source is exceeded.
func (idx *VolumeIndex) Add(id uint32, volume interfaces.Volume) error {
	if len(idx.entries) >= volumeIndexMaxEntries {
		return fmt.Errorf("registry: volume index full, cannot register volume %d", id)
	}
	idx.entries = append(idx.entries, volumeEntry{id: id, volume: volume})
	return nil
}

// Find returns the volume registered under id, or (nil, false).
func (idx *VolumeIndex) Find(id uint32) (interfaces.Volume, bool) {
	for _, e := range idx.entries {
		if e.id == id {
			return e.volume, true
		}
	}
	return nil, false
}

// Clear removes every registered volume.
func (idx *VolumeIndex) Clear() {
	idx.entries = nil
}
