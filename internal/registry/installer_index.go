package registry

import (
	"github.com/deploymenttheory/go-fwu/internal/installtype"
	"github.com/deploymenttheory/go-fwu/internal/interfaces"
)

const (
	installerIndexLimit          = 8
	installerIndexLocationIDLimit = 8
)

// InstallerIndex holds every registered Installer plus the deduped set
// of location ids they cover, used by finalize_install's
// unchanged-image reasoning.
type InstallerIndex struct {
	installers  []*interfaces.Installer
	locationIDs []uint32
}

// NewInstallerIndex returns an empty InstallerIndex.
func NewInstallerIndex() *InstallerIndex {
	return &InstallerIndex{}
}

func (idx *InstallerIndex) addLocationID(id uint32) {
	for _, existing := range idx.locationIDs {
		if existing == id {
			return
		}
	}
	if len(idx.locationIDs) >= installerIndexLocationIDLimit {
		return
	}
	idx.locationIDs = append(idx.locationIDs, id)
}

// Register adds installer to the index. Past the fixed capacity mirrored
// from the original source the installer is silently dropped (nothing is
// returned or logged), though its location id is still recorded.
func (idx *InstallerIndex) Register(installer *interfaces.Installer) {
	if len(idx.installers) < installerIndexLimit {
		idx.installers = append(idx.installers, installer)
	}
	idx.addLocationID(installer.LocationID)
}

// Find returns the installer matching both installType and locationID.
func (idx *InstallerIndex) Find(installType installtype.InstallType, locationID uint32) (*interfaces.Installer, bool) {
	for _, in := range idx.installers {
		if installtype.InstallType(in.InstallType) == installType && in.LocationID == locationID {
			return in, true
		}
	}
	return nil, false
}

// FindByLocationUUID returns the installer whose LocationUUID matches.
func (idx *InstallerIndex) FindByLocationUUID(locationUUID [16]byte) (*interfaces.Installer, bool) {
	for _, in := range idx.installers {
		if in.LocationUUID == locationUUID {
			return in, true
		}
	}
	return nil, false
}

// Get returns the installer at index, or (nil, false) if out of range.
func (idx *InstallerIndex) Get(index int) (*interfaces.Installer, bool) {
	if index < 0 || index >= len(idx.installers) {
		return nil, false
	}
	return idx.installers[index], true
}

// LocationIDs returns every distinct location id covered by a
// registered installer.
func (idx *InstallerIndex) LocationIDs() []uint32 {
	return idx.locationIDs
}
