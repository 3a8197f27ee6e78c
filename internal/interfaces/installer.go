package interfaces

import "github.com/deploymenttheory/go-fwu/internal/fwdirectory"

// InstallerBackend is the per-installer-kind behaviour the original
// source dispatches through a function-pointer v-table. Each concrete
// installer (raw, copy, ...) implements this directly; the common
// bookkeeping (active flag, latched first error) lives in Installer,
// which wraps a backend rather than reimplementing it per kind.
type InstallerBackend interface {
	// Begin prepares the installer for a transaction: current/update
	// volume ids identify the boot and update banks for this location.
	Begin(currentVolumeID, updateVolumeID uint32) error
	// Finalize completes the install started by Begin. Always called
	// with is_active cleared first, matching the original ordering.
	Finalize() error
	// Abort discards any in-progress install started by Begin.
	Abort()
	// Open begins a write transaction for a specific image.
	Open(info fwdirectory.ImageInfo) error
	// Commit ends the write transaction opened by Open.
	Commit() error
	// Write appends data to the image opened by Open.
	Write(data []byte) (int, error)
	// Enumerate reports the images this installer advertises by adding
	// them to dir. volumeID is the location's boot-bank volume id.
	Enumerate(volumeID uint32, dir *fwdirectory.FwDirectory) error
}

// Installer is the common wrapper around an InstallerBackend: install
// type and location identity, plus the active/first-error bookkeeping
// the original source's installer.c applies uniformly across all kinds.
type Installer struct {
	InstallType   int
	LocationID    uint32
	LocationUUID  [16]byte
	Backend       InstallerBackend
	installStatus error
	isActive      bool
}

// NewInstaller wraps backend with the common installer bookkeeping.
func NewInstaller(installType int, locationID uint32, locationUUID [16]byte, backend InstallerBackend) *Installer {
	return &Installer{
		InstallType:  installType,
		LocationID:   locationID,
		LocationUUID: locationUUID,
		Backend:      backend,
	}
}

// IsActive reports whether Begin has run without a matching Finalize/Abort.
func (i *Installer) IsActive() bool {
	return i.isActive
}

// Status returns the first error latched since the last Begin, or nil.
func (i *Installer) Status() error {
	return i.installStatus
}

func (i *Installer) latch(err error) error {
	if err != nil && i.installStatus == nil {
		i.installStatus = err
	}
	return err
}

// Begin resets the latched status and marks the installer active before
// forwarding to the backend.
func (i *Installer) Begin(currentVolumeID, updateVolumeID uint32) error {
	i.installStatus = nil
	i.isActive = true
	return i.Backend.Begin(currentVolumeID, updateVolumeID)
}

// Finalize clears the active flag before forwarding, matching the
// original source's ordering (the backend sees is_active already false).
func (i *Installer) Finalize() error {
	i.isActive = false
	return i.Backend.Finalize()
}

// Abort clears the active flag before forwarding.
func (i *Installer) Abort() {
	i.isActive = false
	i.Backend.Abort()
}

func (i *Installer) Open(info fwdirectory.ImageInfo) error {
	return i.latch(i.Backend.Open(info))
}

func (i *Installer) Commit() error {
	return i.latch(i.Backend.Commit())
}

func (i *Installer) Write(data []byte) (int, error) {
	n, err := i.Backend.Write(data)
	i.latch(err)
	return n, err
}

// Enumerate forwards without latching; enumeration failures are not
// install-transaction errors.
func (i *Installer) Enumerate(volumeID uint32, dir *fwdirectory.FwDirectory) error {
	return i.Backend.Enumerate(volumeID, dir)
}
