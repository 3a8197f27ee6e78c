// Package raw implements a WHOLE_VOLUME installer: the staged image is
// written directly to the update bank's volume with no transformation.
package raw

import (
	"io"

	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/installtype"
	"github.com/deploymenttheory/go-fwu/internal/interfaces"
	"github.com/deploymenttheory/go-fwu/internal/proto"
	"github.com/deploymenttheory/go-fwu/internal/registry"
)

// Backend is the WHOLE_VOLUME InstallerBackend: it writes straight
// through to whichever volume Begin resolves as the update target.
type Backend struct {
	Volumes      *registry.VolumeIndex
	LocationID   uint32
	LocationUUID [16]byte

	target       interfaces.Volume
	commitCount  int
	bytesWritten int64
	isOpen       bool
}

// New returns a raw Installer wrapping a fresh Backend for locationID.
func New(volumes *registry.VolumeIndex, locationID uint32, locationUUID [16]byte) *interfaces.Installer {
	backend := &Backend{Volumes: volumes, LocationID: locationID, LocationUUID: locationUUID}
	return interfaces.NewInstaller(int(installtype.WholeVolume), locationID, locationUUID, backend)
}

func (b *Backend) Begin(currentVolumeID, updateVolumeID uint32) error {
	v, ok := b.Volumes.Find(updateVolumeID)
	if !ok {
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	b.target = v
	b.commitCount = 0
	b.isOpen = false
	return nil
}

func (b *Backend) Finalize() error {
	if b.isOpen {
		b.target.Close()
		b.isOpen = false
	}
	return nil
}

func (b *Backend) Abort() {
	b.Finalize()
}

// Open rejects a second open within the same install transaction: one
// image per location, matching the original source's one-shot raw
// installer.
func (b *Backend) Open(info fwdirectory.ImageInfo) error {
	if b.isOpen || b.commitCount >= 1 {
		return &proto.StatusError{Status: proto.StatusDenied}
	}
	if err := b.target.Open(); err != nil {
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	if eraser, ok := b.target.(interfaces.Eraser); ok {
		if err := eraser.Erase(); err != nil {
			b.target.Close()
			return &proto.StatusError{Status: proto.StatusUnknown}
		}
	}
	b.isOpen = true
	b.bytesWritten = 0
	return nil
}

// Commit rejects a zero-length image: the raw installer has no delete
// semantics, so committing nothing written is a caller error.
func (b *Backend) Commit() error {
	if !b.isOpen {
		return nil
	}
	b.target.Close()
	b.commitCount++
	b.isOpen = false
	if b.bytesWritten == 0 {
		return &proto.StatusError{Status: proto.StatusNotAvailable}
	}
	return nil
}

func (b *Backend) Write(data []byte) (int, error) {
	if !b.isOpen {
		return 0, &proto.StatusError{Status: proto.StatusDenied}
	}
	n, err := b.target.Write(data)
	b.bytesWritten += int64(n)
	if n != len(data) {
		return n, &proto.StatusError{Status: proto.StatusOutOfBounds}
	}
	if err != nil && err != io.EOF {
		return n, &proto.StatusError{Status: proto.StatusUnknown}
	}
	return n, nil
}

// Enumerate advertises a single whole-volume image whose type uuid is
// the location uuid itself and whose max size is the backing volume's
// size, leaving it in whatever open state it was found in.
func (b *Backend) Enumerate(volumeID uint32, dir *fwdirectory.FwDirectory) error {
	v, ok := b.Volumes.Find(volumeID)
	if !ok {
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	wasOpen := b.isOpen
	if !wasOpen {
		if err := v.Open(); err != nil {
			return &proto.StatusError{Status: proto.StatusUnknown}
		}
	}
	size, err := v.Size()
	if !wasOpen {
		v.Close()
	}
	if err != nil {
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	dir.AddImageInfo(fwdirectory.ImageInfo{
		ImageTypeUUID: b.LocationUUID,
		MaxSize:       uint64(size),
		LocationID:    b.LocationID,
		InstallType:   installtype.WholeVolume,
	})
	return nil
}
