// Package copy implements a WHOLE_VOLUME_COPY installer: it consumes no
// externally staged data, instead copying the current bank's volume
// contents into the update bank's volume verbatim when finalized. Used
// by BankedFwStore to carry locations forward unchanged during a
// partial update.
package copy

import (
	"io"

	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/installtype"
	"github.com/deploymenttheory/go-fwu/internal/interfaces"
	"github.com/deploymenttheory/go-fwu/internal/proto"
	"github.com/deploymenttheory/go-fwu/internal/registry"
)

const chunkSize = 4096

// Backend is the WHOLE_VOLUME_COPY InstallerBackend.
type Backend struct {
	Volumes      *registry.VolumeIndex
	LocationID   uint32
	LocationUUID [16]byte

	destination interfaces.Volume
	source      interfaces.Volume
}

// New returns a copy Installer wrapping a fresh Backend for locationID.
func New(volumes *registry.VolumeIndex, locationID uint32, locationUUID [16]byte) *interfaces.Installer {
	backend := &Backend{Volumes: volumes, LocationID: locationID, LocationUUID: locationUUID}
	return interfaces.NewInstaller(int(installtype.WholeVolumeCopy), locationID, locationUUID, backend)
}

func (b *Backend) Begin(currentVolumeID, updateVolumeID uint32) error {
	dest, ok := b.Volumes.Find(updateVolumeID)
	if !ok {
		b.destination, b.source = nil, nil
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	src, ok := b.Volumes.Find(currentVolumeID)
	if !ok {
		b.destination, b.source = nil, nil
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	b.destination, b.source = dest, src
	return nil
}

func (b *Backend) copyVolumeContents(targetLen int64) error {
	buf := make([]byte, chunkSize)
	var copied int64
	for copied < targetLen {
		toRead := targetLen - copied
		if toRead > chunkSize {
			toRead = chunkSize
		}
		n, err := b.source.Read(buf[:toRead])
		if n > 0 {
			w, werr := b.destination.Write(buf[:n])
			if werr != nil || w != n {
				return &proto.StatusError{Status: proto.StatusOutOfBounds}
			}
			copied += int64(n)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return &proto.StatusError{Status: proto.StatusUnknown}
		}
		if n == 0 {
			break
		}
	}
	return nil
}

// Finalize performs the actual copy: opens both volumes, erases the
// destination, copies min(source size, destination size) bytes, closes
// both.
func (b *Backend) Finalize() error {
	if b.source == nil || b.destination == nil {
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	if err := b.source.Open(); err != nil {
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	if err := b.destination.Open(); err != nil {
		b.source.Close()
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	if eraser, ok := b.destination.(interfaces.Eraser); ok {
		if err := eraser.Erase(); err != nil {
			b.destination.Close()
			b.source.Close()
			return &proto.StatusError{Status: proto.StatusUnknown}
		}
	}

	sourceSize, err := b.source.Size()
	if err != nil {
		b.destination.Close()
		b.source.Close()
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	destSize, err := b.destination.Size()
	if err != nil {
		b.destination.Close()
		b.source.Close()
		return &proto.StatusError{Status: proto.StatusUnknown}
	}

	targetLen := sourceSize
	if destSize < targetLen {
		targetLen = destSize
	}

	copyErr := b.copyVolumeContents(targetLen)
	destErr := b.destination.Close()
	srcErr := b.source.Close()

	if copyErr != nil {
		return copyErr
	}
	if destErr != nil {
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	if srcErr != nil {
		return &proto.StatusError{Status: proto.StatusUnknown}
	}
	return nil
}

func (b *Backend) Abort() {
	b.destination, b.source = nil, nil
}

// Open, Commit and Write are all denied: a copy installer consumes no
// externally staged data.
func (b *Backend) Open(info fwdirectory.ImageInfo) error {
	return &proto.StatusError{Status: proto.StatusDenied}
}

func (b *Backend) Commit() error {
	return &proto.StatusError{Status: proto.StatusDenied}
}

func (b *Backend) Write(data []byte) (int, error) {
	return 0, &proto.StatusError{Status: proto.StatusDenied}
}

// Enumerate advertises nothing: copy installers do not surface images
// of their own.
func (b *Backend) Enumerate(volumeID uint32, dir *fwdirectory.FwDirectory) error {
	return nil
}
