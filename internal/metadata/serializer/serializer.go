// Package serializer implements the v1 and v2 FWU metadata wire formats:
// turning a FwDirectory + BankTracker into bytes for persistence, and
// recovering active/previous bank indices and per-bank acceptance state
// back out of stored bytes.
package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-fwu/internal/banktracker"
	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/metadata/wire"
	"github.com/deploymenttheory/go-fwu/internal/registry"
)

// ActiveIndices is the pair of bank indices recorded in every metadata
// version's header.
type ActiveIndices struct {
	ActiveIndex         uint32
	PreviousActiveIndex uint32
}

// Serializer is the MetadataSerializer capability: versioned
// serialize/deserialize of the persisted metadata blob.
type Serializer interface {
	// Size returns the exact number of bytes Serialize will produce for
	// the current contents of dir.
	Size(dir *fwdirectory.FwDirectory) int
	// MaxSize returns the largest Size could ever be, for the fully
	// populated directory, used to size the cache buffer once at init.
	MaxSize() int
	// Serialize writes the metadata blob for dir/tracker/indices into
	// buf, returning the number of bytes written. buf must be at least
	// Size(dir) bytes.
	Serialize(buf []byte, dir *fwdirectory.FwDirectory, tracker *banktracker.BankTracker, indices ActiveIndices) (int, error)
	// DeserializeActiveIndices reads just the active/previous indices
	// out of a stored blob.
	DeserializeActiveIndices(buf []byte) (ActiveIndices, error)
	// DeserializeBankInfo reconstructs bank content/accepted state from
	// a stored blob into tracker.
	DeserializeBankInfo(tracker *banktracker.BankTracker, buf []byte)
}

// Select returns the Serializer for version (1 or 2), fixed for the
// lifetime of the agent per spec.md §9: the version a deployment
// produces must match whatever the bootloader on that device reads.
func Select(version int, volumes *registry.VolumeIndex) (Serializer, error) {
	switch version {
	case wire.V1Version:
		return NewV1(volumes), nil
	case wire.V2Version:
		return NewV2(volumes), nil
	default:
		return nil, fmt.Errorf("serializer: unsupported metadata version %d", version)
	}
}

// DetectVersion reads the version field at its fixed offset (4, in
// both layouts) out of an on-disk metadata blob, letting a deployment
// pick the matching Serializer before constructing the MetadataManager
// rather than guessing.
func DetectVersion(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, fmt.Errorf("serializer: buffer too short to hold a version field")
	}
	return int(binary.LittleEndian.Uint32(buf[4:8])), nil
}

// volumeStorageIDs resolves the partition/parent UUID pair for the
// volume registered under volumeID, if that volume supports the
// optional StorageIDer capability.
func volumeStorageIDs(volumes *registry.VolumeIndex, volumeID uint32) (partitionUUID, parentUUID [16]byte, ok bool) {
	v, found := volumes.Find(volumeID)
	if !found {
		return [16]byte{}, [16]byte{}, false
	}
	ider, supports := v.(interface {
		StorageIDs() (partitionUUID, parentUUID [16]byte, err error)
	})
	if !supports {
		return [16]byte{}, [16]byte{}, false
	}
	part, parent, err := ider.StorageIDs()
	if err != nil {
		return [16]byte{}, [16]byte{}, false
	}
	return part, parent, true
}
