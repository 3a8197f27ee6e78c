package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-fwu/internal/bankscheme"
	"github.com/deploymenttheory/go-fwu/internal/banktracker"
	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/metadata/wire"
	"github.com/deploymenttheory/go-fwu/internal/registry"
)

// V1 implements the MetadataSerializer capability for metadata version 1.
type V1 struct {
	Volumes *registry.VolumeIndex
}

func NewV1(volumes *registry.VolumeIndex) *V1 {
	return &V1{Volumes: volumes}
}

func (s *V1) Size(dir *fwdirectory.FwDirectory) int {
	return wire.HeaderV1Len + dir.NumImages()*wire.ImageEntryV1Len(bankscheme.NumBanks)
}

func (s *V1) MaxSize() int {
	return wire.HeaderV1Len + fwdirectory.MaxEntries*wire.ImageEntryV1Len(bankscheme.NumBanks)
}

func (s *V1) Serialize(buf []byte, dir *fwdirectory.FwDirectory, tracker *banktracker.BankTracker, indices ActiveIndices) (int, error) {
	size := s.Size(dir)
	if len(buf) < size {
		return 0, fmt.Errorf("serializer: v1 buffer too small: need %d, have %d", size, len(buf))
	}
	binary.LittleEndian.PutUint32(buf[0:4], 0) // crc_32 filled in by the caller
	binary.LittleEndian.PutUint32(buf[4:8], wire.V1Version)
	binary.LittleEndian.PutUint32(buf[8:12], indices.ActiveIndex)
	binary.LittleEndian.PutUint32(buf[12:16], indices.PreviousActiveIndex)

	entryLen := wire.ImageEntryV1Len(bankscheme.NumBanks)
	off := wire.HeaderV1Len
	for imageIndex := 0; imageIndex < dir.NumImages(); imageIndex++ {
		info, _ := dir.ImageInfoAt(imageIndex)
		entryOff := off + imageIndex*entryLen

		var locationUUID [16]byte
		for bankIndex := 0; bankIndex < bankscheme.NumBanks; bankIndex++ {
			volumeID := bankscheme.VolumeID(info.LocationID, bankscheme.UsageID(bankIndex))
			imgUUID, parentUUID, ok := volumeStorageIDs(s.Volumes, volumeID)
			if ok {
				locationUUID = parentUUID
			}
			propOff := entryOff + 32 + bankIndex*wire.ImagePropertiesV1Len
			copy(buf[propOff:propOff+16], imgUUID[:])
			accepted := uint32(0)
			if tracker.IsAccepted(bankIndex, imageIndex) {
				accepted = 1
			}
			binary.LittleEndian.PutUint32(buf[propOff+16:propOff+20], accepted)
			binary.LittleEndian.PutUint32(buf[propOff+20:propOff+24], 0)
		}
		copy(buf[entryOff:entryOff+16], info.ImageTypeUUID[:])
		copy(buf[entryOff+16:entryOff+32], locationUUID[:])
	}
	return size, nil
}

func (s *V1) DeserializeActiveIndices(buf []byte) (ActiveIndices, error) {
	if len(buf) < wire.HeaderV1Len {
		return ActiveIndices{}, fmt.Errorf("serializer: v1 header truncated")
	}
	return ActiveIndices{
		ActiveIndex:         binary.LittleEndian.Uint32(buf[8:12]),
		PreviousActiveIndex: binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

func (s *V1) DeserializeBankInfo(tracker *banktracker.BankTracker, buf []byte) {
	if len(buf) < wire.HeaderV1Len {
		return
	}
	indices, err := s.DeserializeActiveIndices(buf)
	if err != nil {
		return
	}
	if int(indices.ActiveIndex) < bankscheme.NumBanks {
		tracker.SetHoldsContent(int(indices.ActiveIndex))
	}
	if int(indices.PreviousActiveIndex) < bankscheme.NumBanks {
		tracker.SetHoldsContent(int(indices.PreviousActiveIndex))
	}

	entryLen := wire.ImageEntryV1Len(bankscheme.NumBanks)
	if entryLen == 0 {
		return
	}
	numImages := (len(buf) - wire.HeaderV1Len) / entryLen
	for imageIndex := 0; imageIndex < numImages; imageIndex++ {
		entryOff := wire.HeaderV1Len + imageIndex*entryLen
		for bankIndex := 0; bankIndex < bankscheme.NumBanks; bankIndex++ {
			propOff := entryOff + 32 + bankIndex*wire.ImagePropertiesV1Len
			accepted := binary.LittleEndian.Uint32(buf[propOff+16 : propOff+20])
			if accepted != 0 {
				tracker.Accept(bankIndex, imageIndex)
			}
		}
	}
}
