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

// V2 implements the MetadataSerializer capability for metadata version 2.
type V2 struct {
	Volumes *registry.VolumeIndex
}

func NewV2(volumes *registry.VolumeIndex) *V2 {
	return &V2{Volumes: volumes}
}

func imageEntryV2Len(numBanks int) int {
	return wire.ImageEntryV2FixedLen + wire.ImgBankInfoV2Len*numBanks
}

func (s *V2) descriptorSize(numImages int) int {
	return wire.StoreDescHeaderLen + imageEntryV2Len(bankscheme.NumBanks)*numImages
}

func (s *V2) Size(dir *fwdirectory.FwDirectory) int {
	return wire.HeaderV2Len + s.descriptorSize(dir.NumImages())
}

func (s *V2) MaxSize() int {
	return wire.HeaderV2Len + s.descriptorSize(fwdirectory.MaxEntries)
}

func (s *V2) Serialize(buf []byte, dir *fwdirectory.FwDirectory, tracker *banktracker.BankTracker, indices ActiveIndices) (int, error) {
	size := s.Size(dir)
	if len(buf) < size {
		return 0, fmt.Errorf("serializer: v2 buffer too small: need %d, have %d", size, len(buf))
	}
	descriptorOffset := wire.HeaderV2Len

	binary.LittleEndian.PutUint32(buf[0:4], 0) // crc_32 filled in by the caller
	binary.LittleEndian.PutUint32(buf[4:8], wire.V2Version)
	binary.LittleEndian.PutUint32(buf[8:12], indices.ActiveIndex)
	binary.LittleEndian.PutUint32(buf[12:16], indices.PreviousActiveIndex)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(size))
	binary.LittleEndian.PutUint16(buf[20:22], uint16(descriptorOffset))
	binary.LittleEndian.PutUint16(buf[22:24], 0)
	for b := 0; b < wire.NumBankStates; b++ {
		state := wire.BankStateInvalid
		if b < bankscheme.NumBanks {
			switch {
			case tracker.IsAllAccepted(b, dir.NumImages()):
				state = wire.BankStateAccepted
			case tracker.IsContent(b):
				state = wire.BankStateValid
			}
		}
		buf[24+b] = state
	}
	binary.LittleEndian.PutUint32(buf[28:32], 0)

	if size <= descriptorOffset {
		return size, nil
	}

	desc := buf[descriptorOffset:]
	numBanks := bankscheme.NumBanks
	entryLen := imageEntryV2Len(numBanks)
	desc[0] = uint8(numBanks)
	desc[1] = 0
	binary.LittleEndian.PutUint16(desc[2:4], uint16(dir.NumImages()))
	binary.LittleEndian.PutUint16(desc[4:6], uint16(entryLen))
	binary.LittleEndian.PutUint16(desc[6:8], uint16(wire.ImgBankInfoV2Len))

	for imageIndex := 0; imageIndex < dir.NumImages(); imageIndex++ {
		info, _ := dir.ImageInfoAt(imageIndex)
		entryOff := wire.StoreDescHeaderLen + imageIndex*entryLen

		var locationUUID [16]byte
		for bankIndex := 0; bankIndex < numBanks; bankIndex++ {
			volumeID := bankscheme.VolumeID(info.LocationID, bankscheme.UsageID(bankIndex))
			imgUUID, parentUUID, ok := volumeStorageIDs(s.Volumes, volumeID)
			if ok && bankIndex == 0 {
				locationUUID = parentUUID
			}
			bankOff := entryOff + wire.ImageEntryV2FixedLen + bankIndex*wire.ImgBankInfoV2Len
			copy(desc[bankOff:bankOff+16], imgUUID[:])
			accepted := uint32(0)
			if tracker.IsAccepted(bankIndex, imageIndex) {
				accepted = 1
			}
			binary.LittleEndian.PutUint32(desc[bankOff+16:bankOff+20], accepted)
			binary.LittleEndian.PutUint32(desc[bankOff+20:bankOff+24], 0)
		}
		copy(desc[entryOff:entryOff+16], info.ImageTypeUUID[:])
		copy(desc[entryOff+16:entryOff+32], locationUUID[:])
	}
	return size, nil
}

func (s *V2) DeserializeActiveIndices(buf []byte) (ActiveIndices, error) {
	if len(buf) < wire.HeaderV2Len {
		return ActiveIndices{}, fmt.Errorf("serializer: v2 header truncated")
	}
	return ActiveIndices{
		ActiveIndex:         binary.LittleEndian.Uint32(buf[8:12]),
		PreviousActiveIndex: binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

func (s *V2) DeserializeBankInfo(tracker *banktracker.BankTracker, buf []byte) {
	if len(buf) < wire.HeaderV2Len {
		return
	}
	descriptorOffset := int(binary.LittleEndian.Uint16(buf[20:22]))
	metadataSize := int(binary.LittleEndian.Uint32(buf[16:20]))
	if descriptorOffset > len(buf) || metadataSize > len(buf) {
		return
	}
	for b := 0; b < bankscheme.NumBanks; b++ {
		switch buf[24+b] {
		case wire.BankStateAccepted:
			tracker.SetHoldsAcceptedContent(b)
		case wire.BankStateValid:
			tracker.SetHoldsContent(b)
		}
	}

	if metadataSize < descriptorOffset+wire.StoreDescHeaderLen {
		return
	}
	desc := buf[descriptorOffset:]
	numBanks := int(desc[0])
	numImages := int(binary.LittleEndian.Uint16(desc[2:4]))
	imgEntrySize := int(binary.LittleEndian.Uint16(desc[4:6]))
	bankInfoEntrySize := int(binary.LittleEndian.Uint16(desc[6:8]))

	fwStoreDescSize := metadataSize - descriptorOffset
	totalImgEntriesSize := fwStoreDescSize - wire.StoreDescHeaderLen
	perImgEntryBankInfoSize := numBanks * bankInfoEntrySize

	switch {
	case imgEntrySize < wire.ImageEntryV2FixedLen:
		return
	case bankInfoEntrySize < wire.ImgBankInfoV2Len:
		return
	case numBanks > bankscheme.NumBanks:
		return
	case imgEntrySize < wire.ImageEntryV2FixedLen+perImgEntryBankInfoSize:
		return
	case numImages > fwdirectory.MaxEntries:
		return
	case totalImgEntriesSize < numImages*imgEntrySize:
		return
	}

	for imageIndex := 0; imageIndex < numImages; imageIndex++ {
		entryOff := wire.StoreDescHeaderLen + imageIndex*imgEntrySize
		if entryOff+wire.ImageEntryV2FixedLen+perImgEntryBankInfoSize > len(desc) {
			return
		}
		for bankIndex := 0; bankIndex < numBanks; bankIndex++ {
			bankOff := entryOff + wire.ImageEntryV2FixedLen + bankIndex*bankInfoEntrySize
			accepted := binary.LittleEndian.Uint32(desc[bankOff+16 : bankOff+20])
			if accepted != 0 {
				tracker.Accept(bankIndex, imageIndex)
			}
		}
	}
}
