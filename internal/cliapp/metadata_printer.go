// Package cliapp holds the presentation logic shared by fwuctl's
// subcommands: rendering raw FWU metadata and image directory bytes
// into human-readable text, independent of cobra/viper wiring. This is
// the analogue of the original source's cmd_print_metadata_v1.cpp /
// cmd_print_metadata_v2.cpp / cmd_print_image_dir.cpp, which likewise
// kept formatting separate from argument parsing.
package cliapp

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-fwu/internal/metadata/serializer"
	"github.com/deploymenttheory/go-fwu/internal/metadata/wire"
)

// FormatMetadata renders raw on-disk FWU metadata bytes as text,
// auto-detecting v1 vs v2 from the version field the way the original
// source's metadata_reader dispatches between its two parsers.
func FormatMetadata(buf []byte) (string, error) {
	version, err := serializer.DetectVersion(buf)
	if err != nil {
		return "", err
	}
	switch version {
	case wire.V1Version:
		return formatMetadataV1(buf), nil
	case wire.V2Version:
		return formatMetadataV2(buf), nil
	default:
		return "", fmt.Errorf("cliapp: unrecognised metadata version %d", version)
	}
}

func formatMetadataV1(buf []byte) string {
	var b strings.Builder
	crc := binary.LittleEndian.Uint32(buf[0:4])
	active := binary.LittleEndian.Uint32(buf[8:12])
	previous := binary.LittleEndian.Uint32(buf[12:16])
	fmt.Fprintf(&b, "metadata version: 1\n")
	fmt.Fprintf(&b, "crc_32: 0x%08x (recomputed: 0x%08x)\n", crc, wire.Checksum(buf))
	fmt.Fprintf(&b, "active_index: %d\n", active)
	fmt.Fprintf(&b, "previous_active_index: %d\n", previous)

	entryLen := wire.ImageEntryV1Len(2)
	numEntries := (len(buf) - wire.HeaderV1Len) / entryLen
	for i := 0; i < numEntries; i++ {
		off := wire.HeaderV1Len + i*entryLen
		var imgType, locUUID [16]byte
		copy(imgType[:], buf[off:off+16])
		copy(locUUID[:], buf[off+16:off+32])
		fmt.Fprintf(&b, "  image[%d]: type=%x location=%x\n", i, imgType, locUUID)
		for bankIdx := 0; bankIdx < 2; bankIdx++ {
			propOff := off + 32 + bankIdx*wire.ImagePropertiesV1Len
			accepted := binary.LittleEndian.Uint32(buf[propOff+16 : propOff+20])
			fmt.Fprintf(&b, "    bank[%d]: accepted=%t\n", bankIdx, accepted != 0)
		}
	}
	return b.String()
}

func formatMetadataV2(buf []byte) string {
	var b strings.Builder
	crc := binary.LittleEndian.Uint32(buf[0:4])
	active := binary.LittleEndian.Uint32(buf[8:12])
	previous := binary.LittleEndian.Uint32(buf[12:16])
	metadataSize := binary.LittleEndian.Uint32(buf[16:20])
	descOff := binary.LittleEndian.Uint16(buf[20:22])

	fmt.Fprintf(&b, "metadata version: 2\n")
	fmt.Fprintf(&b, "crc_32: 0x%08x (recomputed: 0x%08x)\n", crc, wire.Checksum(buf))
	fmt.Fprintf(&b, "active_index: %d\n", active)
	fmt.Fprintf(&b, "previous_active_index: %d\n", previous)
	fmt.Fprintf(&b, "metadata_size: %d\n", metadataSize)
	for bankIdx := 0; bankIdx < wire.NumBankStates; bankIdx++ {
		fmt.Fprintf(&b, "bank_state[%d]: %s\n", bankIdx, bankStateName(buf[24+bankIdx]))
	}

	if int(metadataSize) < int(descOff)+wire.StoreDescHeaderLen {
		return b.String()
	}
	desc := buf[descOff:]
	numBanks := int(desc[0])
	numImages := int(binary.LittleEndian.Uint16(desc[2:4]))
	imgEntrySize := int(binary.LittleEndian.Uint16(desc[4:6]))
	bankInfoEntrySize := int(binary.LittleEndian.Uint16(desc[6:8]))
	fmt.Fprintf(&b, "num_banks: %d, num_images: %d\n", numBanks, numImages)

	for i := 0; i < numImages; i++ {
		off := wire.StoreDescHeaderLen + i*imgEntrySize
		if off+wire.ImageEntryV2FixedLen > len(desc) {
			break
		}
		var imgType, locUUID [16]byte
		copy(imgType[:], desc[off:off+16])
		copy(locUUID[:], desc[off+16:off+32])
		fmt.Fprintf(&b, "  image[%d]: type=%x location=%x\n", i, imgType, locUUID)
		for bankIdx := 0; bankIdx < numBanks; bankIdx++ {
			bankOff := off + wire.ImageEntryV2FixedLen + bankIdx*bankInfoEntrySize
			if bankOff+20 > len(desc) {
				break
			}
			accepted := binary.LittleEndian.Uint32(desc[bankOff+16 : bankOff+20])
			fmt.Fprintf(&b, "    bank[%d]: accepted=%t\n", bankIdx, accepted != 0)
		}
	}
	return b.String()
}

func bankStateName(v uint8) string {
	switch v {
	case wire.BankStateInvalid:
		return "INVALID"
	case wire.BankStateValid:
		return "VALID"
	case wire.BankStateAccepted:
		return "ACCEPTED"
	default:
		return fmt.Sprintf("0x%02x", v)
	}
}
