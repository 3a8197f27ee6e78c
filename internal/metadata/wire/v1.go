// Package wire defines the byte-exact v1 and v2 FWU metadata layouts
// exchanged with the bootloader, per the Arm FWU-A specification
// section 4.1. All integers are little-endian; structures are packed
// with no implicit padding.
package wire

// V1 metadata layout (FWU_METADATA_VERSION = 1).
const V1Version = 1

// ImagePropertiesV1Len is sizeof(fwu_image_properties): uuid + accepted + reserved.
const ImagePropertiesV1Len = 16 + 4 + 4

// ImagePropertiesV1 is the per-bank per-image property block.
type ImagePropertiesV1 struct {
	ImgUUID  [16]byte
	Accepted uint32
	Reserved uint32
}

// ImageEntryV1Len is sizeof(fwu_image_entry) for NumBanks banks.
func ImageEntryV1Len(numBanks int) int {
	return 16 + 16 + ImagePropertiesV1Len*numBanks
}

// ImageEntryV1 is one image's type/location identity plus its
// per-bank properties.
type ImageEntryV1 struct {
	ImgTypeUUID  [16]byte
	LocationUUID [16]byte
	ImgProps     []ImagePropertiesV1 // len == numBanks
}

// HeaderV1Len is offsetof(fwu_metadata, img_entry) for the v1 layout.
const HeaderV1Len = 4 + 4 + 4 + 4

// HeaderV1 is the fixed header preceding the image entry array.
type HeaderV1 struct {
	CRC32               uint32
	Version             uint32
	ActiveIndex         uint32
	PreviousActiveIndex uint32
}
