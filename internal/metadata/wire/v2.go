package wire

// V2 metadata layout (FWU_METADATA_VERSION = 2).
const V2Version = 2

// Bank state byte values recorded in the v2 header.
const (
	BankStateInvalid  uint8 = 0xff
	BankStateValid    uint8 = 0xfe
	BankStateAccepted uint8 = 0xfc
)

// NumBankStates is the fixed width of the bank_state array in the v2
// header, independent of how many banks are actually in use.
const NumBankStates = 4

// HeaderV2Len is sizeof(fwu_metadata) for the v2 layout: 32 bytes.
const HeaderV2Len = 4 + 4 + 4 + 4 + 4 + 2 + 2 + NumBankStates + 4

// HeaderV2 is the fixed 32-byte header preceding the descriptor.
type HeaderV2 struct {
	CRC32               uint32
	Version             uint32
	ActiveIndex         uint32
	PreviousActiveIndex uint32
	MetadataSize        uint32
	DescriptorOffset    uint16
	Reserved16          uint16
	BankState           [NumBankStates]uint8
	Reserved1c          uint32
}

// ImgBankInfoV2Len is sizeof(fwu_img_bank_info).
const ImgBankInfoV2Len = 16 + 4 + 4

// ImgBankInfoV2 is the per-bank accepted/reserved block for one image.
type ImgBankInfoV2 struct {
	ImgUUID  [16]byte
	Accepted uint32
	Reserved uint32
}

// ImageEntryV2FixedLen is offsetof(fwu_image_entry, img_bank_info).
const ImageEntryV2FixedLen = 16 + 16

// ImageEntryV2 is one image's type/location identity plus its
// per-bank properties, sized by the descriptor's declared entry widths.
type ImageEntryV2 struct {
	ImgTypeUUID  [16]byte
	LocationUUID [16]byte
	ImgBankInfo  []ImgBankInfoV2 // len == descriptor NumBanks
}

// StoreDescHeaderLen is offsetof(fwu_fw_store_desc, img_entry).
const StoreDescHeaderLen = 1 + 1 + 2 + 2 + 2

// StoreDescHeader is the fixed header of the store descriptor, declaring
// the widths used to lay out the (possibly forward-compatible) image
// entry array that follows it.
type StoreDescHeader struct {
	NumBanks         uint8
	Reserved01       uint8
	NumImages        uint16
	ImgEntrySize     uint16
	BankInfoEntrySize uint16
}
