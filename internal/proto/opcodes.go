package proto

// FuncID identifies the RPC operation carried in a request header.
type FuncID uint32

const (
	FuncIDDiscover       FuncID = 0
	FuncIDBeginStaging   FuncID = 16
	FuncIDEndStaging     FuncID = 17
	FuncIDCancelStaging  FuncID = 18
	FuncIDOpen           FuncID = 19
	FuncIDWriteStream    FuncID = 20
	FuncIDReadStream     FuncID = 21
	FuncIDCommit         FuncID = 22
	FuncIDAcceptImage    FuncID = 23
	FuncIDSelectPrevious FuncID = 24
)

// FuncIDCount is the number of opcodes the agent implements, not the
// highest opcode value (opcodes are not contiguous).
const FuncIDCount = 10

const (
	ProtocolVersionMajor = 1
	ProtocolVersionMinor = 0
)

// OpenOpType selects read or write access in an Open request.
type OpenOpType uint8

const (
	OpenOpTypeRead  OpenOpType = 0
	OpenOpTypeWrite OpenOpType = 1
)

const ImageDirectoryVersion = 2

// Canonical UUID strings for well-known FWU service objects.
const (
	UpdateAgentCanonicalUUID = "6823a838-1b06-470e-9774-0cce8bfb53fd"
	DirectoryCanonicalUUID   = "deee58d9-5147-4ad3-a290-77666e2341a5"
	MetadataCanonicalUUID    = "8a7a84a0-8387-40f6-ab41-a8b9a5a60d23"
)
