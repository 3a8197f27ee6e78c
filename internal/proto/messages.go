package proto

import (
	"encoding/binary"
	"fmt"
)

// RequestHeader is the fixed portion of every request envelope; Payload
// carries the opcode-specific body immediately following it on the wire.
type RequestHeader struct {
	FuncID FuncID
}

const requestHeaderLen = 4

func (h RequestHeader) Marshal() []byte {
	buf := make([]byte, requestHeaderLen)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.FuncID))
	return buf
}

func UnmarshalRequestHeader(buf []byte) (RequestHeader, []byte, error) {
	if len(buf) < requestHeaderLen {
		return RequestHeader{}, nil, fmt.Errorf("proto: request header truncated")
	}
	return RequestHeader{FuncID: FuncID(binary.LittleEndian.Uint32(buf[0:4]))}, buf[requestHeaderLen:], nil
}

// ResponseHeader is the fixed portion of every response envelope.
type ResponseHeader struct {
	Status Status
}

const responseHeaderLen = 4

func (h ResponseHeader) Marshal() []byte {
	buf := make([]byte, responseHeaderLen)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Status))
	return buf
}

func UnmarshalResponseHeader(buf []byte) (ResponseHeader, []byte, error) {
	if len(buf) < responseHeaderLen {
		return ResponseHeader{}, nil, fmt.Errorf("proto: response header truncated")
	}
	return ResponseHeader{Status: Status(int32(binary.LittleEndian.Uint32(buf[0:4])))}, buf[responseHeaderLen:], nil
}

// DiscoverOut is the payload of a Discover response.
type DiscoverOut struct {
	ServiceStatus       int16
	VersionMajor        uint8
	VersionMinor        uint8
	OffFunctionPresence uint16
	NumFunc             uint16
	MaxPayloadSize      uint64
	Flags               uint32
	VendorSpecificFlags uint32
	FunctionPresence    []byte
}

const discoverOutFixedLen = 2 + 1 + 1 + 2 + 2 + 8 + 4 + 4

func (d DiscoverOut) Marshal() []byte {
	buf := make([]byte, discoverOutFixedLen+len(d.FunctionPresence))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(d.ServiceStatus))
	buf[2] = d.VersionMajor
	buf[3] = d.VersionMinor
	binary.LittleEndian.PutUint16(buf[4:6], d.OffFunctionPresence)
	binary.LittleEndian.PutUint16(buf[6:8], d.NumFunc)
	binary.LittleEndian.PutUint64(buf[8:16], d.MaxPayloadSize)
	binary.LittleEndian.PutUint32(buf[16:20], d.Flags)
	binary.LittleEndian.PutUint32(buf[20:24], d.VendorSpecificFlags)
	copy(buf[discoverOutFixedLen:], d.FunctionPresence)
	return buf
}

// OpenIn is the payload of an Open request.
type OpenIn struct {
	ImageTypeUUID [16]byte
	OpType        OpenOpType
}

const openInLen = 16 + 1

func UnmarshalOpenIn(buf []byte) (OpenIn, error) {
	if len(buf) < openInLen {
		return OpenIn{}, fmt.Errorf("proto: open_in truncated")
	}
	var in OpenIn
	copy(in.ImageTypeUUID[:], buf[0:16])
	in.OpType = OpenOpType(buf[16])
	return in, nil
}

func (in OpenIn) Marshal() []byte {
	buf := make([]byte, openInLen)
	copy(buf[0:16], in.ImageTypeUUID[:])
	buf[16] = uint8(in.OpType)
	return buf
}

// OpenOut is the payload of an Open response.
type OpenOut struct {
	Handle uint32
}

func (o OpenOut) Marshal() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, o.Handle)
	return buf
}

// WriteStreamIn is the payload of a WriteStream request.
type WriteStreamIn struct {
	Handle  uint32
	DataLen uint32
	Payload []byte
}

func UnmarshalWriteStreamIn(buf []byte) (WriteStreamIn, error) {
	if len(buf) < 8 {
		return WriteStreamIn{}, fmt.Errorf("proto: write_stream_in truncated")
	}
	in := WriteStreamIn{
		Handle:  binary.LittleEndian.Uint32(buf[0:4]),
		DataLen: binary.LittleEndian.Uint32(buf[4:8]),
	}
	if uint32(len(buf)-8) < in.DataLen {
		return WriteStreamIn{}, fmt.Errorf("proto: write_stream_in payload shorter than data_len")
	}
	in.Payload = buf[8 : 8+in.DataLen]
	return in, nil
}

// ReadStreamIn is the payload of a ReadStream request.
type ReadStreamIn struct {
	Handle uint32
}

func UnmarshalReadStreamIn(buf []byte) (ReadStreamIn, error) {
	if len(buf) < 4 {
		return ReadStreamIn{}, fmt.Errorf("proto: read_stream_in truncated")
	}
	return ReadStreamIn{Handle: binary.LittleEndian.Uint32(buf[0:4])}, nil
}

// ReadStreamOut is the payload of a ReadStream response.
type ReadStreamOut struct {
	ReadBytes  uint32
	TotalBytes uint32
	Payload    []byte
}

func (o ReadStreamOut) Marshal() []byte {
	buf := make([]byte, 8+len(o.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], o.ReadBytes)
	binary.LittleEndian.PutUint32(buf[4:8], o.TotalBytes)
	copy(buf[8:], o.Payload)
	return buf
}

// CommitIn is the payload of a Commit request.
type CommitIn struct {
	Handle        uint32
	AcceptanceReq uint32
	MaxAtomicLen  uint32
}

func UnmarshalCommitIn(buf []byte) (CommitIn, error) {
	if len(buf) < 12 {
		return CommitIn{}, fmt.Errorf("proto: commit_in truncated")
	}
	return CommitIn{
		Handle:        binary.LittleEndian.Uint32(buf[0:4]),
		AcceptanceReq: binary.LittleEndian.Uint32(buf[4:8]),
		MaxAtomicLen:  binary.LittleEndian.Uint32(buf[8:12]),
	}, nil
}

// CommitOut is the payload of a Commit response.
type CommitOut struct {
	Progress  uint32
	TotalWork uint32
}

func (o CommitOut) Marshal() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], o.Progress)
	binary.LittleEndian.PutUint32(buf[4:8], o.TotalWork)
	return buf
}

// AcceptImageIn is the payload of an AcceptImage request.
type AcceptImageIn struct {
	ImageTypeUUID [16]byte
}

func UnmarshalAcceptImageIn(buf []byte) (AcceptImageIn, error) {
	if len(buf) < 20 {
		return AcceptImageIn{}, fmt.Errorf("proto: accept_image_in truncated")
	}
	var in AcceptImageIn
	copy(in.ImageTypeUUID[:], buf[4:20])
	return in, nil
}

// BeginStagingIn is the payload of a BeginStaging request.
type BeginStagingIn struct {
	VendorFlags        uint32
	PartialUpdateCount uint32
	UpdateGUID         []byte
}

func UnmarshalBeginStagingIn(buf []byte) (BeginStagingIn, error) {
	if len(buf) < 12 {
		return BeginStagingIn{}, fmt.Errorf("proto: begin_staging_in truncated")
	}
	return BeginStagingIn{
		VendorFlags:        binary.LittleEndian.Uint32(buf[4:8]),
		PartialUpdateCount: binary.LittleEndian.Uint32(buf[8:12]),
		UpdateGUID:         buf[12:],
	}, nil
}
