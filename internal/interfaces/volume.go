package interfaces

import "io"

// SeekMode selects the reference point for Volume.Seek.
type SeekMode int

const (
	SeekSet SeekMode = iota
	SeekCur
	SeekEnd
)

// Volume is the storage capability the firmware store and installers
// operate against: a seekable, sizeable byte stream backed by a bank,
// a metadata partition, or any other concrete backing store.
//
// Erase and StorageIDs are optional capabilities. Not every concrete
// Volume supports them (a read-only export volume has no erase), so
// they are expressed as separate interfaces rather than methods on
// Volume itself; callers type-assert for them where the protocol
// requires it (raw_installer.Open erases the target only when it
// implements Eraser).
type Volume interface {
	Open() error
	Close() error
	Seek(mode SeekMode, offset int64) (int64, error)
	Size() (int64, error)
	io.Reader
	io.Writer
}

// Eraser is the optional erase capability of a Volume.
type Eraser interface {
	Erase() error
}

// StorageIDer is the optional capability to report the partition and
// parent storage UUIDs backing a Volume, consumed by the metadata
// serializers when building image entries.
type StorageIDer interface {
	StorageIDs() (partitionUUID, parentUUID [16]byte, err error)
}
