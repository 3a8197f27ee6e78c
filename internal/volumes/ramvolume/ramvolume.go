// Package ramvolume implements an in-memory Volume, the workhorse
// backing store for unit and integration tests. The original source's
// volume.h documents "alternative concrete volume implementations ...
// to suit different classes of storage"; this is the simplest one.
package ramvolume

import (
	"fmt"
	"io"

	"github.com/deploymenttheory/go-fwu/internal/interfaces"
)

// Volume is a fixed-size in-memory byte store.
type Volume struct {
	data           []byte
	pos            int64
	isOpen         bool
	partitionUUID  [16]byte
	parentUUID     [16]byte
}

// New returns a RAM-backed Volume of size bytes, all zeroed.
func New(size int, partitionUUID, parentUUID [16]byte) *Volume {
	return &Volume{data: make([]byte, size), partitionUUID: partitionUUID, parentUUID: parentUUID}
}

func (v *Volume) Open() error {
	if v.isOpen {
		return fmt.Errorf("ramvolume: already open")
	}
	v.isOpen = true
	v.pos = 0
	return nil
}

func (v *Volume) Close() error {
	v.isOpen = false
	return nil
}

func (v *Volume) Seek(mode interfaces.SeekMode, offset int64) (int64, error) {
	var base int64
	switch mode {
	case interfaces.SeekSet:
		base = 0
	case interfaces.SeekCur:
		base = v.pos
	case interfaces.SeekEnd:
		base = int64(len(v.data))
	}
	newPos := base + offset
	if newPos < 0 || newPos > int64(len(v.data)) {
		return 0, fmt.Errorf("ramvolume: seek out of bounds")
	}
	v.pos = newPos
	return v.pos, nil
}

func (v *Volume) Size() (int64, error) {
	return int64(len(v.data)), nil
}

func (v *Volume) Read(p []byte) (int, error) {
	if v.pos >= int64(len(v.data)) {
		return 0, io.EOF
	}
	n := copy(p, v.data[v.pos:])
	v.pos += int64(n)
	return n, nil
}

func (v *Volume) Write(p []byte) (int, error) {
	if v.pos >= int64(len(v.data)) {
		return 0, io.ErrShortWrite
	}
	n := copy(v.data[v.pos:], p)
	v.pos += int64(n)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Erase zeroes the entire volume.
func (v *Volume) Erase() error {
	for i := range v.data {
		v.data[i] = 0
	}
	return nil
}

// StorageIDs reports the fixed partition/parent uuid pair this Volume
// was constructed with.
func (v *Volume) StorageIDs() (partitionUUID, parentUUID [16]byte, err error) {
	return v.partitionUUID, v.parentUUID, nil
}

var (
	_ interfaces.Volume      = (*Volume)(nil)
	_ interfaces.Eraser      = (*Volume)(nil)
	_ interfaces.StorageIDer = (*Volume)(nil)
)
