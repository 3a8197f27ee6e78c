// Package mmapvolume implements a Volume backed by a memory-mapped
// file, the practical stand-in for physical bank storage: the agent
// core treats it exactly like any other Volume, while the backing
// bytes are paged in by the OS instead of read wholesale.
package mmapvolume

import (
	"fmt"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/deploymenttheory/go-fwu/internal/interfaces"
	"github.com/deploymenttheory/go-fwu/internal/uuidutil"
)

// Volume is a Volume backed by a memory-mapped regular file. The file
// must already exist at its final size; mmapvolume does not grow it.
type Volume struct {
	path          string
	file          *os.File
	mapping       mmap.MMap
	pos           int64
	partitionUUID [16]byte
	parentUUID    [16]byte
}

// New returns a Volume mapping the file at path. A partition uuid is
// synthesized once per instance since the backing file carries none of
// its own; parentUUID identifies the location this bank belongs to.
func New(path string, parentUUID [16]byte) *Volume {
	return &Volume{path: path, partitionUUID: [16]byte(uuidutil.New()), parentUUID: parentUUID}
}

func (v *Volume) Open() error {
	if v.file != nil {
		return fmt.Errorf("mmapvolume: already open")
	}
	f, err := os.OpenFile(v.path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return err
	}
	v.file = f
	v.mapping = m
	v.pos = 0
	return nil
}

func (v *Volume) Close() error {
	if v.file == nil {
		return nil
	}
	flushErr := v.mapping.Flush()
	unmapErr := v.mapping.Unmap()
	closeErr := v.file.Close()
	v.mapping = nil
	v.file = nil
	if flushErr != nil {
		return flushErr
	}
	if unmapErr != nil {
		return unmapErr
	}
	return closeErr
}

func (v *Volume) Seek(mode interfaces.SeekMode, offset int64) (int64, error) {
	var base int64
	switch mode {
	case interfaces.SeekSet:
		base = 0
	case interfaces.SeekCur:
		base = v.pos
	case interfaces.SeekEnd:
		base = int64(len(v.mapping))
	}
	newPos := base + offset
	if newPos < 0 || newPos > int64(len(v.mapping)) {
		return 0, fmt.Errorf("mmapvolume: seek out of bounds")
	}
	v.pos = newPos
	return v.pos, nil
}

func (v *Volume) Size() (int64, error) {
	if v.mapping != nil {
		return int64(len(v.mapping)), nil
	}
	info, err := os.Stat(v.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (v *Volume) Read(p []byte) (int, error) {
	if v.pos >= int64(len(v.mapping)) {
		return 0, io.EOF
	}
	n := copy(p, v.mapping[v.pos:])
	v.pos += int64(n)
	return n, nil
}

func (v *Volume) Write(p []byte) (int, error) {
	if v.pos >= int64(len(v.mapping)) {
		return 0, io.ErrShortWrite
	}
	n := copy(v.mapping[v.pos:], p)
	v.pos += int64(n)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Erase zeroes the mapped region in place.
func (v *Volume) Erase() error {
	for i := range v.mapping {
		v.mapping[i] = 0
	}
	return nil
}

// StorageIDs reports the synthesized partition uuid and the caller
// supplied parent (location) uuid.
func (v *Volume) StorageIDs() (partitionUUID, parentUUID [16]byte, err error) {
	return v.partitionUUID, v.parentUUID, nil
}

var (
	_ interfaces.Volume      = (*Volume)(nil)
	_ interfaces.Eraser      = (*Volume)(nil)
	_ interfaces.StorageIDer = (*Volume)(nil)
)
