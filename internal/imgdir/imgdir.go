// Package imgdir serializes the FWU image directory object: the
// read-only client-facing listing of every image type, its permissions,
// size limits, and current acceptance state.
package imgdir

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/proto"
)

const (
	headerLen        = 4 + 4 + 4 + 4 + 4 + 4
	imageInfoEntryLen = 16 + 4 + 4 + 4 + 4 + 4 + 4
)

// AcceptanceChecker reports whether a given image is currently accepted,
// satisfied by fwstore.BankedFwStore.
type AcceptanceChecker interface {
	IsAccepted(info fwdirectory.ImageInfo) bool
}

// Len returns the exact number of bytes Serialize will produce for dir.
func Len(dir *fwdirectory.FwDirectory) int {
	return headerLen + dir.NumImages()*imageInfoEntryLen
}

// Serialize writes the image directory wire object for dir into buf.
func Serialize(buf []byte, dir *fwdirectory.FwDirectory, store AcceptanceChecker) (int, error) {
	size := Len(dir)
	if len(buf) < size {
		return 0, fmt.Errorf("imgdir: buffer too small: need %d, have %d", size, len(buf))
	}
	boot := dir.BootInfo()
	correctBoot := uint32(0)
	if boot.ActiveIndex == boot.BootIndex {
		correctBoot = 1
	}

	binary.LittleEndian.PutUint32(buf[0:4], proto.ImageDirectoryVersion)
	binary.LittleEndian.PutUint32(buf[4:8], headerLen)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(dir.NumImages()))
	binary.LittleEndian.PutUint32(buf[12:16], correctBoot)
	binary.LittleEndian.PutUint32(buf[16:20], imageInfoEntryLen)
	binary.LittleEndian.PutUint32(buf[20:24], 0)

	for i := 0; i < dir.NumImages(); i++ {
		info, _ := dir.ImageInfoAt(i)
		off := headerLen + i*imageInfoEntryLen
		copy(buf[off:off+16], info.ImageTypeUUID[:])
		binary.LittleEndian.PutUint32(buf[off+16:off+20], info.Permissions)
		binary.LittleEndian.PutUint32(buf[off+20:off+24], uint32(info.MaxSize))
		binary.LittleEndian.PutUint32(buf[off+24:off+28], info.LowestAcceptedVersion)
		binary.LittleEndian.PutUint32(buf[off+28:off+32], info.ActiveVersion)
		accepted := uint32(0)
		if store.IsAccepted(info) {
			accepted = 1
		}
		binary.LittleEndian.PutUint32(buf[off+32:off+36], accepted)
		binary.LittleEndian.PutUint32(buf[off+36:off+40], 0)
	}
	return size, nil
}
