package cliapp

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// FormatImageDirectory renders a serialized FWU Image Directory object
// (as produced by internal/imgdir and returned by the agent's Open +
// ReadStream over the directory's canonical uuid) as text.
func FormatImageDirectory(buf []byte) (string, error) {
	const headerLen = 24
	if len(buf) < headerLen {
		return "", fmt.Errorf("cliapp: image directory truncated")
	}
	version := binary.LittleEndian.Uint32(buf[0:4])
	imgInfoOff := binary.LittleEndian.Uint32(buf[4:8])
	numImages := binary.LittleEndian.Uint32(buf[8:12])
	correctBoot := binary.LittleEndian.Uint32(buf[12:16])
	entryLen := binary.LittleEndian.Uint32(buf[16:20])

	var b strings.Builder
	fmt.Fprintf(&b, "directory_version: %d\n", version)
	fmt.Fprintf(&b, "correct_boot: %t\n", correctBoot != 0)
	fmt.Fprintf(&b, "num_images: %d\n", numImages)

	for i := uint32(0); i < numImages; i++ {
		off := imgInfoOff + i*entryLen
		if int(off+entryLen) > len(buf) {
			break
		}
		var uuid [16]byte
		copy(uuid[:], buf[off:off+16])
		permissions := binary.LittleEndian.Uint32(buf[off+16 : off+20])
		maxSize := binary.LittleEndian.Uint32(buf[off+20 : off+24])
		lowestAccepted := binary.LittleEndian.Uint32(buf[off+24 : off+28])
		version := binary.LittleEndian.Uint32(buf[off+28 : off+32])
		accepted := binary.LittleEndian.Uint32(buf[off+32 : off+36])
		fmt.Fprintf(&b, "  image[%d]: type=%x permissions=0x%x max_size=%d lowest_accepted_version=%d version=%d accepted=%t\n",
			i, uuid, permissions, maxSize, lowestAccepted, version, accepted != 0)
	}
	return b.String(), nil
}
