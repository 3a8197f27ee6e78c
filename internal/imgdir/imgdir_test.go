package imgdir

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
)

type fakeAcceptanceChecker struct {
	accepted map[[16]byte]bool
}

func (f *fakeAcceptanceChecker) IsAccepted(info fwdirectory.ImageInfo) bool {
	return f.accepted[info.ImageTypeUUID]
}

func TestSerializeHeaderAndEntryLayout(t *testing.T) {
	dir := fwdirectory.New()
	uuidA := [16]byte{1}
	uuidB := [16]byte{2}
	require.True(t, dir.AddImageInfo(fwdirectory.ImageInfo{
		ImageTypeUUID: uuidA, MaxSize: 1024, Permissions: 1, LowestAcceptedVersion: 1, ActiveVersion: 2,
	}))
	require.True(t, dir.AddImageInfo(fwdirectory.ImageInfo{
		ImageTypeUUID: uuidB, MaxSize: 2048, Permissions: 0, LowestAcceptedVersion: 3, ActiveVersion: 3,
	}))
	dir.SetBootInfo(fwdirectory.BootInfo{BootIndex: 0, ActiveIndex: 0, PreviousActiveIndex: 0})

	store := &fakeAcceptanceChecker{accepted: map[[16]byte]bool{uuidA: true}}

	buf := make([]byte, Len(dir))
	n, err := Serialize(buf, dir, store)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)

	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[0:4]), "directory_version")
	assert.Equal(t, uint32(headerLen), binary.LittleEndian.Uint32(buf[4:8]), "img_info_offset")
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[8:12]), "num_images")
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[12:16]), "correct_boot")
	assert.Equal(t, uint32(imageInfoEntryLen), binary.LittleEndian.Uint32(buf[16:20]), "img_info_size")

	entryA := buf[headerLen : headerLen+imageInfoEntryLen]
	assert.Equal(t, uuidA[:], entryA[0:16])
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(entryA[32:36]), "accepted flag for uuidA")

	entryB := buf[headerLen+imageInfoEntryLen : headerLen+2*imageInfoEntryLen]
	assert.Equal(t, uuidB[:], entryB[0:16])
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(entryB[32:36]), "accepted flag for uuidB")
}

func TestSerializeRejectsUndersizedBuffer(t *testing.T) {
	dir := fwdirectory.New()
	require.True(t, dir.AddImageInfo(fwdirectory.ImageInfo{ImageTypeUUID: [16]byte{1}}))
	store := &fakeAcceptanceChecker{accepted: map[[16]byte]bool{}}

	_, err := Serialize(make([]byte, Len(dir)-1), dir, store)
	require.Error(t, err)
}

func TestCorrectBootFalseWhenActiveDiffersFromBoot(t *testing.T) {
	dir := fwdirectory.New()
	dir.SetBootInfo(fwdirectory.BootInfo{BootIndex: 0, ActiveIndex: 1, PreviousActiveIndex: 0})
	store := &fakeAcceptanceChecker{accepted: map[[16]byte]bool{}}

	buf := make([]byte, Len(dir))
	_, err := Serialize(buf, dir, store)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[12:16]), "correct_boot")
}
