package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-fwu/internal/bankscheme"
	"github.com/deploymenttheory/go-fwu/internal/banktracker"
	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/installtype"
	"github.com/deploymenttheory/go-fwu/internal/registry"
	"github.com/deploymenttheory/go-fwu/internal/volumes/ramvolume"
)

func newTestDirectory() *fwdirectory.FwDirectory {
	dir := fwdirectory.New()
	dir.AddImageInfo(fwdirectory.ImageInfo{
		ImageTypeUUID: [16]byte{0x01},
		MaxSize:       1024,
		LocationID:    0,
		InstallType:   installtype.WholeVolume,
	})
	dir.AddImageInfo(fwdirectory.ImageInfo{
		ImageTypeUUID: [16]byte{0x02},
		MaxSize:       2048,
		LocationID:    1,
		InstallType:   installtype.WholeVolume,
	})
	return dir
}

func newTestVolumes(t *testing.T) *registry.VolumeIndex {
	t.Helper()
	idx := registry.NewVolumeIndex()
	for loc := uint32(0); loc < 2; loc++ {
		for bank := 0; bank < bankscheme.NumBanks; bank++ {
			parent := [16]byte{0xa0 + byte(loc)}
			v := ramvolume.New(64, [16]byte{byte(loc), byte(bank)}, parent)
			require.NoError(t, idx.Add(bankscheme.VolumeID(loc, bankscheme.UsageID(bank)), v))
		}
	}
	return idx
}

func TestV1SerializeDeserializeRoundTrip(t *testing.T) {
	volumes := newTestVolumes(t)
	dir := newTestDirectory()
	tracker := banktracker.New()
	tracker.Accept(0, 0)
	tracker.Accept(1, 1)

	ser := NewV1(volumes)
	buf := make([]byte, ser.MaxSize())
	n, err := ser.Serialize(buf, dir, tracker, ActiveIndices{ActiveIndex: 1, PreviousActiveIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, ser.Size(dir), n)

	indices, err := ser.DeserializeActiveIndices(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, ActiveIndices{ActiveIndex: 1, PreviousActiveIndex: 0}, indices)

	restored := banktracker.New()
	ser.DeserializeBankInfo(restored, buf[:n])
	assert.True(t, restored.IsAccepted(0, 0))
	assert.True(t, restored.IsAccepted(1, 1))
	assert.False(t, restored.IsAccepted(0, 1))
	assert.False(t, restored.IsAccepted(1, 0))
}

func TestV1SerializeBufferTooSmall(t *testing.T) {
	volumes := newTestVolumes(t)
	dir := newTestDirectory()
	ser := NewV1(volumes)
	_, err := ser.Serialize(make([]byte, 4), dir, banktracker.New(), ActiveIndices{})
	assert.Error(t, err)
}

func TestV1DeserializeTrailingBytesTolerated(t *testing.T) {
	volumes := newTestVolumes(t)
	dir := newTestDirectory()
	tracker := banktracker.New()
	ser := NewV1(volumes)
	buf := make([]byte, ser.MaxSize()+16)
	n, err := ser.Serialize(buf, dir, tracker, ActiveIndices{ActiveIndex: 0, PreviousActiveIndex: 1})
	require.NoError(t, err)

	padded := buf[:n+8]
	indices, err := ser.DeserializeActiveIndices(padded)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), indices.ActiveIndex)
}
