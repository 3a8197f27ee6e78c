package manager

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-fwu/internal/banktracker"
	"github.com/deploymenttheory/go-fwu/internal/bankscheme"
	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/installtype"
	"github.com/deploymenttheory/go-fwu/internal/metadata/serializer"
	"github.com/deploymenttheory/go-fwu/internal/proto"
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
	return dir
}

func newManagerVolumes(t *testing.T) (*registry.VolumeIndex, *ramvolume.Volume, *ramvolume.Volume) {
	t.Helper()
	idx := registry.NewVolumeIndex()
	primary := ramvolume.New(4096, [16]byte{0x10}, [16]byte{0x11})
	backup := ramvolume.New(4096, [16]byte{0x20}, [16]byte{0x21})
	require.NoError(t, idx.Add(bankscheme.VolumeIDPrimaryMetadata, primary))
	require.NoError(t, idx.Add(bankscheme.VolumeIDBackupMetadata, backup))
	return idx, primary, backup
}

func TestCheckAndRepairFailsWithNoVolumes(t *testing.T) {
	idx := registry.NewVolumeIndex()
	ser := serializer.NewV1(idx)
	m := New(ser, idx, nil)
	assert.Equal(t, proto.StatusUnknown, m.CheckAndRepair(newTestDirectory()))
}

func TestUpdateThenCheckAndRepairRoundTrip(t *testing.T) {
	idx, primary, backup := newManagerVolumes(t)
	ser := serializer.NewV1(idx)
	dir := newTestDirectory()
	tracker := banktracker.New()
	tracker.Accept(0, 0)

	m := New(ser, idx, nil)
	require.Equal(t, proto.StatusSuccess, m.Update(0, 1, dir, tracker))

	m2 := New(ser, idx, nil)
	require.Equal(t, proto.StatusSuccess, m2.CheckAndRepair(dir))
	indices, err := m2.GetActiveIndices()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), indices.ActiveIndex)
	assert.Equal(t, uint32(1), indices.PreviousActiveIndex)

	restored := banktracker.New()
	m2.PreloadBankTracker(restored)
	assert.True(t, restored.IsAccepted(0, 0))

	_, _ = primary, backup
}

// TestCheckAndRepairRepairsCorruptedPrimaryFromBackup simulates a power
// failure that left the primary copy's on-disk bytes corrupted while the
// backup copy from the prior successful write is still intact.
func TestCheckAndRepairRepairsCorruptedPrimaryFromBackup(t *testing.T) {
	idx, primary, backup := newManagerVolumes(t)
	ser := serializer.NewV1(idx)
	dir := newTestDirectory()
	tracker := banktracker.New()

	m := New(ser, idx, nil)
	require.Equal(t, proto.StatusSuccess, m.Update(0, 0, dir, tracker))

	metadataLen := ser.Size(dir)
	primaryBuf := readBackingStore(t, primary, metadataLen)
	backupBuf := readBackingStore(t, backup, metadataLen)
	require.Equal(t, primaryBuf, backupBuf)

	corruptBackingStore(t, primary, metadataLen)

	m2 := New(ser, idx, nil)
	require.Equal(t, proto.StatusSuccess, m2.CheckAndRepair(dir))

	repaired := readBackingStore(t, primary, metadataLen)
	assert.Equal(t, backupBuf, repaired)
}

// TestCheckAndRepairRepairsBackupDisagreeingWithValidatedPrimary covers the
// power-failure-between-writes case: the primary write landed and passes
// its own CRC, but the backup write never happened (or landed partially),
// so the backup's CRC-valid bytes still describe the previous generation.
func TestCheckAndRepairRepairsBackupDisagreeingWithValidatedPrimary(t *testing.T) {
	idx, primary, backup := newManagerVolumes(t)
	ser := serializer.NewV1(idx)
	dir := newTestDirectory()
	tracker := banktracker.New()

	m := New(ser, idx, nil)
	require.Equal(t, proto.StatusSuccess, m.Update(0, 0, dir, tracker))
	metadataLen := ser.Size(dir)
	primaryBuf := readBackingStore(t, primary, metadataLen)

	// Write a stale-but-CRC-valid generation directly to the backup,
	// bypassing Update, to reproduce "primary advanced, backup didn't".
	staleIdx := registry.NewVolumeIndex()
	require.NoError(t, staleIdx.Add(bankscheme.VolumeIDPrimaryMetadata, backup))
	staleSer := serializer.NewV1(staleIdx)
	staleM := New(staleSer, staleIdx, nil)
	require.Equal(t, proto.StatusSuccess, staleM.Update(9, 9, dir, tracker))

	m2 := New(ser, idx, nil)
	require.Equal(t, proto.StatusSuccess, m2.CheckAndRepair(dir))

	repairedBackup := readBackingStore(t, backup, metadataLen)
	assert.Equal(t, primaryBuf, repairedBackup)
}

func readBackingStore(t *testing.T, v *ramvolume.Volume, n int) []byte {
	t.Helper()
	require.NoError(t, v.Open())
	defer v.Close()
	buf := make([]byte, n)
	total := 0
	for total < n {
		r, err := v.Read(buf[total:])
		total += r
		if err != nil {
			break
		}
	}
	require.Equal(t, n, total)
	return buf
}

func corruptBackingStore(t *testing.T, v *ramvolume.Volume, n int) {
	t.Helper()
	require.NoError(t, v.Open())
	defer v.Close()
	buf := make([]byte, n)
	binary.LittleEndian.PutUint32(buf[0:4], 0xdeadbeef)
	_, err := v.Write(buf)
	require.NoError(t, err)
}
