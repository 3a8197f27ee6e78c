package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-fwu/internal/installtype"
	"github.com/deploymenttheory/go-fwu/internal/interfaces"
)

func TestVolumeIndexAddFindClear(t *testing.T) {
	idx := NewVolumeIndex()
	v, ok := idx.Find(1)
	assert.False(t, ok)
	assert.Nil(t, v)

	require.NoError(t, idx.Add(1, nil))
	_, ok = idx.Find(1)
	assert.True(t, ok)

	idx.Clear()
	_, ok = idx.Find(1)
	assert.False(t, ok)
}

func TestVolumeIndexRejectsOverCapacity(t *testing.T) {
	idx := NewVolumeIndex()
	for i := uint32(0); i < volumeIndexMaxEntries; i++ {
		require.NoError(t, idx.Add(i, nil))
	}
	assert.Error(t, idx.Add(volumeIndexMaxEntries, nil))
}

func TestInstallerIndexFindByTypeAndLocation(t *testing.T) {
	idx := NewInstallerIndex()
	a := interfaces.NewInstaller(int(installtype.WholeVolume), 0, [16]byte{0x01}, nil)
	b := interfaces.NewInstaller(int(installtype.WholeVolumeCopy), 1, [16]byte{0x02}, nil)
	idx.Register(a)
	idx.Register(b)

	found, ok := idx.Find(installtype.WholeVolume, 0)
	require.True(t, ok)
	assert.Same(t, a, found)

	_, ok = idx.Find(installtype.WholeVolume, 1)
	assert.False(t, ok)

	found, ok = idx.FindByLocationUUID([16]byte{0x02})
	require.True(t, ok)
	assert.Same(t, b, found)

	assert.ElementsMatch(t, []uint32{0, 1}, idx.LocationIDs())
}

func TestInstallerIndexLocationIDsDeduped(t *testing.T) {
	idx := NewInstallerIndex()
	idx.Register(interfaces.NewInstaller(int(installtype.WholeVolume), 5, [16]byte{}, nil))
	idx.Register(interfaces.NewInstaller(int(installtype.WholeVolumeCopy), 5, [16]byte{}, nil))
	assert.Equal(t, []uint32{5}, idx.LocationIDs())
}
