package raw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-fwu/internal/bankscheme"
	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/proto"
	"github.com/deploymenttheory/go-fwu/internal/registry"
	"github.com/deploymenttheory/go-fwu/internal/volumes/ramvolume"
)

const locationID = uint32(0)

var locationUUID = [16]byte{1, 2, 3}

func newBackendWithVolumes(t *testing.T, size int) (*Backend, *registry.VolumeIndex) {
	t.Helper()
	volumes := registry.NewVolumeIndex()
	bootID := bankscheme.VolumeID(locationID, bankscheme.UsageID(0))
	updateID := bankscheme.VolumeID(locationID, bankscheme.UsageID(1))
	require.NoError(t, volumes.Add(bootID, ramvolume.New(size, [16]byte{}, [16]byte{})))
	require.NoError(t, volumes.Add(updateID, ramvolume.New(size, [16]byte{}, [16]byte{})))

	installer := New(volumes, locationID, locationUUID)
	backend := installer.Backend.(*Backend)
	require.NoError(t, installer.Begin(bootID, updateID))
	return backend, volumes
}

func TestRawInstallerWritesThroughToUpdateVolume(t *testing.T) {
	backend, volumes := newBackendWithVolumes(t, 64)

	info := fwdirectory.ImageInfo{ImageTypeUUID: locationUUID, MaxSize: 64}
	require.NoError(t, backend.Open(info))
	n, err := backend.Write([]byte("firmware"))
	require.NoError(t, err)
	assert.Equal(t, len("firmware"), n)
	require.NoError(t, backend.Commit())

	updateID := bankscheme.VolumeID(locationID, bankscheme.UsageID(1))
	v, ok := volumes.Find(updateID)
	require.True(t, ok)
	require.NoError(t, v.Open())
	defer v.Close()
	buf := make([]byte, 8)
	_, err = v.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "firmware", string(buf))
}

func TestRawInstallerRejectsSecondOpenInOneTransaction(t *testing.T) {
	backend, _ := newBackendWithVolumes(t, 64)
	info := fwdirectory.ImageInfo{ImageTypeUUID: locationUUID, MaxSize: 64}
	require.NoError(t, backend.Open(info))
	_, _ = backend.Write([]byte("x"))
	require.NoError(t, backend.Commit())

	err := backend.Open(info)
	require.Error(t, err)
	var statusErr *proto.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, proto.StatusDenied, statusErr.Status)
}

func TestRawInstallerRejectsZeroLengthCommit(t *testing.T) {
	backend, _ := newBackendWithVolumes(t, 64)
	info := fwdirectory.ImageInfo{ImageTypeUUID: locationUUID, MaxSize: 64}
	require.NoError(t, backend.Open(info))

	err := backend.Commit()
	require.Error(t, err)
	var statusErr *proto.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, proto.StatusNotAvailable, statusErr.Status)
}

func TestRawInstallerOversizeWriteReturnsOutOfBounds(t *testing.T) {
	backend, _ := newBackendWithVolumes(t, 4)
	info := fwdirectory.ImageInfo{ImageTypeUUID: locationUUID, MaxSize: 4}
	require.NoError(t, backend.Open(info))

	_, err := backend.Write([]byte("toolong"))
	require.Error(t, err)
	var statusErr *proto.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, proto.StatusOutOfBounds, statusErr.Status)
}
