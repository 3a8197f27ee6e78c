package copy

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

var locationUUID = [16]byte{9, 9, 9}

func TestCopyInstallerCopiesMinOfSourceAndDestSize(t *testing.T) {
	volumes := registry.NewVolumeIndex()
	bootID := bankscheme.VolumeID(locationID, bankscheme.UsageID(0))
	updateID := bankscheme.VolumeID(locationID, bankscheme.UsageID(1))

	src := ramvolume.New(16, [16]byte{}, [16]byte{})
	require.NoError(t, src.Open())
	_, err := src.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)
	require.NoError(t, src.Close())

	dest := ramvolume.New(8, [16]byte{}, [16]byte{})

	require.NoError(t, volumes.Add(bootID, src))
	require.NoError(t, volumes.Add(updateID, dest))

	installer := New(volumes, locationID, locationUUID)
	require.NoError(t, installer.Begin(bootID, updateID))
	require.NoError(t, installer.Finalize())

	require.NoError(t, dest.Open())
	defer dest.Close()
	buf := make([]byte, 8)
	n, err := dest.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, "01234567", string(buf))
}

func TestCopyInstallerRejectsOpenCommitWrite(t *testing.T) {
	volumes := registry.NewVolumeIndex()
	installer := New(volumes, locationID, locationUUID)
	backend := installer.Backend.(*Backend)

	assertDenied := func(err error) {
		t.Helper()
		require.Error(t, err)
		var se *proto.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, proto.StatusDenied, se.Status)
	}

	assertDenied(backend.Open(fwdirectory.ImageInfo{}))
	assertDenied(backend.Commit())
	_, err := backend.Write([]byte("x"))
	assertDenied(err)
}

func TestCopyInstallerEnumerateAddsNoEntries(t *testing.T) {
	volumes := registry.NewVolumeIndex()
	installer := New(volumes, locationID, locationUUID)
	dir := fwdirectory.New()
	require.NoError(t, installer.Enumerate(0, dir))
	assert.Equal(t, 0, dir.NumImages())
}
