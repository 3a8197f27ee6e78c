package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/interfaces"
	"github.com/deploymenttheory/go-fwu/internal/proto"
)

type fakeInstallStore struct {
	writeCalls  int
	commitCalls int
	lastAccept  bool
}

func (f *fakeInstallStore) WriteImage(installer *interfaces.Installer, data []byte) (int, proto.Status) {
	f.writeCalls++
	return len(data), proto.StatusSuccess
}

func (f *fakeInstallStore) CommitImage(installer *interfaces.Installer, info fwdirectory.ImageInfo, accepted bool) proto.Status {
	f.commitCalls++
	f.lastAccept = accepted
	return proto.StatusSuccess
}

func TestOpenBufferStreamReadAndClose(t *testing.T) {
	m := NewStreamManager()
	handle := m.OpenBufferStream([]byte("hello"))

	buf := make([]byte, 2)
	n, total, status := m.Read(handle, buf)
	require.Equal(t, proto.StatusSuccess, status)
	assert.Equal(t, 2, n)
	assert.Equal(t, 5, total)
	assert.Equal(t, "he", string(buf[:n]))

	n, _, status = m.Read(handle, buf)
	require.Equal(t, proto.StatusSuccess, status)
	assert.Equal(t, "ll", string(buf[:n]))

	require.Equal(t, proto.StatusSuccess, m.Close(handle, false))
	_, _, status = m.Read(handle, buf)
	assert.Equal(t, proto.StatusUnknown, status)
}

func TestOpenBufferStreamDedupesSameBackingSlice(t *testing.T) {
	m := NewStreamManager()
	data := []byte("same-buffer")
	first := m.OpenBufferStream(data)
	second := m.OpenBufferStream(data)
	assert.NotEqual(t, first, second)

	_, _, status := m.Read(first, make([]byte, 1))
	assert.Equal(t, proto.StatusUnknown, status)
	_, _, status = m.Read(second, make([]byte, 1))
	assert.Equal(t, proto.StatusSuccess, status)
}

func TestOpenInstallStreamDedupesSameInstaller(t *testing.T) {
	m := NewStreamManager()
	store := &fakeInstallStore{}
	installer := &interfaces.Installer{}

	first := m.OpenInstallStream(store, installer, fwdirectory.ImageInfo{})
	second := m.OpenInstallStream(store, installer, fwdirectory.ImageInfo{})
	assert.NotEqual(t, first, second)

	_, status := m.Write(first, []byte("x"))
	assert.Equal(t, proto.StatusUnknown, status)
	n, status := m.Write(second, []byte("x"))
	require.Equal(t, proto.StatusSuccess, status)
	assert.Equal(t, 1, n)
}

func TestWriteToBufferStreamIsDenied(t *testing.T) {
	m := NewStreamManager()
	handle := m.OpenBufferStream([]byte("x"))
	_, status := m.Write(handle, []byte("y"))
	assert.Equal(t, proto.StatusDenied, status)
}

// TestAllocContextEvictsLeastRecentlyUsedOnFullPool fills the fixed-size
// pool, opens one more stream, and checks that the first stream opened
// (the least-recently-touched one) is the one evicted, while the others
// remain readable.
func TestAllocContextEvictsLeastRecentlyUsedOnFullPool(t *testing.T) {
	m := NewStreamManager()
	handles := make([]uint32, PoolSize)
	for i := 0; i < PoolSize; i++ {
		handles[i] = m.OpenBufferStream([]byte{byte(i)})
	}

	overflow := m.OpenBufferStream([]byte{0xff})

	_, _, status := m.Read(handles[0], make([]byte, 1))
	assert.Equal(t, proto.StatusUnknown, status, "oldest stream should have been evicted")

	for i := 1; i < PoolSize; i++ {
		_, _, status := m.Read(handles[i], make([]byte, 1))
		assert.Equal(t, proto.StatusSuccess, status)
	}
	_, _, status = m.Read(overflow, make([]byte, 1))
	assert.Equal(t, proto.StatusSuccess, status)
}

// TestStaleHandleAfterSlotReuseIsRejected reproduces the rolling-counter
// defense: once a slot is freed and reused for a new stream, a caller
// still holding the old handle for that slot must be rejected rather
// than handed the new stream's data.
func TestStaleHandleAfterSlotReuseIsRejected(t *testing.T) {
	m := NewStreamManager()
	stale := m.OpenBufferStream([]byte("first"))
	require.Equal(t, proto.StatusSuccess, m.Close(stale, false))

	fresh := m.OpenBufferStream([]byte("second"))
	assert.Equal(t, stale&0xffff, fresh&0xffff, "slot index should have been reused")
	assert.NotEqual(t, stale, fresh, "rolling counter should differentiate the reused slot")

	_, _, status := m.Read(stale, make([]byte, 1))
	assert.Equal(t, proto.StatusUnknown, status)

	buf := make([]byte, 1)
	n, _, status := m.Read(fresh, buf)
	require.Equal(t, proto.StatusSuccess, status)
	require.Equal(t, 1, n)
	assert.Equal(t, byte('s'), buf[0])
}

func TestCancelStreamsClosesOnlyMatchingType(t *testing.T) {
	m := NewStreamManager()
	store := &fakeInstallStore{}
	installer := &interfaces.Installer{}
	bufHandle := m.OpenBufferStream([]byte("keep"))
	installHandle := m.OpenInstallStream(store, installer, fwdirectory.ImageInfo{})

	m.CancelStreams(StreamInstall)

	_, _, status := m.Read(bufHandle, make([]byte, 1))
	assert.Equal(t, proto.StatusSuccess, status)
	_, status = m.Write(installHandle, []byte("x"))
	assert.Equal(t, proto.StatusUnknown, status)
	assert.Equal(t, 0, store.commitCalls, "cancelled install stream must not commit")
}

func TestCloseInstallStreamCommitsWithAcceptedFlag(t *testing.T) {
	m := NewStreamManager()
	store := &fakeInstallStore{}
	installer := &interfaces.Installer{}
	handle := m.OpenInstallStream(store, installer, fwdirectory.ImageInfo{})

	require.Equal(t, proto.StatusSuccess, m.Close(handle, true))
	assert.Equal(t, 1, store.commitCalls)
	assert.True(t, store.lastAccept)
}
