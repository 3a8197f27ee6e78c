// Package agent implements the update agent state machine and the
// stream handle pool that backs its open/read/write/commit operations.
package agent

import (
	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/interfaces"
	"github.com/deploymenttheory/go-fwu/internal/proto"
)

// PoolSize bounds the number of simultaneously open stream handles.
const PoolSize = 4

// StreamType distinguishes a read-only buffer stream from a write-only
// install stream.
type StreamType int

const (
	streamNone StreamType = iota
	StreamBuffer
	StreamInstall
)

type streamContext struct {
	streamType StreamType
	handle     uint32

	// BUFFER fields
	data []byte
	pos  int

	// INSTALL fields
	store     installStore
	installer *interfaces.Installer
	imageInfo fwdirectory.ImageInfo

	next, prev int // active list links, -1 terminated
}

// installStore is the minimal surface StreamManager needs from the
// firmware store to write and commit an install stream, satisfied by
// *fwstore.BankedFwStore.
type installStore interface {
	WriteImage(installer *interfaces.Installer, data []byte) (int, proto.Status)
	CommitImage(installer *interfaces.Installer, info fwdirectory.ImageInfo, accepted bool) proto.Status
}

// StreamManager multiplexes a fixed pool of stream contexts, evicting
// the least-recently-used active stream when the pool is exhausted and
// deduplicating opens against the same underlying resource.
type StreamManager struct {
	contexts      [PoolSize]streamContext
	free          []int
	activeHead    int
	activeTail    int
	rollingCount  uint16
}

const listEnd = -1

// NewStreamManager returns a StreamManager with every context free.
func NewStreamManager() *StreamManager {
	m := &StreamManager{activeHead: listEnd, activeTail: listEnd}
	for i := 0; i < PoolSize; i++ {
		m.contexts[i].streamType = streamNone
		m.free = append(m.free, i)
	}
	return m
}

func (m *StreamManager) generateHandle(index int) uint32 {
	h := uint32(index&0xffff) | (uint32(m.rollingCount) << 16)
	m.rollingCount++
	return h
}

func indexFromHandle(handle uint32) int {
	return int(handle & 0xffff)
}

func (m *StreamManager) unlinkActive(index int) {
	ctx := &m.contexts[index]
	if ctx.prev != listEnd {
		m.contexts[ctx.prev].next = ctx.next
	} else {
		m.activeHead = ctx.next
	}
	if ctx.next != listEnd {
		m.contexts[ctx.next].prev = ctx.prev
	} else {
		m.activeTail = ctx.prev
	}
}

func (m *StreamManager) freeContext(index int) {
	m.unlinkActive(index)
	m.contexts[index] = streamContext{streamType: streamNone}
	m.free = append(m.free, index)
}

func (m *StreamManager) allocContext(streamType StreamType) (int, uint32) {
	if len(m.free) == 0 && m.activeTail != listEnd {
		// Evict the least-recently-used active context.
		m.closeIndex(m.activeTail, false)
	}
	index := m.free[len(m.free)-1]
	m.free = m.free[:len(m.free)-1]

	ctx := &m.contexts[index]
	ctx.streamType = streamType
	ctx.next = m.activeHead
	ctx.prev = listEnd
	if m.activeHead != listEnd {
		m.contexts[m.activeHead].prev = index
	}
	m.activeHead = index
	if m.activeTail == listEnd {
		m.activeTail = index
	}

	ctx.handle = m.generateHandle(index)
	return index, ctx.handle
}

func (m *StreamManager) getActiveIndex(handle uint32) (int, bool) {
	index := indexFromHandle(handle)
	if index < 0 || index >= PoolSize {
		return 0, false
	}
	ctx := &m.contexts[index]
	if ctx.streamType == streamNone || ctx.handle != handle {
		return 0, false
	}
	return index, true
}

// OpenBufferStream opens a read-only stream over data, first closing
// any existing buffer stream over the same backing slice (identified
// by its header pointer) to prevent a buffer being read while it is
// concurrently being replaced.
func (m *StreamManager) OpenBufferStream(data []byte) uint32 {
	for i := 0; i < PoolSize; i++ {
		ctx := &m.contexts[i]
		if ctx.streamType == StreamBuffer && len(ctx.data) > 0 && len(data) > 0 && &ctx.data[0] == &data[0] {
			m.freeContext(i)
			break
		}
	}
	index, handle := m.allocContext(StreamBuffer)
	m.contexts[index].data = data
	m.contexts[index].pos = 0
	return handle
}

// OpenInstallStream opens a write-only install stream for info via
// installer, first closing any existing install stream bound to the
// same installer (one open install transaction per installer).
func (m *StreamManager) OpenInstallStream(store installStore, installer *interfaces.Installer, info fwdirectory.ImageInfo) uint32 {
	for i := 0; i < PoolSize; i++ {
		ctx := &m.contexts[i]
		if ctx.streamType == StreamInstall && ctx.installer == installer {
			m.freeContext(i)
			break
		}
	}
	index, handle := m.allocContext(StreamInstall)
	ctx := &m.contexts[index]
	ctx.store = store
	ctx.installer = installer
	ctx.imageInfo = info
	return handle
}

func (m *StreamManager) closeIndex(index int, accepted bool) proto.Status {
	ctx := &m.contexts[index]
	status := proto.StatusSuccess
	if ctx.streamType == StreamInstall {
		status = ctx.store.CommitImage(ctx.installer, ctx.imageInfo, accepted)
	}
	m.freeContext(index)
	return status
}

// Close ends the stream identified by handle, committing an install
// stream's image if it is one.
func (m *StreamManager) Close(handle uint32, accepted bool) proto.Status {
	index, ok := m.getActiveIndex(handle)
	if !ok {
		return proto.StatusUnknown
	}
	return m.closeIndex(index, accepted)
}

// CancelStreams closes every active stream of streamType without
// committing anything, used to discard install streams on
// cancel_staging.
func (m *StreamManager) CancelStreams(streamType StreamType) {
	for i := 0; i < PoolSize; i++ {
		if m.contexts[i].streamType == streamType {
			m.freeContext(i)
		}
	}
}

// IsOpenStreams reports whether any active stream of streamType exists.
func (m *StreamManager) IsOpenStreams(streamType StreamType) bool {
	for i := 0; i < PoolSize; i++ {
		if m.contexts[i].streamType == streamType {
			return true
		}
	}
	return false
}

// Write appends data to the install stream identified by handle.
func (m *StreamManager) Write(handle uint32, data []byte) (int, proto.Status) {
	index, ok := m.getActiveIndex(handle)
	if !ok {
		return 0, proto.StatusUnknown
	}
	ctx := &m.contexts[index]
	if ctx.streamType != StreamInstall {
		return 0, proto.StatusDenied
	}
	return ctx.store.WriteImage(ctx.installer, data)
}

// Read copies up to len(buf) bytes from the buffer stream identified by
// handle, reporting the total stream length regardless of how much was
// actually read this call.
func (m *StreamManager) Read(handle uint32, buf []byte) (readLen int, totalLen int, status proto.Status) {
	index, ok := m.getActiveIndex(handle)
	if !ok {
		return 0, 0, proto.StatusUnknown
	}
	ctx := &m.contexts[index]
	if ctx.streamType != StreamBuffer {
		return 0, 0, proto.StatusDenied
	}
	remaining := len(ctx.data) - ctx.pos
	n := len(buf)
	if n > remaining {
		n = remaining
	}
	if n > 0 {
		copy(buf[:n], ctx.data[ctx.pos:ctx.pos+n])
	}
	ctx.pos += n
	return n, len(ctx.data), proto.StatusSuccess
}
