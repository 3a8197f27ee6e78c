// Package manager implements the dual-copy, CRC-repaired persistence of
// FWU metadata: a primary and (optional) backup volume, a validated
// in-memory cache, and repair-on-read semantics so a power failure
// between writing the two copies never leaves the system without a
// valid metadata image.
package manager

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-fwu/internal/banktracker"
	"github.com/deploymenttheory/go-fwu/internal/bankscheme"
	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/interfaces"
	"github.com/deploymenttheory/go-fwu/internal/metadata/serializer"
	"github.com/deploymenttheory/go-fwu/internal/metadata/wire"
	"github.com/deploymenttheory/go-fwu/internal/proto"
	"github.com/deploymenttheory/go-fwu/internal/registry"
	"go.uber.org/zap"
)

// Manager owns the persisted metadata cache and its dual-copy repair.
type Manager struct {
	serializer serializer.Serializer
	primary    interfaces.Volume
	backup     interfaces.Volume

	cache        []byte
	metadataLen  int
	isValid      bool
	isDirty      bool
	storedCRC    uint32

	log *zap.SugaredLogger
}

// New constructs a Manager bound to ser for the given volume registry;
// the primary/backup metadata volumes are looked up by their well-known
// ids and may be absent (nil) if the deployment has no such volume.
func New(ser serializer.Serializer, volumes *registry.VolumeIndex, log *zap.SugaredLogger) *Manager {
	primary, _ := volumes.Find(bankscheme.VolumeIDPrimaryMetadata)
	backup, _ := volumes.Find(bankscheme.VolumeIDBackupMetadata)
	return &Manager{
		serializer: ser,
		primary:    primary,
		backup:     backup,
		cache:      make([]byte, ser.MaxSize()),
		log:        log,
	}
}

func readVolume(v interfaces.Volume, n int) ([]byte, proto.Status) {
	if err := v.Open(); err != nil {
		return nil, proto.StatusUnknown
	}
	defer v.Close()
	buf := make([]byte, n)
	total := 0
	for total < n {
		r, err := v.Read(buf[total:])
		if r > 0 {
			total += r
		}
		if err != nil {
			return nil, proto.StatusUnknown
		}
		if r == 0 {
			break
		}
	}
	if total != n {
		return nil, proto.StatusUnknown
	}
	return buf, proto.StatusSuccess
}

func loadAndCheckMetadata(v interfaces.Volume, expectedLen int) ([]byte, proto.Status) {
	buf, status := readVolume(v, expectedLen)
	if status != proto.StatusSuccess {
		return nil, status
	}
	calc := wire.Checksum(buf)
	stored := binary.LittleEndian.Uint32(buf[0:4])
	if calc != stored {
		return buf, proto.StatusUnknown
	}
	return buf, proto.StatusSuccess
}

func storeMetadata(v interfaces.Volume, data []byte) proto.Status {
	if err := v.Open(); err != nil {
		return proto.StatusUnknown
	}
	defer v.Close()
	if eraser, ok := v.(interfaces.Eraser); ok {
		if err := eraser.Erase(); err != nil {
			return proto.StatusUnknown
		}
	}
	total := 0
	for total < len(data) {
		n, err := v.Write(data[total:])
		if err != nil {
			return proto.StatusUnknown
		}
		total += n
		if n == 0 {
			break
		}
	}
	if total != len(data) {
		return proto.StatusOutOfBounds
	}
	return proto.StatusSuccess
}

// CheckAndRepair validates the cached metadata against both volumes,
// repairing whichever copy failed its own CRC check or disagrees with
// the other, and returns StatusSuccess once a valid cache is in hand.
func (m *Manager) CheckAndRepair(dir *fwdirectory.FwDirectory) proto.Status {
	if m.isValid {
		return proto.StatusSuccess
	}
	if m.primary == nil && m.backup == nil {
		if m.log != nil {
			m.log.Warn("FWU volume not accessible")
		}
		return proto.StatusUnknown
	}

	m.metadataLen = m.serializer.Size(dir)

	var primaryStatus, backupStatus proto.Status = proto.StatusUnknown, proto.StatusUnknown
	if m.primary != nil {
		buf, status := loadAndCheckMetadata(m.primary, m.metadataLen)
		primaryStatus = status
		if status == proto.StatusSuccess {
			copy(m.cache, buf)
			m.isValid = true
		}
	}

	if m.backup != nil {
		if m.isValid {
			backupBuf, status := loadAndCheckMetadata(m.backup, m.metadataLen)
			backupStatus = status
			if status != proto.StatusSuccess || backupBuf[0] != m.cache[0] || backupBuf[1] != m.cache[1] ||
				backupBuf[2] != m.cache[2] || backupBuf[3] != m.cache[3] {
				// Either the backup failed its own CRC check, or it
				// disagrees with a validated primary: a power failure
				// between the two writes. Force a repair below.
				backupStatus = proto.StatusUnknown
			}
		} else {
			buf, status := loadAndCheckMetadata(m.backup, m.metadataLen)
			backupStatus = status
			if status == proto.StatusSuccess {
				copy(m.cache, buf)
				m.isValid = true
			}
		}
	}

	if m.isValid {
		if primaryStatus != proto.StatusSuccess && m.primary != nil {
			if m.log != nil {
				m.log.Warn("repairing primary FWU metadata from backup")
			}
			storeMetadata(m.primary, m.cache[:m.metadataLen])
		}
		if backupStatus != proto.StatusSuccess && m.backup != nil {
			if m.log != nil {
				m.log.Warn("repairing backup FWU metadata from primary")
			}
			storeMetadata(m.backup, m.cache[:m.metadataLen])
		}
		m.storedCRC = binary.LittleEndian.Uint32(m.cache[0:4])
		return proto.StatusSuccess
	}
	return proto.StatusUnknown
}

// Update serializes dir/tracker/indices, writes the primary copy then
// the backup copy (this order is the sole power-fail safety guarantee:
// a crash mid-write always leaves at least one CRC-valid copy that
// agrees with the other once repaired), and skips the write entirely
// if nothing has changed since the last stored CRC.
func (m *Manager) Update(activeIndex, previousActiveIndex uint32, dir *fwdirectory.FwDirectory, tracker *banktracker.BankTracker) proto.Status {
	m.metadataLen = m.serializer.Size(dir)
	n, err := m.serializer.Serialize(m.cache, dir, tracker, serializer.ActiveIndices{
		ActiveIndex:         activeIndex,
		PreviousActiveIndex: previousActiveIndex,
	})
	if err != nil {
		return proto.StatusUnknown
	}
	m.metadataLen = n
	calcCRC := wire.Checksum(m.cache[:m.metadataLen])
	binary.LittleEndian.PutUint32(m.cache[0:4], calcCRC)

	wasValid := m.isValid
	m.isValid = true
	m.isDirty = true

	if wasValid && m.storedCRC == calcCRC {
		return proto.StatusSuccess
	}

	var firstErr proto.Status = proto.StatusSuccess
	primaryOK, backupOK := true, true

	if m.primary != nil {
		if status := storeMetadata(m.primary, m.cache[:m.metadataLen]); status != proto.StatusSuccess {
			primaryOK = false
			if firstErr == proto.StatusSuccess {
				firstErr = status
			}
		}
	}
	if m.backup != nil {
		if status := storeMetadata(m.backup, m.cache[:m.metadataLen]); status != proto.StatusSuccess {
			backupOK = false
			if firstErr == proto.StatusSuccess {
				firstErr = status
			}
		}
	}

	if primaryOK && backupOK {
		m.storedCRC = calcCRC
	}
	return firstErr
}

// Fetch returns the cached metadata blob for export, clearing the dirty
// flag, or StatusUnknown if no valid cache exists.
func (m *Manager) Fetch() ([]byte, bool, proto.Status) {
	if !m.isValid {
		return nil, false, proto.StatusUnknown
	}
	dirty := m.isDirty
	m.isDirty = false
	data := make([]byte, m.metadataLen)
	copy(data, m.cache[:m.metadataLen])
	return data, dirty, proto.StatusSuccess
}

// GetActiveIndices reads the active/previous bank indices out of the
// validated cache.
func (m *Manager) GetActiveIndices() (serializer.ActiveIndices, error) {
	if !m.isValid {
		return serializer.ActiveIndices{}, fmt.Errorf("manager: metadata cache not valid")
	}
	return m.serializer.DeserializeActiveIndices(m.cache[:m.metadataLen])
}

// CacheInvalidate forces the next CheckAndRepair to reload from storage.
func (m *Manager) CacheInvalidate() {
	m.isValid = false
}

// PreloadBankTracker reconstructs bank content/acceptance state from
// the validated cache into tracker.
func (m *Manager) PreloadBankTracker(tracker *banktracker.BankTracker) {
	m.serializer.DeserializeBankInfo(tracker, m.cache[:m.metadataLen])
}
