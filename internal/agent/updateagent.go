package agent

import (
	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/imgdir"
	"github.com/deploymenttheory/go-fwu/internal/interfaces"
	"github.com/deploymenttheory/go-fwu/internal/proto"
	"github.com/deploymenttheory/go-fwu/internal/uuidutil"
	"go.uber.org/zap"
)

// State is one of the update agent's lifecycle states.
type State int

const (
	StateUninitialised State = iota
	StateInitialising
	StateRegular
	StateStaging
	StateTrialPending
	StateTrial
)

func (s State) String() string {
	switch s {
	case StateUninitialised:
		return "UNINITIALISED"
	case StateInitialising:
		return "INITIALISING"
	case StateRegular:
		return "REGULAR"
	case StateStaging:
		return "STAGING"
	case StateTrialPending:
		return "TRIAL_PENDING"
	case StateTrial:
		return "TRIAL"
	default:
		return "UNKNOWN_STATE"
	}
}

// FwStore is the capability UpdateAgent drives; satisfied by
// *fwstore.BankedFwStore.
type FwStore interface {
	installStore
	Synchronize(dir *fwdirectory.FwDirectory, bootIndex uint32) proto.Status
	BeginInstall() proto.Status
	CancelInstall()
	FinalizeInstall() proto.Status
	SelectInstaller(info fwdirectory.ImageInfo) (*interfaces.Installer, proto.Status)
	NotifyAccepted(info fwdirectory.ImageInfo) (bool, proto.Status)
	IsAccepted(info fwdirectory.ImageInfo) bool
	IsTrial() bool
	CommitToUpdate() proto.Status
	RevertToPrevious() proto.Status
	Export(uuid [16]byte) ([]byte, bool, proto.Status)
}

// UpdateAgent is the top-level FWU-A state machine: it dispatches the
// external operations (discover, begin/end/cancel staging, open,
// read/write stream, commit, accept, select_previous) against the
// firmware store and directory while enforcing the legal-operation-per-
// state table.
type UpdateAgent struct {
	state     State
	fwStore   FwStore
	dir       *fwdirectory.FwDirectory
	streams   *StreamManager
	imgDirBuf []byte
	log       *zap.SugaredLogger
}

// New constructs an UpdateAgent: inspects the firmware directory at
// bootIndex, synchronizes the store against it, and enters REGULAR or
// TRIAL depending on whether the resulting boot bank is fully accepted.
func New(bootIndex uint32, inspector fwdirectory.FwInspector, fwStore FwStore, log *zap.SugaredLogger) (*UpdateAgent, error) {
	dir := fwdirectory.New()
	if err := inspector.Inspect(dir, bootIndex); err != nil {
		return nil, err
	}
	if status := fwStore.Synchronize(dir, bootIndex); status != proto.StatusSuccess {
		return nil, &proto.StatusError{Status: status}
	}

	a := &UpdateAgent{
		fwStore: fwStore,
		dir:     dir,
		streams: NewStreamManager(),
		log:     log,
	}
	a.imgDirBuf = make([]byte, imgdir.Len(dir))
	if fwStore.IsTrial() {
		a.state = StateTrial
	} else {
		a.state = StateRegular
	}
	if log != nil {
		log.Infow("update agent initialised", "boot_index", bootIndex, "state", a.state.String())
	}
	return a, nil
}

// State returns the agent's current lifecycle state.
func (a *UpdateAgent) State() State {
	return a.state
}

// implementedFuncIDs lists every operation this agent implements, in
// the order surfaced through function_presence. A deployment that
// intentionally omits an operation (e.g. no select_previous) would
// drop its id from this list rather than reporting it and failing.
var implementedFuncIDs = []proto.FuncID{
	proto.FuncIDDiscover,
	proto.FuncIDBeginStaging,
	proto.FuncIDEndStaging,
	proto.FuncIDCancelStaging,
	proto.FuncIDOpen,
	proto.FuncIDWriteStream,
	proto.FuncIDReadStream,
	proto.FuncIDCommit,
	proto.FuncIDAcceptImage,
	proto.FuncIDSelectPrevious,
}

// Discover answers the protocol's capability query with the set of
// function ids this agent implements.
func (a *UpdateAgent) Discover() proto.DiscoverOut {
	presence := make([]byte, len(implementedFuncIDs))
	for i, id := range implementedFuncIDs {
		presence[i] = byte(id)
	}
	return proto.DiscoverOut{
		ServiceStatus:    0,
		VersionMajor:     proto.ProtocolVersionMajor,
		VersionMinor:     proto.ProtocolVersionMinor,
		NumFunc:          uint16(len(presence)),
		MaxPayloadSize:   0,
		Flags:            0,
		FunctionPresence: presence,
	}
}

// BeginStaging discards any previous staging progress and starts a new
// install transaction, transitioning REGULAR -> STAGING.
func (a *UpdateAgent) BeginStaging() proto.Status {
	a.CancelStaging()
	if a.state != StateRegular {
		return proto.StatusDenied
	}
	status := a.fwStore.BeginInstall()
	if status != proto.StatusSuccess {
		return status
	}
	a.state = StateStaging
	return proto.StatusSuccess
}

// EndStaging finalizes the install transaction, transitioning
// STAGING -> TRIAL_PENDING. Fails with BUSY if any install stream is
// still open.
func (a *UpdateAgent) EndStaging() proto.Status {
	if a.state != StateStaging {
		return proto.StatusDenied
	}
	if a.streams.IsOpenStreams(StreamInstall) {
		return proto.StatusBusy
	}
	status := a.fwStore.FinalizeInstall()
	if status != proto.StatusSuccess {
		return status
	}
	a.state = StateTrialPending
	return proto.StatusSuccess
}

// CancelStaging discards the in-progress install transaction,
// transitioning STAGING -> REGULAR. A no-op (returns DENIED) outside
// STAGING.
func (a *UpdateAgent) CancelStaging() proto.Status {
	if a.state != StateStaging {
		return proto.StatusDenied
	}
	a.streams.CancelStreams(StreamInstall)
	a.fwStore.CancelInstall()
	a.state = StateRegular
	return proto.StatusSuccess
}

// Accept marks imageTypeUUID accepted in TRIAL; once every image in the
// boot bank is accepted it commits the update and returns to REGULAR.
func (a *UpdateAgent) Accept(imageTypeUUID [16]byte) proto.Status {
	if a.state != StateTrial {
		return proto.StatusDenied
	}
	info, found := a.dir.FindImageInfo(imageTypeUUID)
	if !found {
		return proto.StatusUnknown
	}
	allAccepted, status := a.fwStore.NotifyAccepted(info)
	if status != proto.StatusSuccess {
		return status
	}
	if allAccepted {
		if status := a.fwStore.CommitToUpdate(); status != proto.StatusSuccess {
			return status
		}
		a.state = StateRegular
	}
	return proto.StatusSuccess
}

// SelectPrevious reverts to the previously active bank, returning to
// REGULAR, from either TRIAL or TRIAL_PENDING.
func (a *UpdateAgent) SelectPrevious() proto.Status {
	if a.state != StateTrial && a.state != StateTrialPending {
		return proto.StatusDenied
	}
	status := a.fwStore.RevertToPrevious()
	if status != proto.StatusSuccess {
		return status
	}
	a.state = StateRegular
	return proto.StatusSuccess
}

var directoryUUID = uuidutil.MustParse(proto.DirectoryCanonicalUUID)

// Open dispatches a client's request to read or write an object by
// uuid: the image directory, an fw_store-exported object (metadata), or
// a staged image by its own type uuid, tried in that order.
func (a *UpdateAgent) Open(objUUID [16]byte) (uint32, proto.Status) {
	if handle, status, ok := a.openImageDirectory(objUUID); ok {
		return handle, status
	}
	if handle, status, ok := a.openFwStoreObject(objUUID); ok {
		return handle, status
	}
	if handle, status, ok := a.openFwImage(objUUID); ok {
		return handle, status
	}
	return 0, proto.StatusUnknown
}

func (a *UpdateAgent) openImageDirectory(objUUID [16]byte) (uint32, proto.Status, bool) {
	if objUUID != directoryUUID {
		return 0, 0, false
	}
	n, err := imgdir.Serialize(a.imgDirBuf, a.dir, a.fwStore)
	if err != nil {
		return 0, proto.StatusUnknown, true
	}
	return a.streams.OpenBufferStream(a.imgDirBuf[:n]), proto.StatusSuccess, true
}

func (a *UpdateAgent) openFwStoreObject(objUUID [16]byte) (uint32, proto.Status, bool) {
	data, handled, status := a.fwStore.Export(objUUID)
	if !handled {
		return 0, 0, false
	}
	if status != proto.StatusSuccess {
		return 0, status, true
	}
	return a.streams.OpenBufferStream(data), proto.StatusSuccess, true
}

func (a *UpdateAgent) openFwImage(objUUID [16]byte) (uint32, proto.Status, bool) {
	info, found := a.dir.FindImageInfo(objUUID)
	if !found {
		return 0, 0, false
	}
	if a.state != StateStaging {
		return 0, proto.StatusDenied, true
	}
	installer, status := a.fwStore.SelectInstaller(info)
	if status != proto.StatusSuccess {
		return 0, status, true
	}
	return a.streams.OpenInstallStream(a.fwStore, installer, info), proto.StatusSuccess, true
}

// WriteStream forwards to the stream manager.
func (a *UpdateAgent) WriteStream(handle uint32, data []byte) (int, proto.Status) {
	return a.streams.Write(handle, data)
}

// ReadStream forwards to the stream manager.
func (a *UpdateAgent) ReadStream(handle uint32, buf []byte) (int, int, proto.Status) {
	return a.streams.Read(handle, buf)
}

// Commit closes handle. Completion is always synchronous: progress and
// total_work are both reported as 1 on success.
func (a *UpdateAgent) Commit(handle uint32, accepted bool) (progress, totalWork uint32, status proto.Status) {
	status = a.streams.Close(handle, accepted)
	totalWork = 1
	if status == proto.StatusSuccess {
		progress = 1
	}
	return progress, totalWork, status
}
