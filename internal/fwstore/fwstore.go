// Package fwstore implements the banked A/B firmware store: the
// transactional install flow (begin/select/write/commit/finalize),
// trial-state detection, and revert-to-previous, all backed by the
// bank tracker and metadata manager.
package fwstore

import (
	"github.com/deploymenttheory/go-fwu/internal/bankscheme"
	"github.com/deploymenttheory/go-fwu/internal/banktracker"
	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/installtype"
	"github.com/deploymenttheory/go-fwu/internal/interfaces"
	"github.com/deploymenttheory/go-fwu/internal/metadata/manager"
	"github.com/deploymenttheory/go-fwu/internal/proto"
	"github.com/deploymenttheory/go-fwu/internal/registry"
	"github.com/deploymenttheory/go-fwu/internal/uuidutil"
	"go.uber.org/zap"
)

// BankedFwStore implements the FwStore capability over a two-bank A/B
// scheme: image content lives in whichever bank is not currently
// active, promoted to active on a successful finalize_install.
type BankedFwStore struct {
	installers *registry.InstallerIndex
	tracker    *banktracker.BankTracker
	metadata   *manager.Manager
	log        *zap.SugaredLogger

	dir         *fwdirectory.FwDirectory
	bootIndex   uint32
	updateIndex uint32

	activeInstallers []*interfaces.Installer
}

// New constructs a BankedFwStore bound to the given installer registry
// and metadata manager; the bank tracker is owned here.
func New(installers *registry.InstallerIndex, metadata *manager.Manager, log *zap.SugaredLogger) *BankedFwStore {
	return &BankedFwStore{
		installers: installers,
		tracker:    banktracker.New(),
		metadata:   metadata,
		log:        log,
	}
}

// Synchronize establishes the store's view of the world at the given
// boot bank: on first boot (no valid metadata), it trusts the boot
// bank wholesale and writes fresh metadata; otherwise it restores
// indices/acceptance from persisted metadata, falling back to trusting
// the boot bank again if the bootloader booted a bank metadata didn't
// expect (a bootloader-triggered fallback).
func (s *BankedFwStore) Synchronize(dir *fwdirectory.FwDirectory, bootIndex uint32) proto.Status {
	s.dir = dir
	s.bootIndex = bootIndex
	s.updateIndex = bankscheme.NextIndex(bootIndex)

	boot := fwdirectory.BootInfo{BootIndex: bootIndex}

	if status := s.metadata.CheckAndRepair(dir); status != proto.StatusSuccess {
		if s.log != nil {
			s.log.Info("no valid FWU metadata found, trusting boot bank as first boot")
		}
		boot.ActiveIndex = bootIndex
		boot.PreviousActiveIndex = bootIndex
		s.tracker.SetHoldsAcceptedContent(int(bootIndex))
		s.metadata.Update(bootIndex, bootIndex, dir, s.tracker)
	} else {
		indices, err := s.metadata.GetActiveIndices()
		if err != nil {
			return proto.StatusUnknown
		}
		boot.ActiveIndex = indices.ActiveIndex
		boot.PreviousActiveIndex = indices.PreviousActiveIndex
		s.metadata.PreloadBankTracker(s.tracker)

		if bootIndex != boot.ActiveIndex {
			if s.log != nil {
				s.log.Warnw("bootloader fell back to a bank metadata did not expect",
					"boot_index", bootIndex, "expected_active_index", boot.ActiveIndex)
			}
			boot.ActiveIndex = bootIndex
			boot.PreviousActiveIndex = bootIndex
			s.metadata.Update(bootIndex, bootIndex, dir, s.tracker)
		}
	}

	dir.SetBootInfo(boot)
	return proto.StatusSuccess
}

// BeginInstall starts an install transaction: the update bank is wiped
// of tracked content and protected from promotion (active/previous
// both pinned to the boot bank) until finalize_install succeeds.
func (s *BankedFwStore) BeginInstall() proto.Status {
	if len(s.activeInstallers) != 0 {
		return proto.StatusDenied
	}
	s.tracker.SetNoContent(int(s.updateIndex))
	return s.metadata.Update(s.bootIndex, s.bootIndex, s.dir, s.tracker)
}

// CancelInstall aborts every installer activated since BeginInstall.
func (s *BankedFwStore) CancelInstall() {
	for _, in := range s.activeInstallers {
		in.Abort()
	}
	s.activeInstallers = nil
}

func (s *BankedFwStore) activateInstaller(installer *interfaces.Installer, locationID uint32) error {
	updateVolumeID := bankscheme.VolumeID(locationID, bankscheme.UsageID(int(s.updateIndex)))
	currentVolumeID := bankscheme.VolumeID(locationID, bankscheme.UsageID(int(s.bootIndex)))
	if err := installer.Begin(currentVolumeID, updateVolumeID); err != nil {
		return err
	}
	s.activeInstallers = append(s.activeInstallers, installer)
	return nil
}

func (s *BankedFwStore) copyAcceptedStateForLocation(locationID uint32) {
	for i := 0; i < s.dir.NumImages(); i++ {
		info, _ := s.dir.ImageInfoAt(i)
		if info.LocationID == locationID {
			s.tracker.CopyAccept(int(s.bootIndex), int(s.updateIndex), int(info.ImageIndex))
		}
	}
}

// installUnchangedImages copies every location with no active installer
// across unmodified via a registered WHOLE_VOLUME_COPY installer for
// that location. Locations with neither an active installer nor a copy
// installer make a partial update impossible.
func (s *BankedFwStore) installUnchangedImages() proto.Status {
	for _, locationID := range s.installers.LocationIDs() {
		hasActive := false
		for _, in := range s.activeInstallers {
			if in.LocationID == locationID && in.Status() == nil {
				hasActive = true
				break
			}
		}
		if hasActive {
			continue
		}
		copyInstaller, found := s.installers.Find(installtype.WholeVolumeCopy, locationID)
		if !found {
			return proto.StatusNotAvailable
		}
		if err := s.activateInstaller(copyInstaller, locationID); err != nil {
			return proto.StatusUnknown
		}
		if err := copyInstaller.Finalize(); err != nil {
			return proto.StatusUnknown
		}
		s.copyAcceptedStateForLocation(locationID)
	}
	return proto.StatusSuccess
}

// FinalizeInstall completes an install transaction: every location not
// explicitly written is copied unchanged, then every active installer
// is finalized (or aborted, if any step already failed); on full
// success the update bank is promoted to active.
func (s *BankedFwStore) FinalizeInstall() proto.Status {
	if len(s.activeInstallers) == 0 {
		return proto.StatusDenied
	}

	status := s.installUnchangedImages()

	installers := s.activeInstallers
	s.activeInstallers = nil
	for _, in := range installers {
		if status == proto.StatusSuccess {
			if err := in.Finalize(); err != nil {
				status = proto.StatusUnknown
			}
		} else {
			in.Abort()
		}
	}
	if status != proto.StatusSuccess {
		return status
	}

	s.tracker.SetHoldsContent(int(s.updateIndex))
	return s.metadata.Update(s.updateIndex, s.bootIndex, s.dir, s.tracker)
}

// SelectInstaller resolves the installer for info's (install type,
// location), activating it on first use within this transaction, and
// opens a write transaction for info.
func (s *BankedFwStore) SelectInstaller(info fwdirectory.ImageInfo) (*interfaces.Installer, proto.Status) {
	installer, found := s.installers.Find(info.InstallType, info.LocationID)
	if !found {
		return nil, proto.StatusUnknown
	}
	if !installer.IsActive() {
		if err := s.activateInstaller(installer, info.LocationID); err != nil {
			return nil, proto.StatusUnknown
		}
	}
	if err := installer.Open(info); err != nil {
		return nil, proto.StatusDenied
	}
	return installer, proto.StatusSuccess
}

// WriteImage writes to an active installer's open image.
func (s *BankedFwStore) WriteImage(installer *interfaces.Installer, data []byte) (int, proto.Status) {
	if !installer.IsActive() {
		return 0, proto.StatusDenied
	}
	n, err := installer.Write(data)
	if err != nil {
		return n, proto.AsStatus(err)
	}
	return n, proto.StatusSuccess
}

// CommitImage ends the installer's open image write, marking it
// accepted in the update bank if requested.
func (s *BankedFwStore) CommitImage(installer *interfaces.Installer, info fwdirectory.ImageInfo, accepted bool) proto.Status {
	if !installer.IsActive() {
		return proto.StatusDenied
	}
	if err := installer.Commit(); err != nil {
		return proto.AsStatus(err)
	}
	if accepted {
		s.tracker.Accept(int(s.updateIndex), int(info.ImageIndex))
	}
	return proto.StatusSuccess
}

// NotifyAccepted marks info accepted in the boot bank and persists
// that, returning true once every image in the boot bank is accepted.
func (s *BankedFwStore) NotifyAccepted(info fwdirectory.ImageInfo) (allAccepted bool, status proto.Status) {
	s.tracker.Accept(int(s.bootIndex), int(info.ImageIndex))
	status = s.metadata.Update(s.bootIndex, s.updateIndex, s.dir, s.tracker)
	return status == proto.StatusSuccess && s.tracker.IsAllAccepted(int(s.bootIndex), s.dir.NumImages()), status
}

// IsAccepted reports whether info is accepted in the boot bank.
func (s *BankedFwStore) IsAccepted(info fwdirectory.ImageInfo) bool {
	return s.tracker.IsAccepted(int(s.bootIndex), int(info.ImageIndex))
}

// IsTrial reports whether the bootloader is currently running the
// newly-activated bank before every image in it has been accepted.
func (s *BankedFwStore) IsTrial() bool {
	boot := s.dir.BootInfo()
	return boot.BootIndex == boot.ActiveIndex && !s.tracker.IsAllAccepted(int(s.bootIndex), s.dir.NumImages())
}

// CommitToUpdate is a documented no-op: anti-rollback counter management
// is delegated to the bootloader and out of scope here.
func (s *BankedFwStore) CommitToUpdate() proto.Status {
	return proto.StatusSuccess
}

// RevertToPrevious rolls back to the previously active bank, whether
// that means undoing a trial (bank already activated) or abandoning a
// staged-but-not-yet-activated install.
func (s *BankedFwStore) RevertToPrevious() proto.Status {
	indices, err := s.metadata.GetActiveIndices()
	if err != nil {
		return proto.StatusUnknown
	}
	var newActive, newPrevious uint32
	if indices.ActiveIndex == s.bootIndex {
		newActive = indices.PreviousActiveIndex
		newPrevious = s.bootIndex
	} else {
		newActive = s.bootIndex
		newPrevious = indices.ActiveIndex
	}
	s.updateIndex = bankscheme.NextIndex(newActive)
	s.tracker.SetHoldsAcceptedContent(int(newActive))
	return s.metadata.Update(newActive, newPrevious, s.dir, s.tracker)
}

// Export serves the canonical metadata object by uuid, returning
// (data, true, status) if uuid is recognised, or (nil, false, _)
// otherwise so the caller can try the next object in its dispatch chain.
func (s *BankedFwStore) Export(uuid [16]byte) (data []byte, handled bool, status proto.Status) {
	if uuid != uuidutil.MustParse(proto.MetadataCanonicalUUID) {
		return nil, false, proto.StatusSuccess
	}
	data, _, st := s.metadata.Fetch()
	return data, true, st
}
