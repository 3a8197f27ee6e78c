package deploy

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-fwu/internal/agent"
	"github.com/deploymenttheory/go-fwu/internal/bankscheme"
	"github.com/deploymenttheory/go-fwu/internal/fwstore"
	"github.com/deploymenttheory/go-fwu/internal/inspector"
	"github.com/deploymenttheory/go-fwu/internal/installers/copy"
	"github.com/deploymenttheory/go-fwu/internal/installers/raw"
	"github.com/deploymenttheory/go-fwu/internal/installtype"
	"github.com/deploymenttheory/go-fwu/internal/interfaces"
	"github.com/deploymenttheory/go-fwu/internal/metadata/manager"
	"github.com/deploymenttheory/go-fwu/internal/metadata/serializer"
	"github.com/deploymenttheory/go-fwu/internal/registry"
	"github.com/deploymenttheory/go-fwu/internal/uuidutil"
	"github.com/deploymenttheory/go-fwu/internal/volumes/mmapvolume"
	"github.com/deploymenttheory/go-fwu/internal/volumes/ramvolume"
)

// Deployment holds every collaborator a running UpdateAgent needs,
// wired together from a Config: the two process-wide registries, the
// metadata manager, the firmware store, and the agent itself.
type Deployment struct {
	Volumes    *registry.VolumeIndex
	Installers *registry.InstallerIndex
	Metadata   *manager.Manager
	Store      *fwstore.BankedFwStore
	Agent      *agent.UpdateAgent
}

// openVolume returns a Volume backed by path (memory-mapped, creating
// the file at size if it does not already exist) or, if path is empty,
// a fresh RAM-backed Volume of size bytes.
func openVolume(path string, size int, parentUUID [16]byte) (interfaces.Volume, error) {
	if path == "" {
		return ramvolume.New(size, [16]byte(uuidutil.New()), parentUUID), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("deploy: creating volume file %s: %w", path, err)
		}
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, fmt.Errorf("deploy: sizing volume file %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	return mmapvolume.New(path, parentUUID), nil
}

// newInstaller constructs the installer backend for kind, bound to
// volumes and locationID/locationUUID.
func newInstaller(kind installtype.InstallType, volumes *registry.VolumeIndex, locationID uint32, locationUUID [16]byte) (*interfaces.Installer, error) {
	switch kind {
	case installtype.WholeVolume:
		return raw.New(volumes, locationID, locationUUID), nil
	case installtype.WholeVolumeCopy:
		return copy.New(volumes, locationID, locationUUID), nil
	default:
		return nil, fmt.Errorf("deploy: install type %s has no built-in installer", kind)
	}
}

// Build wires cfg into a running Deployment: every location's two
// banks, every metadata copy, the registries, and finally an
// UpdateAgent synchronized at cfg.BootIndex via a DirectInspector.
func Build(cfg *Config, log *zap.SugaredLogger) (*Deployment, error) {
	volumes := registry.NewVolumeIndex()
	installers := registry.NewInstallerIndex()

	for _, loc := range cfg.Locations {
		locUUID, err := uuidutil.Parse(loc.UUID)
		if err != nil {
			return nil, fmt.Errorf("deploy: location %d: %w", loc.ID, err)
		}
		kind, err := ParseInstallType(loc.InstallType)
		if err != nil {
			return nil, fmt.Errorf("deploy: location %d: %w", loc.ID, err)
		}

		bankA, err := openVolume(loc.BankAPath, loc.BankSize, [16]byte(locUUID))
		if err != nil {
			return nil, err
		}
		bankB, err := openVolume(loc.BankBPath, loc.BankSize, [16]byte(locUUID))
		if err != nil {
			return nil, err
		}
		if err := volumes.Add(bankscheme.VolumeID(loc.ID, bankscheme.UsageID(0)), bankA); err != nil {
			return nil, err
		}
		if err := volumes.Add(bankscheme.VolumeID(loc.ID, bankscheme.UsageID(1)), bankB); err != nil {
			return nil, err
		}

		installer, err := newInstaller(kind, volumes, loc.ID, [16]byte(locUUID))
		if err != nil {
			return nil, err
		}
		installers.Register(installer)
	}

	if cfg.PrimaryMetadataPath != "" {
		v, err := openVolume(cfg.PrimaryMetadataPath, cfg.MetadataSize, [16]byte{})
		if err != nil {
			return nil, err
		}
		if err := volumes.Add(bankscheme.VolumeIDPrimaryMetadata, v); err != nil {
			return nil, err
		}
	}
	if cfg.BackupMetadataPath != "" {
		v, err := openVolume(cfg.BackupMetadataPath, cfg.MetadataSize, [16]byte{})
		if err != nil {
			return nil, err
		}
		if err := volumes.Add(bankscheme.VolumeIDBackupMetadata, v); err != nil {
			return nil, err
		}
	}

	ser, err := serializer.Select(cfg.MetadataVersion, volumes)
	if err != nil {
		return nil, err
	}
	metadataManager := manager.New(ser, volumes, log)
	store := fwstore.New(installers, metadataManager, log)

	insp := inspector.New(installers)
	a, err := agent.New(cfg.BootIndex, insp, store, log)
	if err != nil {
		return nil, fmt.Errorf("deploy: constructing agent: %w", err)
	}

	return &Deployment{
		Volumes:    volumes,
		Installers: installers,
		Metadata:   metadataManager,
		Store:      store,
		Agent:      a,
	}, nil
}
