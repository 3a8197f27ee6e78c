// Package inspector provides the DirectInspector FwInspector
// implementation, which builds a FwDirectory by asking every installer
// registered for the current boot bank to enumerate its own images.
package inspector

import (
	"github.com/deploymenttheory/go-fwu/internal/bankscheme"
	"github.com/deploymenttheory/go-fwu/internal/fwdirectory"
	"github.com/deploymenttheory/go-fwu/internal/registry"
)

// DirectInspector enumerates every registered installer at the boot
// bank to populate a FwDirectory, grounded on the original source's
// direct_fw_inspector.c.
type DirectInspector struct {
	Installers *registry.InstallerIndex
}

func New(installers *registry.InstallerIndex) *DirectInspector {
	return &DirectInspector{Installers: installers}
}

func (d *DirectInspector) Inspect(dir *fwdirectory.FwDirectory, bootIndex uint32) error {
	for i := 0; ; i++ {
		installer, ok := d.Installers.Get(i)
		if !ok {
			break
		}
		volumeID := bankscheme.VolumeID(installer.LocationID, bankscheme.UsageID(int(bootIndex)))
		if err := installer.Enumerate(volumeID, dir); err != nil {
			return err
		}
	}
	return nil
}
