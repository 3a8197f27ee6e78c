// Package installtype defines the installer classification used to pick
// an Installer out of the InstallerIndex for a given image.
package installtype

// InstallType classifies how an installer consumes a staged image.
type InstallType int

const (
	WholeVolume     InstallType = 0
	SubVolume       InstallType = 1
	WholeVolumeCopy InstallType = 2
)

func (t InstallType) String() string {
	switch t {
	case WholeVolume:
		return "WHOLE_VOLUME"
	case SubVolume:
		return "SUB_VOLUME"
	case WholeVolumeCopy:
		return "WHOLE_VOLUME_COPY"
	default:
		return "UNKNOWN_INSTALL_TYPE"
	}
}
