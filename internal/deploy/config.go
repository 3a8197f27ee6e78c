// Package deploy reads a declarative description of a device's firmware
// locations and metadata partitions and wires it into the registries,
// metadata manager, firmware store, and update agent the core needs to
// run. This stands in for the original source's platform integration
// layer (gpt_fwu_configure.c, the board-specific volume factories) which
// spec.md §1 explicitly places out of core scope; here the equivalent
// wiring is driven by a YAML file via viper instead of GPT partition
// discovery, since the core's actual contract is the Volume/VolumeIndex
// capability, not how locations are found on disk.
package deploy

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-fwu/internal/installtype"
)

// LocationConfig describes one firmware location: its id, the
// installer it uses, and the backing files (or sizes, for RAM-backed
// test volumes) for its two banks.
type LocationConfig struct {
	ID          uint32 `mapstructure:"id"`
	UUID        string `mapstructure:"uuid"`
	InstallType string `mapstructure:"install_type"`
	BankAPath   string `mapstructure:"bank_a_path"`
	BankBPath   string `mapstructure:"bank_b_path"`
	BankSize    int    `mapstructure:"bank_size"`
}

// Config is the top-level deployment description.
type Config struct {
	MetadataVersion     int              `mapstructure:"metadata_version"`
	PrimaryMetadataPath string           `mapstructure:"primary_metadata_path"`
	BackupMetadataPath  string           `mapstructure:"backup_metadata_path"`
	MetadataSize        int              `mapstructure:"metadata_size"`
	BootIndex           uint32           `mapstructure:"boot_index"`
	Locations           []LocationConfig `mapstructure:"locations"`
}

// ParseInstallType converts the config's string install type into the
// installtype enum, returning an error for anything unrecognised.
func ParseInstallType(s string) (installtype.InstallType, error) {
	switch s {
	case "whole_volume":
		return installtype.WholeVolume, nil
	case "whole_volume_copy":
		return installtype.WholeVolumeCopy, nil
	case "sub_volume":
		return installtype.SubVolume, nil
	default:
		return 0, fmt.Errorf("deploy: unrecognised install_type %q", s)
	}
}

// Load reads a deployment configuration from path (YAML, TOML, or JSON
// — whatever viper's extension sniffing recognises).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("deploy: reading config: %w", err)
	}
	v.SetDefault("metadata_version", 2)
	v.SetDefault("metadata_size", 4096)
	v.SetDefault("boot_index", 0)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("deploy: parsing config: %w", err)
	}
	return &cfg, nil
}
