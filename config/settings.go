package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings is the resolved per-run conversion configuration. Flags and
// the optional yaml file both end up here before the batch starts.
type Settings struct {
	InputDirectory  string `yaml:"input"`
	OutputDirectory string `yaml:"output"`

	DisableMeshes    bool `yaml:"disable_meshes"`
	DisableSkeletons bool `yaml:"disable_skeletons"`
	DeriveHeightMaps bool `yaml:"derive_height_maps"`

	// Verbose enables per-structure dumps and forces a single worker
	// so dumps of different files do not interleave.
	Verbose bool `yaml:"verbose"`
	Workers int  `yaml:"workers"`

	TextureFormat ImageFormat `yaml:"texture_format"`
}

var settings = Settings{
	InputDirectory:  "input",
	OutputDirectory: "output",
	Workers:         runtime.NumCPU(),
	TextureFormat:   IMAGE_FORMAT_PNG,
}

func GetSettings() Settings {
	return settings
}

func SetSettings(s Settings) {
	settings = s
}

func (s Settings) WorkerCount() int {
	if s.Verbose {
		return 1
	}
	if s.Workers < 1 {
		return 1
	}
	return s.Workers
}

// LoadSettingsFile merges values from a yaml file over the current
// settings. A missing file is not an error so the tool runs without one.
func LoadSettingsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "Failed to open settings file %q", path)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&settings); err != nil {
		return errors.Wrapf(err, "Failed to unmarshal settings file %q", path)
	}
	return nil
}
