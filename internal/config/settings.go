package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsFilename is the default filename for product packaging metadata.
const DefaultSettingsFilename = "packager-settings.yaml"

// errSettingsNotSet is returned when a nil settings value is provided.
var errSettingsNotSet = errors.New("settings are not set")

// Settings holds product packaging metadata rendered into control and spec
// files. Every field has a product default so the settings file is optional.
type Settings struct {
	// Product is the package and install-path name.
	Product string `yaml:"product"`
	// BundleName is the display bundle name used on macOS and Windows.
	BundleName string `yaml:"bundle_name"`
	// Maintainer is rendered into the package metadata.
	Maintainer string `yaml:"maintainer"`
	// Homepage is rendered into the package metadata.
	Homepage string `yaml:"homepage"`
	// Description is rendered into the package metadata.
	Description string `yaml:"description"`
	// Depends lists Debian package dependencies.
	Depends []string `yaml:"depends"`
	// SigningEnvVar names the environment variable holding the signing
	// credential. An empty variable disables signing, which is non-fatal.
	SigningEnvVar string `yaml:"signing_env_var"`
	// NotaryAPIKeyPath points at the notarization API key used when
	// stapling macOS disk images.
	NotaryAPIKeyPath string `yaml:"notary_api_key_path"`
}

// DefaultSettings returns the product defaults used when no settings file
// is present.
func DefaultSettings() *Settings {
	return &Settings{
		Product:     "rustdesk",
		BundleName:  "RustDesk",
		Maintainer:  "rustdesk <info@rustdesk.com>",
		Homepage:    "https://rustdesk.com",
		Description: "A remote control software.",
		Depends: []string{
			"libgtk-3-0", "libxcb-randr0", "libxdo3", "libxfixes3",
			"libxcb-shape0", "libxcb-xfixes0", "libasound2", "libsystemd0",
			"curl", "libva-drm2", "libva-x11-2", "libvdpau1",
			"libgstreamer-plugins-base1.0-0", "libpam0g",
			"libappindicator3-1", "gstreamer1.0-pipewire",
		},
		SigningEnvVar:    "P",
		NotaryAPIKeyPath: "../.p12/api-key.json",
	}
}

// LoadSettings reads packaging metadata from the provided path. The
// settings file is optional: a missing file at the default path (whether
// requested as "" or by its default name) yields the defaults. A missing
// file at any other path is an error. Empty fields are filled from the
// defaults.
func LoadSettings(path string) (*Settings, error) {
	explicit := path != "" && path != DefaultSettingsFilename
	if path == "" {
		path = DefaultSettingsFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return DefaultSettings(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(contents, &s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	applyDefaults(&s)

	return &s, nil
}

// SaveSettings writes packaging metadata to the provided path.
func SaveSettings(path string, s *Settings) error {
	if s == nil {
		return errSettingsNotSet
	}

	if path == "" {
		path = DefaultSettingsFilename
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// applyDefaults fills zero-valued fields from DefaultSettings.
func applyDefaults(s *Settings) {
	defaults := DefaultSettings()

	if s.Product == "" {
		s.Product = defaults.Product
	}

	if s.BundleName == "" {
		s.BundleName = defaults.BundleName
	}

	if s.Maintainer == "" {
		s.Maintainer = defaults.Maintainer
	}

	if s.Homepage == "" {
		s.Homepage = defaults.Homepage
	}

	if s.Description == "" {
		s.Description = defaults.Description
	}

	if len(s.Depends) == 0 {
		s.Depends = defaults.Depends
	}

	if s.SigningEnvVar == "" {
		s.SigningEnvVar = defaults.SigningEnvVar
	}

	if s.NotaryAPIKeyPath == "" {
		s.NotaryAPIKeyPath = defaults.NotaryAPIKeyPath
	}
}
