package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultManifestFilename is the project manifest read for the product version.
const DefaultManifestFilename = "Cargo.toml"

// errVersionMissing is returned when the manifest has no package version.
var errVersionMissing = errors.New("project manifest has no package version")

// projectManifest mirrors the fields we need from a Cargo-style manifest.
type projectManifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
}

// ProjectVersion reads the package version from the project manifest.
// The version is parsed once at pipeline start and treated as immutable
// for the whole run.
func ProjectVersion(path string) (string, error) {
	if path == "" {
		path = DefaultManifestFilename
	}

	var m projectManifest
	if _, err := toml.DecodeFile(filepath.Clean(path), &m); err != nil {
		return "", fmt.Errorf("read project manifest: %w", err)
	}

	v := strings.TrimSpace(m.Package.Version)
	if v == "" {
		return "", fmt.Errorf("%s: %w", path, errVersionMissing)
	}

	return v, nil
}
