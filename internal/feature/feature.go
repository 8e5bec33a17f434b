package feature

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustdesk/rustdesk-packager/internal/logger"
	"github.com/rustdesk/rustdesk-packager/internal/platform"
)

// AllSentinel expands a feature request to the full platform-filtered catalog.
// The match is case-insensitive and triggers anywhere in a request list.
const AllSentinel = "all"

// Feature describes one optional add-on: where to fetch its archive, how to
// verify it, and which platforms it applies to. Catalog entries are static
// and read-only; they are never created or destroyed at runtime.
type Feature struct {
	// Name is the requestable feature identifier.
	Name string `yaml:"name"`
	// Platforms lists the platform tags the feature applies to.
	Platforms []platform.OS `yaml:"platforms"`
	// ArchiveURL points at the downloadable resource archive.
	ArchiveURL string `yaml:"archive_url"`
	// ChecksumURL points at the published MD5 manifest for the archive.
	ChecksumURL string `yaml:"checksum_url"`
	// Include holds path patterns selecting archive members to extract.
	// An empty list includes everything not excluded.
	Include []string `yaml:"include"`
	// Exclude holds path patterns that always win over includes.
	Exclude []string `yaml:"exclude"`
}

// SupportsPlatform reports whether the feature applies to the given platform.
func (f Feature) SupportsPlatform(os platform.OS) bool {
	for _, p := range f.Platforms {
		if p == os {
			return true
		}
	}

	return false
}

// Set maps feature names to catalog entries resolved for one platform.
// Invariant: every entry's platform list contains the platform it was
// resolved for.
type Set map[string]Feature

// Names returns the feature names in sorted order for deterministic
// processing and logging.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Catalog returns the built-in add-on catalog.
func Catalog() []Feature {
	return []Feature{
		{
			Name:        "PrivacyMode",
			Platforms:   []platform.OS{platform.Windows},
			ArchiveURL:  "https://github.com/fufesou/RustDeskTempTopMostWindow/releases/download/v0.3/TempTopMostWindow_x64.zip",
			ChecksumURL: "https://github.com/fufesou/RustDeskTempTopMostWindow/releases/download/v0.3/checksum_md5",
			Include:     []string{`WindowInjection.dll`},
		},
	}
}

// LoadCatalog merges extra entries from a YAML overlay file into the
// built-in catalog. Overlay entries with a name already in the catalog
// replace the built-in definition, which lets offline builds point add-ons
// at local mirrors.
func LoadCatalog(path string) ([]Feature, error) {
	catalog := Catalog()
	if path == "" {
		return catalog, nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read feature catalog: %w", err)
	}

	var overlay []Feature
	if err := yaml.Unmarshal(contents, &overlay); err != nil {
		return nil, fmt.Errorf("unmarshal feature catalog: %w", err)
	}

	for _, entry := range overlay {
		replaced := false

		for i := range catalog {
			if catalog[i].Name == entry.Name {
				catalog[i] = entry
				replaced = true

				break
			}
		}

		if !replaced {
			catalog = append(catalog, entry)
		}
	}

	return catalog, nil
}

// Resolve filters requested feature names against the catalog for one
// platform. The "all" sentinel anywhere in the request expands to the full
// platform-filtered catalog. Unknown names log a warning and are skipped;
// platform-incompatible names are dropped silently. An empty result is
// valid and short-circuits resource fetching.
func Resolve(ctx context.Context, requested []string, os platform.OS, catalog []Feature) Set {
	resolved := make(Set, len(requested))

	byName := make(map[string]Feature, len(catalog))
	for _, feat := range catalog {
		byName[feat.Name] = feat
	}

	for _, name := range requested {
		if strings.EqualFold(strings.TrimSpace(name), AllSentinel) {
			return allForPlatform(os, catalog)
		}
	}

	for _, name := range requested {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		feat, known := byName[name]
		if !known {
			logger.Warnf(ctx, "Unrecognized feature %s", name)
			continue
		}

		if feat.SupportsPlatform(os) {
			resolved[name] = feat
		}
	}

	return resolved
}

// allForPlatform returns every catalog entry applicable to the platform.
func allForPlatform(os platform.OS, catalog []Feature) Set {
	resolved := make(Set, len(catalog))

	for _, feat := range catalog {
		if feat.SupportsPlatform(os) {
			resolved[feat.Name] = feat
		}
	}

	return resolved
}
