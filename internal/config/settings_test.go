package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLoadSettingsDefaults returns product defaults when no file is present
// at the default path, but fails for an explicitly requested missing file.
func TestLoadSettingsDefaults(t *testing.T) {
	t.Parallel()

	s, err := LoadSettings("")
	require.NoError(t, err)
	require.Equal(t, "rustdesk", s.Product)
	require.NotEmpty(t, s.Depends)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestLoadSettingsDefaultFilenameMissing treats the default filename like
// the empty path: the settings file is optional, so a bare run in a
// directory without one still gets the product defaults.
func TestLoadSettingsDefaultFilenameMissing(t *testing.T) {
	oldCwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
	require.NoError(t, os.Chdir(t.TempDir()))

	s, err := LoadSettings(DefaultSettingsFilename)
	require.NoError(t, err)
	require.Equal(t, DefaultSettings(), s)

	_, err = LoadSettings("custom-settings.yaml")
	require.Error(t, err)
}

// TestSettingsRoundtrip persists settings and fills unset fields on load.
func TestSettingsRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := &Settings{Product: "deskpack", Maintainer: "ci <ci@example.com>"}
	require.NoError(t, SaveSettings(path, s))

	loaded, err := LoadSettings(path)
	require.NoError(t, err)
	require.Equal(t, "deskpack", loaded.Product)
	require.Equal(t, "ci <ci@example.com>", loaded.Maintainer)
	// Unset fields come from the defaults.
	require.Equal(t, DefaultSettings().Homepage, loaded.Homepage)
	require.Equal(t, DefaultSettings().Depends, loaded.Depends)
}
