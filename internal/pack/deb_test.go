package pack

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/execx"
	"github.com/rustdesk/rustdesk-packager/internal/platform"
)

// writeTestFile creates a file with parent directories.
func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o755))
}

// stageDebResources creates the desktop-integration resources every Debian
// build copies into the staging tree.
func stageDebResources(t *testing.T, root string) {
	t.Helper()

	res := filepath.Join(root, "res")
	for _, name := range []string{
		"rustdesk.service",
		"128x128@2x.png",
		"scalable.svg",
		"rustdesk.desktop",
		"rustdesk-link.desktop",
		"com.rustdesk.RustDesk.policy",
	} {
		writeTestFile(t, filepath.Join(res, name), name+"\n")
	}
}

// TestDebAssemblePrebuilt repackages an existing binary folder without
// touching the compilers and names the artifact from the manifest version.
func TestDebAssemblePrebuilt(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	stageDebResources(t, root)

	prebuilt := filepath.Join(root, "prebuilt")
	writeTestFile(t, filepath.Join(prebuilt, "rustdesk"), "binary\n")
	writeTestFile(t, filepath.Join(prebuilt, "data/icudtl.dat"), "icu\n")

	var control, md5sums string

	fake := &execx.Fake{OnRun: func(call execx.FakeCall) error {
		if call.Name != "dpkg-deb" {
			return nil
		}

		// The staging tree must be complete at archive time.
		staging := filepath.Join(root, debStagingDirName)

		contents, err := os.ReadFile(filepath.Join(staging, "DEBIAN/control"))
		require.NoError(t, err)
		control = string(contents)

		contents, err = os.ReadFile(filepath.Join(staging, "DEBIAN/md5sums"))
		require.NoError(t, err)
		md5sums = string(contents)

		require.FileExists(t, filepath.Join(staging, "usr/lib/rustdesk/rustdesk"))
		require.FileExists(t, filepath.Join(staging, "usr/lib/rustdesk/data/icudtl.dat"))

		return os.WriteFile(filepath.Join(root, "rustdesk.deb"), []byte("deb"), 0o644)
	}}

	cfg := &config.Config{
		Platform:    platform.Linux,
		Arch:        "amd64",
		Mode:        config.ModeRelease,
		Version:     "1.2.3",
		PackagePath: prebuilt,
	}

	asm, err := NewAssembler(StrategyPrebuiltFolder, cfg, config.DefaultSettings(), fake, root)
	require.NoError(t, err)

	artifact, err := asm.Assemble(context.Background())
	require.NoError(t, err)

	require.Equal(t, filepath.Join(root, "rustdesk-1.2.3.deb"), artifact.Path)
	require.Equal(t, StrategyPrebuiltFolder, artifact.Strategy)
	require.Equal(t, "1.2.3", artifact.Version)
	require.FileExists(t, artifact.Path)

	// No compiler ran; dpkg-deb is the only tool invocation.
	require.Equal(t, []string{"dpkg-deb"}, fake.CalledTools())
	require.Equal(t, []string{"-b", debStagingDirName, "rustdesk.deb"}, fake.Calls[0].Args)

	require.Contains(t, control, "Version: 1.2.3\n")
	require.Contains(t, control, "Architecture: amd64\n")

	// Prebuilt repackaging verifies only the service unit.
	lines := strings.Split(strings.TrimSpace(md5sums), "\n")
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "usr/share/rustdesk/files/systemd/rustdesk.service")

	// The staging tree does not survive the run.
	require.NoDirExists(t, filepath.Join(root, debStagingDirName))
}

// TestDebAssembleNativeDebug builds the direct native variant in debug
// mode: no stripping, the full verifiable file set, and the -debug marker
// in the artifact name.
func TestDebAssembleNativeDebug(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	stageDebResources(t, root)

	writeTestFile(t, filepath.Join(root, "res/startwm.sh"), "#!/bin/sh\n")
	writeTestFile(t, filepath.Join(root, "res/xorg.conf"), "Section\n")
	writeTestFile(t, filepath.Join(root, "res/pam.d/rustdesk.debian"), "auth\n")
	writeTestFile(t, filepath.Join(root, "libsciter-gtk.so"), "so\n")
	writeTestFile(t, filepath.Join(root, "target/debug/rustdesk"), "binary\n")

	var md5sums string

	fake := &execx.Fake{OnRun: func(call execx.FakeCall) error {
		if call.Name != "dpkg-deb" {
			return nil
		}

		contents, err := os.ReadFile(filepath.Join(root, debStagingDirName, "DEBIAN/md5sums"))
		require.NoError(t, err)
		md5sums = string(contents)

		return os.WriteFile(filepath.Join(root, "rustdesk.deb"), []byte("deb"), 0o644)
	}}

	cfg := &config.Config{
		Platform: platform.Linux,
		Arch:     "amd64",
		Mode:     config.ModeDebug,
		Version:  "1.2.3",
	}

	asm, err := NewAssembler(StrategyDeb, cfg, config.DefaultSettings(), fake, root)
	require.NoError(t, err)

	artifact, err := asm.Assemble(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "rustdesk-1.2.3-debug.deb"), artifact.Path)
	require.Equal(t, StrategyDeb, artifact.Strategy)

	// Debug builds compile but never strip.
	require.Equal(t, []string{"cargo", "dpkg-deb"}, fake.CalledTools())
	require.Contains(t, fake.Calls[0].Args, "--features")
	require.Contains(t, fake.Calls[0].Args, "inline")
	require.NotContains(t, fake.Calls[0].Args, "--release")

	lines := strings.Split(strings.TrimSpace(md5sums), "\n")
	require.Len(t, lines, 5)
	require.Contains(t, md5sums, "etc/rustdesk/startwm.sh")
	require.Contains(t, md5sums, "etc/X11/rustdesk/xorg.conf")
	require.Contains(t, md5sums, "etc/pam.d/rustdesk")
	require.Contains(t, md5sums, "usr/lib/rustdesk/libsciter-gtk.so")
}

// TestDebAssembleArchiveFailure aborts on a failing archive tool and still
// removes the staging tree.
func TestDebAssembleArchiveFailure(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	stageDebResources(t, root)

	prebuilt := filepath.Join(root, "prebuilt")
	writeTestFile(t, filepath.Join(prebuilt, "rustdesk"), "binary\n")

	fake := &execx.Fake{FailOn: "dpkg-deb"}

	cfg := &config.Config{
		Platform:    platform.Linux,
		Arch:        "amd64",
		Mode:        config.ModeRelease,
		Version:     "1.2.3",
		PackagePath: prebuilt,
	}

	asm, err := NewAssembler(StrategyPrebuiltFolder, cfg, config.DefaultSettings(), fake, root)
	require.NoError(t, err)

	artifact, err := asm.Assemble(context.Background())
	require.ErrorIs(t, err, execx.ErrToolFailed)
	require.Nil(t, artifact)
	require.NoDirExists(t, filepath.Join(root, debStagingDirName))
	require.NoFileExists(t, filepath.Join(root, "rustdesk-1.2.3.deb"))
}

// TestDebAssembleMissingBuildOutput fails when the native binary the
// staging step needs is absent.
func TestDebAssembleMissingBuildOutput(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	stageDebResources(t, root)

	cfg := &config.Config{
		Platform:  platform.Linux,
		Arch:      "amd64",
		Mode:      config.ModeRelease,
		Version:   "1.2.3",
		SkipCargo: true,
	}

	asm, err := NewAssembler(StrategyDeb, cfg, config.DefaultSettings(), &execx.Fake{}, root)
	require.NoError(t, err)

	_, err = asm.Assemble(context.Background())
	require.ErrorIs(t, err, errMissingBuildOutput)
}

// TestNewAssemblerUnknownStrategy rejects unmapped strategy values.
func TestNewAssemblerUnknownStrategy(t *testing.T) {
	t.Parallel()

	_, err := NewAssembler(Strategy("tarball"), &config.Config{}, config.DefaultSettings(), &execx.Fake{}, t.TempDir())
	require.ErrorIs(t, err, errUnknownStrategy)
}
