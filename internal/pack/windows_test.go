package pack

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/execx"
	"github.com/rustdesk/rustdesk-packager/internal/platform"
)

// fakePortablePacker makes the fake packer drop its output where the real
// one does.
func fakePortablePacker(root, buildType string) func(execx.FakeCall) error {
	return func(call execx.FakeCall) error {
		if call.Name != "python3" {
			return nil
		}

		packer := filepath.Join(root, "target", buildType, "rustdesk-portable-packer.exe")

		return os.WriteFile(packer, []byte("exe"), 0o644)
	}
}

// TestWindowsAssembleFlutter drives the bundle variant end to end: virtual
// display library, native library, framework build, portable packing.
func TestWindowsAssembleFlutter(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "target/release/librustdesk.dll"), "dll\n")
	writeTestFile(t, filepath.Join(root, "target/release/deps/dylib_virtual_display.dll"), "dll\n")
	writeTestFile(t, filepath.Join(root, ResourceDirName, "WindowInjection.dll"), "dll\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "flutter/build/windows/x64/runner/Release"), 0o755))

	fake := &execx.Fake{OnRun: fakePortablePacker(root, "release")}

	cfg := &config.Config{
		Platform: platform.Windows,
		Arch:     "amd64",
		Mode:     config.ModeRelease,
		Version:  "1.2.3",
		Flutter:  true,
	}

	asm, err := NewAssembler(StrategyWindows, cfg, config.DefaultSettings(), fake, root)
	require.NoError(t, err)

	artifact, err := asm.Assemble(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "rustdesk-1.2.3-install.exe"), artifact.Path)
	require.Equal(t, StrategyWindows, artifact.Strategy)
	require.FileExists(t, artifact.Path)

	require.Equal(t, []string{"cargo", "cargo", "flutter", "pip3", "python3"}, fake.CalledTools())

	// The virtual display library builds in its own directory first.
	require.Equal(t, filepath.Join(root, "libs/virtual_display/dylib"), fake.Calls[0].Dir)

	// The virtual display library and fetched resources land in the bundle.
	require.FileExists(t, filepath.Join(root,
		"flutter/build/windows/x64/runner/Release/dylib_virtual_display.dll"))
	require.FileExists(t, filepath.Join(root,
		"flutter/build/windows/x64/runner/Release/WindowInjection.dll"))

	packer := fake.Calls[4]
	require.Equal(t, filepath.Join(root, "libs/portable"), packer.Dir)
	require.NotContains(t, packer.Args, "--debug")
	require.Contains(t, packer.Args, "-f")
}

// TestWindowsAssembleFlutterSkipPack returns the bundle directory itself
// when portable packing is skipped.
func TestWindowsAssembleFlutterSkipPack(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "target/release/deps/dylib_virtual_display.dll"), "dll\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "flutter/build/windows/x64/runner/Release"), 0o755))

	fake := &execx.Fake{}

	cfg := &config.Config{
		Platform:         platform.Windows,
		Arch:             "amd64",
		Mode:             config.ModeRelease,
		Version:          "1.2.3",
		Flutter:          true,
		SkipCargo:        true,
		SkipPortablePack: true,
	}

	asm, err := NewAssembler(StrategyWindows, cfg, config.DefaultSettings(), fake, root)
	require.NoError(t, err)

	artifact, err := asm.Assemble(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "flutter/build/windows/x64/runner/Release"), artifact.Path)

	require.Equal(t, []string{"cargo", "flutter"}, fake.CalledTools())
	require.NotContains(t, fake.CalledTools(), "pip3")
}

// TestWindowsAssembleFlutterMissingLib surfaces a broken native build
// before the framework build runs.
func TestWindowsAssembleFlutterMissingLib(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fake := &execx.Fake{}

	cfg := &config.Config{
		Platform: platform.Windows,
		Arch:     "amd64",
		Mode:     config.ModeRelease,
		Version:  "1.2.3",
		Flutter:  true,
	}

	asm, err := NewAssembler(StrategyWindows, cfg, config.DefaultSettings(), fake, root)
	require.NoError(t, err)

	_, err = asm.Assemble(context.Background())
	require.ErrorIs(t, err, errMissingBuildOutput)
	require.NotContains(t, fake.CalledTools(), "flutter")
}

// TestWindowsAssembleNativeSigned drives the direct native variant with a
// signing credential: the executable is renamed to the display name,
// signed, staged, and packed portably with the sciter suffix.
func TestWindowsAssembleNativeSigned(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "target/release/rustdesk.exe"), "exe\n")

	fake := &execx.Fake{OnRun: fakePortablePacker(root, "release")}

	cfg := &config.Config{
		Platform:        platform.Windows,
		Arch:            "amd64",
		Mode:            config.ModeRelease,
		Version:         "1.2.3",
		SigningIdentity: "secret",
	}

	asm, err := NewAssembler(StrategyWindows, cfg, config.DefaultSettings(), fake, root)
	require.NoError(t, err)

	artifact, err := asm.Assemble(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "rustdesk-1.2.3-sciter-install.exe"), artifact.Path)

	require.Equal(t, []string{"cargo", "cargo", "signtool", "pip3", "python3"}, fake.CalledTools())

	signtool := fake.Calls[2]
	require.Equal(t, "sign", signtool.Args[0])
	require.Contains(t, signtool.Args, "secret")
	require.Contains(t, signtool.Args, signtoolTimestampURL)

	// The executable is staged under the display name for the packer.
	require.FileExists(t, filepath.Join(root, "resources/RustDesk.exe"))
	require.FileExists(t, filepath.Join(root, "target/release/RustDesk.exe"))
}

// TestWindowsPackPortableRelativeRoot runs the assembler from the
// repository itself (empty root, relative paths): the packer executes in
// libs/portable, so the source folder and executable it receives must be
// absolute.
func TestWindowsPackPortableRelativeRoot(t *testing.T) {
	oldCwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
	require.NoError(t, os.Chdir(t.TempDir()))

	writeTestFile(t, filepath.Join("target/debug", "rustdesk.exe"), "exe\n")

	fake := &execx.Fake{OnRun: fakePortablePacker("", "debug")}

	cfg := &config.Config{
		Platform: platform.Windows,
		Arch:     "amd64",
		Mode:     config.ModeDebug,
		Version:  "1.2.3",
	}

	asm, err := NewAssembler(StrategyWindows, cfg, config.DefaultSettings(), fake, "")
	require.NoError(t, err)

	artifact, err := asm.Assemble(context.Background())
	require.NoError(t, err)
	require.Equal(t, "rustdesk-1.2.3-debug-sciter-install.exe", artifact.Path)
	require.FileExists(t, artifact.Path)

	wantSource, err := filepath.Abs(ResourceDirName)
	require.NoError(t, err)

	packer := fake.Calls[len(fake.Calls)-1]
	require.Equal(t, "python3", packer.Name)

	sourceIndex := -1
	for i, arg := range packer.Args {
		if arg == "-f" {
			sourceIndex = i + 1
		}
	}

	require.Greater(t, sourceIndex, 0)
	require.Equal(t, wantSource, packer.Args[sourceIndex])
	require.Contains(t, packer.Args, filepath.Join(wantSource, "rustdesk.exe"))
}

// TestWindowsAssembleNativeDebugUnsigned skips signing and passes --debug
// to the packer.
func TestWindowsAssembleNativeDebugUnsigned(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "target/debug/rustdesk.exe"), "exe\n")

	fake := &execx.Fake{OnRun: fakePortablePacker(root, "debug")}

	cfg := &config.Config{
		Platform: platform.Windows,
		Arch:     "amd64",
		Mode:     config.ModeDebug,
		Version:  "1.2.3",
	}

	asm, err := NewAssembler(StrategyWindows, cfg, config.DefaultSettings(), fake, root)
	require.NoError(t, err)

	artifact, err := asm.Assemble(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "rustdesk-1.2.3-debug-sciter-install.exe"), artifact.Path)

	require.NotContains(t, fake.CalledTools(), "signtool")

	packer := fake.Calls[len(fake.Calls)-1]
	require.Equal(t, "python3", packer.Name)
	require.Contains(t, packer.Args, "--debug")
}
