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

// TestDMGAssembleNativeSigned drives the direct native variant with a
// signing identity: every bundle binary is signed, the image is built,
// signed, and submitted for notarization.
func TestDMGAssembleNativeSigned(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	appPath := filepath.Join(root, "target/release/bundle/osx/RustDesk.app")
	writeTestFile(t, filepath.Join(appPath, "Contents/MacOS/rustdesk"), "binary\n")
	writeTestFile(t, filepath.Join(root, "libsciter.dylib"), "dylib\n")

	fake := &execx.Fake{OnRun: func(call execx.FakeCall) error {
		if call.Name != "create-dmg" {
			return nil
		}

		return os.WriteFile(filepath.Join(root, "rustdesk.dmg"), []byte("dmg"), 0o644)
	}}

	cfg := &config.Config{
		Platform:        platform.MacOS,
		Arch:            "amd64",
		Mode:            config.ModeRelease,
		Version:         "1.2.3",
		SkipCargo:       true,
		SigningIdentity: "CERT-ID",
	}

	asm, err := NewAssembler(StrategyDMG, cfg, config.DefaultSettings(), fake, root)
	require.NoError(t, err)

	artifact, err := asm.Assemble(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "rustdesk-1.2.3.dmg"), artifact.Path)
	require.Equal(t, StrategyDMG, artifact.Strategy)
	require.FileExists(t, artifact.Path)

	// strip, per-binary codesign plus bundle codesign, image build, image
	// codesign, notarization.
	require.Equal(t,
		[]string{"strip", "codesign", "codesign", "codesign", "create-dmg", "codesign", "rcodesign"},
		fake.CalledTools())

	// The runtime library is signed alongside the executable.
	firstSign := fake.Calls[1]
	require.Contains(t, firstSign.Args, "Developer ID Application: CERT-ID")

	rcodesign := fake.Calls[len(fake.Calls)-1]
	require.Equal(t, "notary-submit", rcodesign.Args[0])
	require.Contains(t, rcodesign.Args, "--staple")
	require.Contains(t, rcodesign.Args, "../.p12/api-key.json")

	createDMG := fake.Calls[4]
	require.Contains(t, createDMG.Args, "--volname")
	require.Contains(t, createDMG.Args, "RustDesk Installer")
	require.Contains(t, createDMG.Args, appPath)
}

// TestDMGAssembleFlutterDebugUnsigned drives the bundle variant in debug
// mode: the native lib is renamed for the framework link step and no
// signing tool ever runs.
func TestDMGAssembleFlutterDebugUnsigned(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "target/debug/liblibrustdesk.dylib"), "dylib\n")

	appPath := filepath.Join(root, "flutter/build/macos/Build/Products/Debug/RustDesk.app")
	writeTestFile(t, filepath.Join(appPath, "Contents/MacOS/RustDesk"), "binary\n")

	fake := &execx.Fake{OnRun: func(call execx.FakeCall) error {
		if call.Name != "create-dmg" {
			return nil
		}

		return os.WriteFile(filepath.Join(root, "rustdesk.dmg"), []byte("dmg"), 0o644)
	}}

	cfg := &config.Config{
		Platform: platform.MacOS,
		Arch:     "amd64",
		Mode:     config.ModeDebug,
		Version:  "1.2.3",
		Flutter:  true,
	}

	asm, err := NewAssembler(StrategyDMG, cfg, config.DefaultSettings(), fake, root)
	require.NoError(t, err)

	artifact, err := asm.Assemble(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "rustdesk-1.2.3-debug.dmg"), artifact.Path)

	require.Equal(t, []string{"cargo", "flutter", "create-dmg"}, fake.CalledTools())

	// The native build pins the deployment target.
	require.Contains(t, fake.Calls[0].Env, macosDeploymentTarget)

	// The framework expects the library under its plain name.
	require.FileExists(t, filepath.Join(root, "target/debug/librustdesk.dylib"))
}
