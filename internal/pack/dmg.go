package pack

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/execx"
	"github.com/rustdesk/rustdesk-packager/internal/logger"
)

// macosDeploymentTarget pins the minimum OS version for the native build,
// matching the framework's Xcode project.
const macosDeploymentTarget = "MACOSX_DEPLOYMENT_TARGET=10.14"

// dmgAssembler produces the macOS disk image, signing and notarizing the
// result when a signing identity is supplied.
type dmgAssembler struct {
	cfg      *config.Config
	settings *config.Settings
	runner   execx.Runner
	root     string
}

// Assemble compiles the app bundle, optionally signs it, builds the disk
// image, and optionally signs and staples the image.
func (a *dmgAssembler) Assemble(ctx context.Context) (*Artifact, error) {
	appPath, err := a.buildApp(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.signApp(ctx, appPath); err != nil {
		return nil, err
	}

	product := a.settings.Product
	rawPath := filepath.Join(a.root, product+".dmg")
	finalName := ArtifactName(product, a.cfg.Version, a.cfg.Debug(), "", "dmg")
	finalPath := filepath.Join(a.root, finalName)

	// Stale images from earlier runs would make create-dmg fail.
	_ = os.Remove(rawPath)
	_ = os.Remove(finalPath)

	bundleApp := a.settings.BundleName + ".app"

	err = a.runner.Run(ctx, a.root, nil, "create-dmg",
		"--volname", a.settings.BundleName+" Installer",
		"--window-pos", "200", "120",
		"--window-size", "800", "400",
		"--icon-size", "100",
		"--app-drop-link", "600", "185",
		"--icon", bundleApp, "200", "190",
		"--hide-extension", bundleApp,
		product+".dmg", appPath)
	if err != nil {
		return nil, err
	}

	if err := moveFile(rawPath, finalPath); err != nil {
		return nil, err
	}

	if err := a.signImage(ctx, finalPath); err != nil {
		return nil, err
	}

	return &Artifact{Path: finalPath, Strategy: StrategyDMG, Version: a.cfg.Version}, nil
}

// buildApp compiles the native code and application bundle, returning the
// bundle path.
func (a *dmgAssembler) buildApp(ctx context.Context) (string, error) {
	c := &compiler{cfg: a.cfg, runner: a.runner, root: a.root}
	product := a.settings.Product

	if a.cfg.Flutter {
		if !a.cfg.SkipCargo {
			if err := c.cargoBuildLib(ctx, macosDeploymentTarget); err != nil {
				return "", err
			}
		}

		// The framework links against the lib under its plain name.
		built := filepath.Join(a.root, filepath.FromSlash(a.cfg.TargetDir()))
		if err := copyFile(
			filepath.Join(built, "liblib"+product+".dylib"),
			filepath.Join(built, "lib"+product+".dylib"),
		); err != nil {
			return "", err
		}

		if err := c.flutterBuild(ctx, "macos"); err != nil {
			return "", err
		}

		return filepath.Join(a.root, "flutter", filepath.FromSlash(a.cfg.FlutterBuildDir()),
			a.settings.BundleName+".app"), nil
	}

	if !a.cfg.SkipCargo {
		if err := c.cargoBundle(ctx); err != nil {
			return "", err
		}
	}

	appPath := filepath.Join(a.root, filepath.FromSlash(a.cfg.TargetDir()),
		"bundle/osx", a.settings.BundleName+".app")
	binary := filepath.Join(appPath, "Contents/MacOS", product)

	if err := c.strip(ctx, binary); err != nil {
		return "", err
	}

	if err := copyFile(filepath.Join(a.root, "libsciter.dylib"),
		filepath.Join(appPath, "Contents/MacOS/libsciter.dylib")); err != nil {
		return "", err
	}

	return appPath, nil
}

// signApp signs every binary in the bundle and then the bundle itself.
// Without a signing identity the step is skipped with a visible notice.
func (a *dmgAssembler) signApp(ctx context.Context, appPath string) error {
	if !a.shouldSign(ctx) {
		return nil
	}

	identity := "Developer ID Application: " + a.cfg.SigningIdentity

	binaries, err := filepath.Glob(filepath.Join(appPath, "Contents/MacOS", "*"))
	if err != nil {
		return err
	}

	for _, target := range append(binaries, appPath) {
		err := a.runner.Run(ctx, a.root, nil, "codesign",
			"-s", identity, "--force", "--options", "runtime", target)
		if err != nil {
			return err
		}
	}

	return nil
}

// signImage signs the disk image and submits it for notarization stapling.
func (a *dmgAssembler) signImage(ctx context.Context, imagePath string) error {
	if !a.shouldSign(ctx) {
		return nil
	}

	identity := "Developer ID Application: " + a.cfg.SigningIdentity

	err := a.runner.Run(ctx, a.root, nil, "codesign",
		"-s", identity, "--force", "--options", "runtime", imagePath)
	if err != nil {
		return err
	}

	return a.runner.Run(ctx, a.root, nil, "rcodesign",
		"notary-submit", "--api-key-path", a.settings.NotaryAPIKeyPath,
		"--staple", imagePath)
}

// shouldSign reports whether signing applies; debug builds and missing
// credentials skip it without failing.
func (a *dmgAssembler) shouldSign(ctx context.Context) bool {
	if a.cfg.Debug() || a.cfg.SigningIdentity == "" {
		logger.Info(ctx, "Not signed")
		return false
	}

	return true
}
