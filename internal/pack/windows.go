package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/execx"
	"github.com/rustdesk/rustdesk-packager/internal/logger"
)

// signtoolTimestampURL is the timestamp authority used when signing.
const signtoolTimestampURL = "http://timestamp.digicert.com"

// windowsAssembler produces the installer executable (and the portable
// variant) for both UI build flavors.
type windowsAssembler struct {
	cfg      *config.Config
	settings *config.Settings
	runner   execx.Runner
	root     string
}

// Assemble builds the virtual display library, compiles the application,
// optionally signs it, packs the portable installer, and renames it under
// the deterministic name.
func (a *windowsAssembler) Assemble(ctx context.Context) (*Artifact, error) {
	if err := a.buildVirtualDisplay(ctx); err != nil {
		return nil, err
	}

	if a.cfg.Flutter {
		return a.assembleFlutter(ctx)
	}

	return a.assembleNative(ctx)
}

// buildVirtualDisplay compiles the virtual display dynamic library.
func (a *windowsAssembler) buildVirtualDisplay(ctx context.Context) error {
	args := []string{"build"}
	if !a.cfg.Debug() {
		args = append(args, "--release")
	}

	return a.runner.Run(ctx, filepath.Join(a.root, "libs/virtual_display/dylib"), nil, "cargo", args...)
}

// assembleFlutter drives the framework build and the portable packer.
func (a *windowsAssembler) assembleFlutter(ctx context.Context) (*Artifact, error) {
	c := &compiler{cfg: a.cfg, runner: a.runner, root: a.root}
	product := a.settings.Product

	if !a.cfg.SkipCargo {
		if err := c.cargoBuildLib(ctx); err != nil {
			return nil, err
		}

		// A missing library after a "successful" build means the native
		// sources are broken; surface it before the framework build.
		lib := filepath.Join(a.root, filepath.FromSlash(a.cfg.TargetDir()), "lib"+product+".dll")
		if _, err := os.Stat(lib); err != nil {
			return nil, fmt.Errorf("%s: %w", lib, errMissingBuildOutput)
		}
	}

	if err := c.flutterBuild(ctx, "windows"); err != nil {
		return nil, err
	}

	bundle := filepath.Join(a.root, "flutter", filepath.FromSlash(a.cfg.FlutterBuildDir()))

	err := copyFile(
		filepath.Join(a.root, filepath.FromSlash(a.cfg.TargetDir()), "deps/dylib_virtual_display.dll"),
		filepath.Join(bundle, "dylib_virtual_display.dll"))
	if err != nil {
		return nil, err
	}

	// Fetched feature resources ship inside the bundle.
	resourceDir := filepath.Join(a.root, ResourceDirName)
	if _, err := os.Stat(resourceDir); err == nil {
		if err := copyTree(resourceDir, bundle); err != nil {
			return nil, err
		}
	}

	if a.cfg.SkipPortablePack {
		return &Artifact{Path: bundle, Strategy: StrategyWindows, Version: a.cfg.Version}, nil
	}

	return a.packPortable(ctx, bundle, "install")
}

// assembleNative builds the direct native executable, signs it when a
// credential is available, and packs it portably.
func (a *windowsAssembler) assembleNative(ctx context.Context) (*Artifact, error) {
	c := &compiler{cfg: a.cfg, runner: a.runner, root: a.root}
	product := a.settings.Product

	if !a.cfg.SkipCargo {
		if err := c.cargoBuild(ctx); err != nil {
			return nil, err
		}

		targetDir := filepath.Join(a.root, filepath.FromSlash(a.cfg.TargetDir()))
		err := os.Rename(
			filepath.Join(targetDir, product+".exe"),
			filepath.Join(targetDir, a.settings.BundleName+".exe"))
		if err != nil {
			return nil, fmt.Errorf("%s.exe: %w", product, errMissingBuildOutput)
		}
	}

	executable := filepath.Join(a.root, filepath.FromSlash(a.cfg.TargetDir()), a.settings.BundleName+".exe")

	if err := a.sign(ctx, executable); err != nil {
		return nil, err
	}

	// The portable packer consumes a folder, so the signed executable is
	// staged next to any fetched feature resources.
	resourceDir := filepath.Join(a.root, ResourceDirName)
	if err := os.MkdirAll(resourceDir, DefaultDirMode); err != nil {
		return nil, err
	}

	err := copyFile(executable, filepath.Join(resourceDir, a.settings.BundleName+".exe"))
	if err != nil {
		return nil, err
	}

	return a.packPortable(ctx, resourceDir, "sciter-install")
}

// packPortable wraps a binary folder with the portable packer and renames
// the result under the deterministic name.
func (a *windowsAssembler) packPortable(ctx context.Context, sourceDir, suffix string) (*Artifact, error) {
	portableDir := filepath.Join(a.root, "libs/portable")

	// The packer runs inside its own directory, so its inputs must be
	// absolute or they resolve against the wrong base.
	sourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, err
	}

	err = a.runner.Run(ctx, portableDir, nil, "pip3", "install", "-r", "requirements.txt")
	if err != nil {
		return nil, err
	}

	product := a.settings.Product

	args := []string{"./generate.py"}
	if a.cfg.Debug() {
		args = append(args, "--debug")
	}

	args = append(args,
		"-f", sourceDir,
		"-o", ".",
		"-e", filepath.Join(sourceDir, product+".exe"))

	if err := a.runner.Run(ctx, portableDir, nil, "python3", args...); err != nil {
		return nil, err
	}

	packer := filepath.Join(a.root, filepath.FromSlash(a.cfg.TargetDir()),
		product+"-portable-packer.exe")

	finalName := ArtifactName(product, a.cfg.Version, a.cfg.Debug(), suffix, "exe")
	finalPath := filepath.Join(a.root, finalName)

	if err := moveFile(packer, finalPath); err != nil {
		return nil, err
	}

	return &Artifact{Path: finalPath, Strategy: StrategyWindows, Version: a.cfg.Version}, nil
}

// sign runs signtool when a credential is supplied; otherwise it logs a
// notice and continues.
func (a *windowsAssembler) sign(ctx context.Context, executable string) error {
	if a.cfg.Debug() || a.cfg.SigningIdentity == "" {
		logger.Info(ctx, "Not signed")
		return nil
	}

	return a.runner.Run(ctx, a.root, nil, "signtool",
		"sign", "/a", "/v",
		"/p", a.cfg.SigningIdentity,
		"/debug",
		"/f", "cert.pfx",
		"/t", signtoolTimestampURL,
		executable)
}
