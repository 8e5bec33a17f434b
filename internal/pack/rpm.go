package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/execx"
)

// rpmAssembler rewrites the distribution's spec file in place and drives
// rpmbuild. The RHEL and SUSE variants differ only in spec file and the
// artifact suffix.
type rpmAssembler struct {
	cfg      *config.Config
	settings *config.Settings
	runner   execx.Runner
	root     string
	strategy Strategy // StrategyRPMRHEL or StrategyRPMSUSE
}

// Assemble compiles, rewrites the spec, runs rpmbuild, and relocates the
// resulting RPM under the deterministic name.
func (a *rpmAssembler) Assemble(ctx context.Context) (*Artifact, error) {
	if err := a.compile(ctx); err != nil {
		return nil, err
	}

	specPath := filepath.Join(a.root, "res", a.specFilename())

	transforms := []func(string) string{RewriteSpecVersion(a.cfg.Version)}
	if a.cfg.Flutter {
		transforms = append(transforms, RewriteBundlePath(a.cfg.BuildType()))
	}

	if err := RewriteFile(specPath, transforms...); err != nil {
		return nil, err
	}

	buildMode := "-ba"
	if a.cfg.Flutter {
		buildMode = "-bb"
	}

	rootAbs, err := filepath.Abs(a.root)
	if err != nil {
		return nil, err
	}

	err = a.runner.Run(ctx, a.root, []string{"HBB=" + rootAbs}, "rpmbuild", buildMode, specPath)
	if err != nil {
		return nil, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	product := a.settings.Product
	built := filepath.Join(home, "rpmbuild/RPMS/x86_64",
		fmt.Sprintf("%s-%s-0.x86_64.rpm", product, a.cfg.Version))

	finalName := ArtifactName(product, a.cfg.Version, a.cfg.Debug(), a.suffix(), "rpm")
	finalPath := filepath.Join(a.root, finalName)

	if err := moveFile(built, finalPath); err != nil {
		return nil, err
	}

	return &Artifact{Path: finalPath, Strategy: a.strategy, Version: a.cfg.Version}, nil
}

// compile builds the native library/executable and the framework bundle,
// stripping release binaries.
func (a *rpmAssembler) compile(ctx context.Context) error {
	c := &compiler{cfg: a.cfg, runner: a.runner, root: a.root}

	if !a.cfg.SkipCargo {
		if a.cfg.Codegen {
			if err := c.bridgeCodegen(ctx); err != nil {
				return err
			}
		}

		if a.cfg.Flutter {
			if err := c.cargoBuildLib(ctx); err != nil {
				return err
			}
		} else if err := c.cargoBuild(ctx); err != nil {
			return err
		}
	}

	if a.cfg.Flutter {
		if err := c.flutterBuild(ctx, "linux"); err != nil {
			return err
		}

		bundleLib := filepath.Join("flutter", filepath.FromSlash(a.cfg.FlutterBuildDir()),
			"lib", "lib"+a.settings.Product+".so")

		return c.strip(ctx, bundleLib)
	}

	return c.strip(ctx, filepath.Join(a.cfg.TargetDir(), a.settings.Product))
}

// specFilename picks the distribution's spec template.
func (a *rpmAssembler) specFilename() string {
	switch {
	case a.cfg.Flutter && a.strategy == StrategyRPMSUSE:
		return "rpm-flutter-suse.spec"
	case a.cfg.Flutter:
		return "rpm-flutter.spec"
	case a.strategy == StrategyRPMSUSE:
		return "rpm-suse.spec"
	default:
		return "rpm.spec"
	}
}

func (a *rpmAssembler) suffix() string {
	if a.strategy == StrategyRPMSUSE {
		return "suse"
	}

	return "rhel"
}
