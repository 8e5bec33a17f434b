package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/execx"
)

// archAssembler rewrites the PKGBUILD and drives makepkg.
type archAssembler struct {
	cfg      *config.Config
	settings *config.Settings
	runner   execx.Runner
	root     string
}

// Assemble rewrites the PKGBUILD for the current version and mode, builds,
// runs makepkg, and relocates the package under the deterministic name.
func (a *archAssembler) Assemble(ctx context.Context) (*Artifact, error) {
	pkgbuild := filepath.Join(a.root, "res", "PKGBUILD")

	err := RewriteFile(pkgbuild,
		RewritePkgver(a.cfg.Version),
		RewriteStripOptions(a.cfg.Debug()),
		RewriteBundlePath(a.cfg.BuildType()),
		RewriteTargetPath(a.cfg.BuildType()),
	)
	if err != nil {
		return nil, err
	}

	if err := a.compile(ctx); err != nil {
		return nil, err
	}

	rootAbs, err := filepath.Abs(a.root)
	if err != nil {
		return nil, err
	}

	product := a.settings.Product
	rawName := fmt.Sprintf("%s-%s-0-x86_64.pkg.tar.zst", product, a.cfg.Version)

	var built string

	if a.cfg.Flutter {
		err = a.runner.Run(ctx, filepath.Join(a.root, "res"),
			[]string{"HBB=" + rootAbs, "FLUTTER=1"}, "makepkg", "-f")
		built = filepath.Join(a.root, "res", rawName)
	} else {
		// The native variant expects the build files next to the sources.
		if err = a.linkBuildFiles(); err != nil {
			return nil, err
		}

		err = a.runner.Run(ctx, a.root, []string{"HBB=" + rootAbs}, "makepkg", "-f")
		built = filepath.Join(a.root, rawName)
	}

	if err != nil {
		return nil, err
	}

	finalName := ArtifactName(product, a.cfg.Version, a.cfg.Debug(), "manjaro-arch", "pkg.tar.zst")
	finalPath := filepath.Join(a.root, finalName)

	if err := moveFile(built, finalPath); err != nil {
		return nil, err
	}

	return &Artifact{Path: finalPath, Strategy: StrategyArch, Version: a.cfg.Version}, nil
}

// compile builds the native library/executable and the framework bundle.
func (a *archAssembler) compile(ctx context.Context) error {
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
		return c.flutterBuild(ctx, "linux")
	}

	return c.strip(ctx, filepath.Join(a.cfg.TargetDir(), a.settings.Product))
}

// linkBuildFiles symlinks the packaging inputs into the repository root so
// makepkg finds them.
func (a *archAssembler) linkBuildFiles() error {
	for _, name := range []string{"pacman_install", "PKGBUILD"} {
		link := filepath.Join(a.root, name)

		_ = os.Remove(link)

		if err := os.Symlink(filepath.Join("res", name), link); err != nil {
			return err
		}
	}

	return nil
}
