package pack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/execx"
	"github.com/rustdesk/rustdesk-packager/internal/logger"
)

// debStagingDirName is the throwaway tree mirroring the install layout.
const debStagingDirName = "tmpdeb"

// debAssembler stages the Debian install layout and drives dpkg-deb.
// With a prebuilt source folder it repackages that folder directly and
// never touches the compilers.
type debAssembler struct {
	cfg      *config.Config
	settings *config.Settings
	runner   execx.Runner
	root     string
	// prebuilt is the binary-folder override; empty means compile.
	prebuilt string
}

// Assemble runs the stage/populate/metadata/checksum/archive/finalize
// sequence. Each stage is a hard boundary: the first failure aborts the
// rest and the staging tree is removed regardless of outcome.
func (a *debAssembler) Assemble(ctx context.Context) (*Artifact, error) {
	if err := a.compile(ctx); err != nil {
		return nil, err
	}

	staging := filepath.Join(a.root, debStagingDirName)
	if err := a.stage(staging); err != nil {
		return nil, err
	}

	defer func() {
		_ = os.RemoveAll(staging)
	}()

	if err := a.populate(ctx, staging); err != nil {
		return nil, err
	}

	if err := a.generateMetadata(staging); err != nil {
		return nil, err
	}

	if err := a.appendChecksums(staging); err != nil {
		return nil, err
	}

	product := a.settings.Product

	rawName := product + ".deb"
	if err := a.runner.Run(ctx, a.root, nil, "dpkg-deb", "-b", debStagingDirName, rawName); err != nil {
		return nil, err
	}

	finalName := ArtifactName(product, a.cfg.Version, a.cfg.Debug(), "", "deb")
	finalPath := filepath.Join(a.root, finalName)

	if err := moveFile(filepath.Join(a.root, rawName), finalPath); err != nil {
		return nil, err
	}

	strategy := StrategyDeb
	if a.prebuilt != "" {
		strategy = StrategyPrebuiltFolder
	}

	return &Artifact{Path: finalPath, Strategy: strategy, Version: a.cfg.Version}, nil
}

// compile invokes the external build tools unless a prebuilt folder or the
// skip-compile flag bypasses them.
func (a *debAssembler) compile(ctx context.Context) error {
	if a.prebuilt != "" {
		return nil
	}

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

		return nil
	}

	return c.strip(ctx, filepath.Join(a.cfg.TargetDir(), a.settings.Product))
}

// stage creates a fresh staging tree mirroring the install layout.
func (a *debAssembler) stage(staging string) error {
	if err := recreateDir(staging); err != nil {
		return err
	}

	product := a.settings.Product

	dirs := []string{
		"usr/bin",
		"usr/lib/" + product,
		"etc/" + product,
		"etc/pam.d",
		"usr/share/" + product + "/files/systemd",
		"usr/share/icons/hicolor/256x256/apps",
		"usr/share/icons/hicolor/scalable/apps",
		"usr/share/applications",
		"usr/share/polkit-1/actions",
		"DEBIAN",
	}
	if a.sciter() {
		dirs = append(dirs, "etc/X11/"+product)
	}

	return ensureDirs(staging, dirs...)
}

// populate copies build outputs, resource templates, and the desktop
// integration files into the staging tree.
func (a *debAssembler) populate(ctx context.Context, staging string) error {
	product := a.settings.Product
	libDir := filepath.Join(staging, "usr/lib", product)

	switch {
	case a.prebuilt != "":
		if err := copyTree(a.prebuilt, libDir); err != nil {
			return err
		}
	case a.cfg.Flutter:
		bundle := filepath.Join(a.root, "flutter", filepath.FromSlash(a.cfg.FlutterBuildDir()))
		if err := copyTree(bundle, libDir); err != nil {
			return err
		}
	default:
		binary := filepath.Join(a.root, filepath.FromSlash(a.cfg.TargetDir()), product)
		if err := copyFile(binary, filepath.Join(libDir, product)); err != nil {
			return err
		}

		if err := copyFile(filepath.Join(a.root, "libsciter-gtk.so"), filepath.Join(libDir, "libsciter-gtk.so")); err != nil {
			return err
		}
	}

	res := filepath.Join(a.root, "res")

	copies := []struct{ src, dst string }{
		{filepath.Join(res, product+".service"), filepath.Join(staging, "usr/share", product, "files/systemd", product+".service")},
		{filepath.Join(res, "128x128@2x.png"), filepath.Join(staging, "usr/share/icons/hicolor/256x256/apps", product+".png")},
		{filepath.Join(res, "scalable.svg"), filepath.Join(staging, "usr/share/icons/hicolor/scalable/apps", product+".svg")},
		{filepath.Join(res, product+".desktop"), filepath.Join(staging, "usr/share/applications", product+".desktop")},
		{filepath.Join(res, product+"-link.desktop"), filepath.Join(staging, "usr/share/applications", product+"-link.desktop")},
		{filepath.Join(res, "com.rustdesk.RustDesk.policy"), filepath.Join(staging, "usr/share/polkit-1/actions/com.rustdesk.RustDesk.policy")},
	}

	if a.prebuilt == "" {
		copies = append(copies,
			struct{ src, dst string }{filepath.Join(res, "startwm.sh"), filepath.Join(staging, "etc", product, "startwm.sh")},
			struct{ src, dst string }{filepath.Join(res, "pam.d", product+".debian"), filepath.Join(staging, "etc/pam.d", product)},
		)

		xorgDst := filepath.Join(staging, "etc", product, "xorg.conf")
		if a.sciter() {
			xorgDst = filepath.Join(staging, "etc/X11", product, "xorg.conf")
		}

		copies = append(copies, struct{ src, dst string }{filepath.Join(res, "xorg.conf"), xorgDst})
	}

	for _, c := range copies {
		if err := copyFile(c.src, c.dst); err != nil {
			return err
		}
	}

	logger.DebugKV(ctx, "Staged install layout", "staging", staging)

	return writeExecutable(filepath.Join(staging, "usr/share", product, "files/polkit"), "#!/bin/sh\n")
}

// generateMetadata renders the control file from the package template.
func (a *debAssembler) generateMetadata(staging string) error {
	control := RenderControl(a.settings, a.cfg.Version, a.cfg.Arch)

	return os.WriteFile(filepath.Join(staging, "DEBIAN/control"), []byte(control), 0o644)
}

// appendChecksums records MD5 lines for the files that must stay
// verifiable after installation. The list is strategy-specific.
func (a *debAssembler) appendChecksums(staging string) error {
	product := a.settings.Product

	files := []string{
		"usr/share/" + product + "/files/systemd/" + product + ".service",
	}
	if a.sciter() {
		files = append(files,
			"etc/"+product+"/startwm.sh",
			"etc/X11/"+product+"/xorg.conf",
			"etc/pam.d/"+product,
			"usr/lib/"+product+"/libsciter-gtk.so",
		)
	}

	err := AppendChecksumEntries(staging, filepath.Join(staging, "DEBIAN/md5sums"), files)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("verifiable file set incomplete: %w", err)
	}

	return err
}

// sciter reports whether this is the direct native build variant
// (no framework bundle, no prebuilt folder).
func (a *debAssembler) sciter() bool {
	return !a.cfg.Flutter && a.prebuilt == ""
}
