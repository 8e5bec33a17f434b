package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/execx"
	"github.com/rustdesk/rustdesk-packager/internal/feature"
	"github.com/rustdesk/rustdesk-packager/internal/fetch"
	"github.com/rustdesk/rustdesk-packager/internal/logger"
	"github.com/rustdesk/rustdesk-packager/internal/manifest"
	"github.com/rustdesk/rustdesk-packager/internal/pack"
	"github.com/rustdesk/rustdesk-packager/internal/platform"
)

// archEnvVar overrides the architecture tag when the flag is not given.
const archEnvVar = "ARCH"

// Options contains inputs for the packaging entry point. Every field maps
// to a command-line flag.
type Options struct {
	// SettingsPath is an optional path to product packaging metadata
	// (defaults to packager-settings.yaml).
	SettingsPath string
	// ManifestPath is the path to the project manifest the product version
	// is read from.
	ManifestPath string
	// FeatureCatalogPath is an optional YAML overlay for the add-on catalog.
	FeatureCatalogPath string

	// Features holds requested add-on names, possibly the "all" sentinel.
	Features []string
	// Arch overrides the architecture tag baked into package metadata.
	Arch string
	// Debug selects the debug build profile.
	Debug bool

	// Flutter selects the Flutter UI flavor; Codegen regenerates the
	// bridge code before compiling.
	Flutter bool
	Codegen bool

	// Cargo feature toggles.
	Hwcodec           bool
	Gpucodec          bool
	Flatpak           bool
	Appimage          bool
	UnixFileCopyPaste bool

	// Portable is accepted for invocation compatibility; portable packing
	// always runs on Windows unless SkipPortablePack is set.
	Portable bool
	// SkipCargo omits the native compile invocation.
	SkipCargo bool
	// SkipPortablePack skips the Windows portable packing step.
	SkipPortablePack bool

	// PackagePath repackages a prebuilt binary folder, bypassing
	// compilation and resource fetching entirely.
	PackagePath string
}

// pipeline holds the resolved state for a single packaging execution.
// It is intentionally unexported—call Run(ctx, Options) from callers.
type pipeline struct {
	cfg      *config.Config
	settings *config.Settings
	catalog  []feature.Feature
	fetcher  *fetch.Fetcher
	runner   execx.Runner
	// root is the repository directory; empty means the current directory.
	root string
}

// Run executes the packaging workflow and is the public entry point for
// the CLI: resolve parameters, acquire feature resources, then dispatch to
// the packaging strategy.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name and a run identifier for tracking.
	ctx = logger.WithName(ctx, "rustdesk-packager")
	ctx = logger.WithKV(ctx, "run_id", uuid.NewString())

	p, err := newPipeline(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	artifact, err := p.run(ctx)
	if err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.InfoKV(ctx, "Output location", "path", artifact.Path)

	return nil
}

// newPipeline resolves every build parameter up front so the packaging
// stages run against an immutable configuration.
func newPipeline(ctx context.Context, opts *Options) (*pipeline, error) {
	settings, err := config.LoadSettings(opts.SettingsPath)
	if err != nil {
		return nil, err
	}

	version, err := manifest.ProjectVersion(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	host := platform.Detect()

	mode := config.ModeRelease
	if opts.Debug {
		mode = config.ModeDebug
	}

	cfg := &config.Config{
		Platform:          host.OS,
		Manager:           host.Manager,
		Arch:              resolveArch(opts.Arch),
		Mode:              mode,
		Version:           version,
		Features:          opts.Features,
		Flutter:           opts.Flutter,
		Codegen:           opts.Codegen,
		Hwcodec:           opts.Hwcodec,
		Gpucodec:          opts.Gpucodec,
		Flatpak:           opts.Flatpak,
		Appimage:          opts.Appimage,
		UnixFileCopyPaste: opts.UnixFileCopyPaste,
		Portable:          opts.Portable,
		SkipCargo:         opts.SkipCargo,
		SkipPortablePack:  opts.SkipPortablePack,
		PackagePath:       opts.PackagePath,
		SigningIdentity:   os.Getenv(settings.SigningEnvVar),
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	catalog, err := feature.LoadCatalog(opts.FeatureCatalogPath)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Build parameters resolved",
		"version", version,
		"platform", host.OS,
		"manager", host.Manager,
		"arch", cfg.Arch,
		"mode", mode)

	return &pipeline{
		cfg:      cfg,
		settings: settings,
		catalog:  catalog,
		fetcher:  fetch.New(nil),
		runner:   execx.New(),
	}, nil
}

// run acquires feature resources and executes the packaging strategy.
func (p *pipeline) run(ctx context.Context) (*pack.Artifact, error) {
	strategy := pack.Select(p.cfg)
	logger.InfoKV(ctx, "Packaging strategy selected", "strategy", strategy)

	if p.cfg.PackagePath == "" {
		if err := p.acquireResources(ctx); err != nil {
			return nil, err
		}

		// The native UI flavor inlines its resources into the sources
		// before compiling.
		if !p.cfg.Flutter && !p.cfg.SkipCargo {
			err := p.runner.Run(ctx, p.root, nil, "python3", filepath.Join("res", "inline-sciter.py"))
			if err != nil {
				return nil, err
			}
		}
	}

	asm, err := pack.NewAssembler(strategy, p.cfg, p.settings, p.runner, p.root)
	if err != nil {
		return nil, err
	}

	return asm.Assemble(ctx)
}

// acquireResources resolves the requested features for the host platform
// and downloads their verified archives into the resource staging folder.
func (p *pipeline) acquireResources(ctx context.Context) error {
	resolved := feature.Resolve(ctx, p.cfg.Features, p.cfg.Platform, p.catalog)
	if len(resolved) == 0 {
		logger.Debug(ctx, "No feature resources to fetch")
		return nil
	}

	logger.InfoKV(ctx, "Fetching feature resources", "features", resolved.Names())

	return p.fetcher.Fetch(ctx, resolved, filepath.Join(p.root, pack.ResourceDirName))
}

// resolveArch applies the flag > environment > default precedence.
func resolveArch(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if env := os.Getenv(archEnvVar); env != "" {
		return env
	}

	return config.DefaultArch
}
