package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/logger"
	"github.com/rustdesk/rustdesk-packager/internal/manifest"
	"github.com/rustdesk/rustdesk-packager/internal/service/build"
	"github.com/rustdesk/rustdesk-packager/internal/version"
)

var (
	// settingsPath to the packaging metadata YAML file.
	settingsPath string
	// manifestPath to the project manifest the version is read from.
	manifestPath string
	// featureCatalogPath to an optional add-on catalog overlay.
	featureCatalogPath string
	// logLevel for the structured logger.
	logLevel string

	features []string
	arch     string

	debug             bool
	flutter           bool
	codegen           bool
	hwcodec           bool
	gpucodec          bool
	flatpak           bool
	appimage          bool
	unixFileCopyPaste bool
	portable          bool
	skipCargo         bool
	skipPortablePack  bool
	packagePath       string

	// rootCmd represents the base command for producing release packages.
	rootCmd = &cobra.Command{
		Use:   "rustdesk-packager",
		Short: "Build and package release artifacts for the current platform",
		Long: `Builds the product and wraps it into the installable package native to
the detected platform: a Debian package, RPM, pacman package, macOS disk
image, or Windows installer executable.

The product version is read from the project manifest. Requested add-on
features are downloaded, verified against their published checksums, and
staged into the package. With --package an existing binary folder is
repackaged directly and compilation is skipped entirely.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &build.Options{
				SettingsPath:       settingsPath,
				ManifestPath:       manifestPath,
				FeatureCatalogPath: featureCatalogPath,
				Features:           features,
				Arch:               arch,
				Debug:              debug,
				Flutter:            flutter,
				Codegen:            codegen,
				Hwcodec:            hwcodec,
				Gpucodec:           gpucodec,
				Flatpak:            flatpak,
				Appimage:           appimage,
				UnixFileCopyPaste:  unixFileCopyPaste,
				Portable:           portable,
				SkipCargo:          skipCargo,
				SkipPortablePack:   skipPortablePack,
				PackagePath:        packagePath,
			}

			return build.Run(ctx, options)
		},
	}
)

// Execute runs the rustdesk-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&settingsPath, "config", "c", config.DefaultSettingsFilename,
		"path to packaging metadata file")
	rootCmd.Flags().StringVar(&manifestPath, "manifest", manifest.DefaultManifestFilename,
		"path to the project manifest")
	rootCmd.Flags().StringVar(&featureCatalogPath, "feature-catalog", "",
		"path to an add-on catalog overlay file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info",
		"logging level (debug, info, warn, error)")

	rootCmd.Flags().StringSliceVarP(&features, "feature", "f", nil,
		"add-on features to include, or \"all\"")
	rootCmd.Flags().StringVar(&arch, "arch", "",
		"architecture tag for package metadata (defaults to $ARCH or amd64)")

	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "produce a debug build")
	rootCmd.Flags().BoolVar(&flutter, "flutter", false, "build the Flutter UI flavor")
	rootCmd.Flags().BoolVarP(&codegen, "codegen", "g", false,
		"regenerate the Flutter bridge code before compiling")
	rootCmd.Flags().BoolVar(&hwcodec, "hwcodec", false, "enable the hwcodec feature")
	rootCmd.Flags().BoolVar(&gpucodec, "gpucodec", false, "enable the gpucodec feature")
	rootCmd.Flags().BoolVar(&flatpak, "flatpak", false, "build for flatpak")
	rootCmd.Flags().BoolVar(&appimage, "appimage", false, "build for appimage")
	rootCmd.Flags().BoolVar(&unixFileCopyPaste, "unix-file-copy-paste", false,
		"enable the unix file copy-paste feature")
	rootCmd.Flags().BoolVar(&portable, "portable", false,
		"accepted for compatibility; portable packing runs unless --skip-portable-pack")
	rootCmd.Flags().BoolVar(&skipCargo, "skip-cargo", false, "skip the native compile step")
	rootCmd.Flags().BoolVar(&skipPortablePack, "skip-portable-pack", false,
		"skip the Windows portable packing step")
	rootCmd.Flags().StringVar(&packagePath, "package", "",
		"repackage a prebuilt binary folder instead of compiling")
}
