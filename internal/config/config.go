package config

import (
	"errors"
	"fmt"

	"github.com/rustdesk/rustdesk-packager/internal/platform"
)

// Mode selects the build profile.
type Mode string

// Supported build modes.
const (
	ModeDebug   Mode = "debug"
	ModeRelease Mode = "release"
)

// DefaultArch is used when neither the --arch flag nor the ARCH
// environment variable provides an architecture tag.
const DefaultArch = "amd64"

var (
	errCodegenRequiresFlutter      = errors.New("--codegen is invalid without --flutter")
	errPortablePackRequiresFlutter = errors.New("--skip-portable-pack is invalid without --flutter")
	errPortablePackWindowsOnly     = errors.New("--skip-portable-pack is only supported on windows")
)

// Config is the immutable record of all resolved build parameters. It is
// produced once from command-line input at process start and passed
// explicitly to every downstream component; no component reads ambient
// global state.
type Config struct {
	// Platform and Manager together identify the detected host.
	Platform platform.OS
	Manager  platform.PackageManager
	// Arch is the architecture tag substituted into package metadata.
	Arch string
	// Mode selects build subpaths, the "-debug" output suffix, and
	// whether binaries are stripped.
	Mode Mode
	// Version is the product version read from the project manifest.
	Version string
	// Features holds requested add-on names, possibly the "all" sentinel.
	Features []string

	// Flutter switches between the Flutter bundle layout and the direct
	// native build output.
	Flutter bool
	// Codegen runs the Flutter Rust bridge generator before compiling.
	Codegen bool

	// Cargo feature toggles.
	Hwcodec           bool
	Gpucodec          bool
	Flatpak           bool
	Appimage          bool
	UnixFileCopyPaste bool

	// Portable is accepted for invocation compatibility. The Windows
	// strategies always pack the portable executable unless
	// SkipPortablePack is set; the toggle changes nothing.
	Portable bool
	// SkipCargo omits the native compile invocation.
	SkipCargo bool
	// SkipPortablePack skips the Windows portable packing step.
	SkipPortablePack bool

	// PackagePath, when set, repackages a prebuilt binary folder and
	// bypasses compilation entirely.
	PackagePath string

	// SigningIdentity enables code-signing steps when non-empty. It is
	// supplied through the environment; absence only disables signing.
	SigningIdentity string
}

// Validate rejects invalid flag combinations.
func Validate(cfg *Config) error {
	if cfg.Codegen && !cfg.Flutter {
		return errCodegenRequiresFlutter
	}

	if cfg.SkipPortablePack {
		if !cfg.Flutter {
			return errPortablePackRequiresFlutter
		}

		if cfg.Platform != platform.Windows {
			return errPortablePackWindowsOnly
		}
	}

	return nil
}

// Debug reports whether this is a debug build.
func (c *Config) Debug() bool {
	return c.Mode == ModeDebug
}

// BuildType returns the build subpath component, "debug" or "release".
func (c *Config) BuildType() string {
	if c.Debug() {
		return "debug"
	}

	return "release"
}

// DebugSuffix returns "-debug" for debug builds and "" otherwise.
func (c *Config) DebugSuffix() string {
	if c.Debug() {
		return "-debug"
	}

	return ""
}

// TargetDir returns the native build output directory for the current mode.
func (c *Config) TargetDir() string {
	return "target/" + c.BuildType()
}

// FlutterBuildDir returns the framework-managed build output directory for
// the current platform and mode, relative to the flutter project root.
func (c *Config) FlutterBuildDir() string {
	switch c.Platform {
	case platform.Windows:
		return fmt.Sprintf("build/windows/x64/runner/%s/", capitalized(c.BuildType()))
	case platform.MacOS:
		return fmt.Sprintf("build/macos/Build/Products/%s/", capitalized(c.BuildType()))
	default:
		return fmt.Sprintf("build/linux/x64/%s/bundle/", c.BuildType())
	}
}

// CargoFeatures derives the compiler feature flags from the configuration.
// Non-Flutter builds carry the inline UI resources.
func (c *Config) CargoFeatures() []string {
	var features []string
	if !c.Flutter {
		features = append(features, "inline")
	}

	if c.Hwcodec {
		features = append(features, "hwcodec")
	}

	if c.Gpucodec {
		features = append(features, "gpucodec")
	}

	if c.Flutter {
		features = append(features, "flutter", "flutter_texture_render")
	}

	if c.Flatpak {
		features = append(features, "flatpak")
	}

	if c.Appimage {
		features = append(features, "appimage")
	}

	if c.UnixFileCopyPaste {
		features = append(features, "unix-file-copy-paste")
	}

	return features
}

// capitalized upper-cases the first ASCII letter, matching the
// Release/Debug directory names used by the framework build.
func capitalized(s string) string {
	if s == "" {
		return s
	}

	return string(s[0]&^0x20) + s[1:]
}
