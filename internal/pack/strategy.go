package pack

import (
	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/platform"
)

// Strategy identifies one packaging route. It is a pure decision value:
// selecting a strategy performs no I/O, execution belongs to the assembler.
type Strategy string

// Supported packaging strategies.
const (
	// StrategyPrebuiltFolder repackages an existing binary folder into a
	// Debian package, bypassing compilation entirely.
	StrategyPrebuiltFolder Strategy = "prebuilt-folder"
	// StrategyWindows produces the installer and portable executables.
	StrategyWindows Strategy = "windows"
	// StrategyDMG produces a macOS disk image with optional code-signing.
	StrategyDMG Strategy = "dmg"
	// StrategyArch produces a pacman package via PKGBUILD.
	StrategyArch Strategy = "arch"
	// StrategyRPMRHEL produces an RPM from the RHEL spec.
	StrategyRPMRHEL Strategy = "rpm-rhel"
	// StrategyRPMSUSE produces an RPM from the SUSE spec.
	StrategyRPMSUSE Strategy = "rpm-suse"
	// StrategyDeb produces a Debian package on generic Linux.
	StrategyDeb Strategy = "deb"
)

// Select picks the packaging strategy for a build. The policy is evaluated
// in strict priority order and the first match wins:
//
//  1. explicit package-path override,
//  2. Windows,
//  3. macOS,
//  4. Linux with pacman,
//  5. Linux with yum,
//  6. Linux with zypper,
//  7. generic Linux (Debian package).
func Select(cfg *config.Config) Strategy {
	switch {
	case cfg.PackagePath != "":
		return StrategyPrebuiltFolder
	case cfg.Platform == platform.Windows:
		return StrategyWindows
	case cfg.Platform == platform.MacOS:
		return StrategyDMG
	}

	switch cfg.Manager {
	case platform.Pacman:
		return StrategyArch
	case platform.Yum:
		return StrategyRPMRHEL
	case platform.Zypper:
		return StrategyRPMSUSE
	default:
		return StrategyDeb
	}
}
