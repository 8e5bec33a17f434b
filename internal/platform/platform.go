package platform

import (
	"os"
	"runtime"
	"strings"
)

// OS is the platform tag used across the pipeline.
type OS string

// Supported platform tags.
const (
	Windows OS = "windows"
	MacOS   OS = "macos"
	Linux   OS = "linux"
)

// PackageManager identifies the Linux package manager found on the host.
type PackageManager string

// Known package-manager probes.
const (
	Pacman    PackageManager = "pacman"
	Yum       PackageManager = "yum"
	Zypper    PackageManager = "zypper"
	NoManager PackageManager = "none"
)

// Host is the detected OS and package-manager identity of the build machine.
type Host struct {
	OS      OS
	Manager PackageManager
}

// managerProbes lists package-manager binaries in dispatch priority order.
//
//nolint:gochecknoglobals // Static probe table.
var managerProbes = []struct {
	path    string
	manager PackageManager
}{
	{"/usr/bin/pacman", Pacman},
	{"/usr/bin/yum", Yum},
	{"/usr/bin/zypper", Zypper},
}

// Detect returns the host identity using the running OS and filesystem probes.
func Detect() Host {
	return DetectWith(runtime.GOOS, fileExists)
}

// DetectWith resolves a Host from an explicit GOOS value and file-probe
// function. Tests inject a fake probe to exercise every branch without
// depending on the machine they run on.
func DetectWith(goos string, exists func(string) bool) Host {
	host := Host{OS: Linux, Manager: NoManager}

	osLC := strings.ToLower(goos)
	switch {
	case strings.Contains(osLC, "windows"):
		host.OS = Windows
		return host
	case strings.Contains(osLC, "darwin"):
		host.OS = MacOS
		return host
	}

	for _, probe := range managerProbes {
		if exists(probe.path) {
			host.Manager = probe.manager
			break
		}
	}

	return host
}

// ExecutableExtension returns ".exe" on Windows and "" elsewhere.
func (o OS) ExecutableExtension() string {
	if o == Windows {
		return ".exe"
	}

	return ""
}

// fileExists reports whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
