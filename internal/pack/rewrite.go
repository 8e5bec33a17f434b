package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// The external RPM spec and PKGBUILD files are rewritten in place rather
// than regenerated: only the version, strip options, and build-path
// placeholders change between runs.
var (
	specVersionRe = regexp.MustCompile(`(?m)^Version:\s+.*$`)
	pkgverRe      = regexp.MustCompile(`(?m)^pkgver=.*$`)
	optionsRe     = regexp.MustCompile(`(?m)^options=\([^)]*\)`)
	bundlePathRe  = regexp.MustCompile(`flutter/build/linux/x64/[[:alnum:]]+/bundle/`)
	targetPathRe  = regexp.MustCompile(`/target/(debug|release)/`)
)

// RewriteSpecVersion sets the Version line of an RPM spec.
func RewriteSpecVersion(version string) func(string) string {
	return func(content string) string {
		return specVersionRe.ReplaceAllString(content, "Version:    "+version)
	}
}

// RewritePkgver sets the pkgver line of a PKGBUILD.
func RewritePkgver(version string) func(string) string {
	return func(content string) string {
		return pkgverRe.ReplaceAllString(content, "pkgver="+version)
	}
}

// RewriteStripOptions switches the PKGBUILD options array between the
// debug and release stripping profiles.
func RewriteStripOptions(debug bool) func(string) string {
	replacement := `options=('strip' '!libtool' '!staticlibs' '!debug')`
	if debug {
		replacement = `options=('!strip' 'libtool' 'staticlibs' 'debug')`
	}

	return func(content string) string {
		return optionsRe.ReplaceAllString(content, replacement)
	}
}

// RewriteBundlePath points the framework bundle path at the current build type.
func RewriteBundlePath(buildType string) func(string) string {
	replacement := fmt.Sprintf("flutter/build/linux/x64/%s/bundle/", buildType)

	return func(content string) string {
		return bundlePathRe.ReplaceAllString(content, replacement)
	}
}

// RewriteTargetPath points native build output paths at the current build type.
func RewriteTargetPath(buildType string) func(string) string {
	replacement := fmt.Sprintf("/target/%s/", buildType)

	return func(content string) string {
		return targetPathRe.ReplaceAllString(content, replacement)
	}
}

// RewriteFile applies the transforms to a file in place.
func RewriteFile(path string, transforms ...func(string) string) error {
	path = filepath.Clean(path)

	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rewrite %s: %w", path, err)
	}

	text := string(contents)
	for _, transform := range transforms {
		text = transform(text)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(text), info.Mode()); err != nil {
		return fmt.Errorf("rewrite %s: %w", path, err)
	}

	return nil
}
