// Package version exposes build metadata for the packager binary itself.
//
// The variables are injected at build time via ldflags. Note that this is the
// version of the tool, not of the product being packaged; the product version
// is read from the project manifest by internal/manifest.
package version
