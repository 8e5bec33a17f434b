// Package build orchestrates one end-to-end packaging run.
//
// It resolves the product version, host platform, and requested add-on
// features into an immutable configuration, downloads and verifies feature
// resources, and dispatches to the packaging strategy that produces the
// final installable artifact.
package build
