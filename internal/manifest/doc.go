// Package manifest reads the packaged product's version from its project
// manifest (Cargo.toml).
package manifest
