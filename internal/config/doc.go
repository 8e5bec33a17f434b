// Package config defines the immutable build configuration assembled from
// command-line input and the optional product settings file.
//
// Config is created once at process start, validated, and passed explicitly
// to every pipeline component. Settings carries product packaging metadata
// (name, maintainer, dependencies) loaded from an optional YAML file, with
// built-in defaults covering every field.
package config
