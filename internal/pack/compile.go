package pack

import (
	"context"
	"strings"

	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/execx"
)

// compiler drives the external native and framework build tools for the
// assemblers. Every invocation is a blocking structured subprocess call.
type compiler struct {
	cfg    *config.Config
	runner execx.Runner
	root   string
}

// bridgeCodegen runs the framework bridge-code generator.
func (c *compiler) bridgeCodegen(ctx context.Context) error {
	return c.runner.Run(ctx, c.root, nil, "flutter_rust_bridge_codegen",
		"--rust-input", "./src/flutter_ffi.rs",
		"--dart-output", "./flutter/lib/generated_bridge.dart",
		"--c-output", "./flutter/linux/Runner/bridge_generated.h")
}

// cargoBuildLib compiles the native library with the derived feature flags.
func (c *compiler) cargoBuildLib(ctx context.Context, extraEnv ...string) error {
	args := []string{"build", "--features", c.featureList(), "--lib"}
	if !c.cfg.Debug() {
		args = append(args, "--release")
	}

	return c.runner.Run(ctx, c.root, extraEnv, "cargo", args...)
}

// cargoBuild compiles the native executable with the derived feature flags.
func (c *compiler) cargoBuild(ctx context.Context) error {
	args := []string{"build"}
	if !c.cfg.Debug() {
		args = append(args, "--release")
	}

	args = append(args, "--features", c.featureList())

	return c.runner.Run(ctx, c.root, nil, "cargo", args...)
}

// cargoBundle produces the native application bundle.
func (c *compiler) cargoBundle(ctx context.Context) error {
	args := []string{"bundle"}
	if !c.cfg.Debug() {
		args = append(args, "--release")
	}

	args = append(args, "--features", c.featureList())

	return c.runner.Run(ctx, c.root, nil, "cargo", args...)
}

// flutterBuild runs the framework build for the given target inside the
// framework project directory.
func (c *compiler) flutterBuild(ctx context.Context, target string) error {
	return c.runner.Run(ctx, c.flutterDir(), nil, "flutter",
		"build", target, "--"+c.cfg.BuildType())
}

// strip removes symbols from the given binaries. Only release builds strip.
func (c *compiler) strip(ctx context.Context, paths ...string) error {
	if c.cfg.Debug() {
		return nil
	}

	for _, path := range paths {
		if err := c.runner.Run(ctx, c.root, nil, "strip", path); err != nil {
			return err
		}
	}

	return nil
}

// flutterDir returns the framework project directory.
func (c *compiler) flutterDir() string {
	if c.root == "" {
		return "flutter"
	}

	return c.root + "/flutter"
}

func (c *compiler) featureList() string {
	return strings.Join(c.cfg.CargoFeatures(), ",")
}
