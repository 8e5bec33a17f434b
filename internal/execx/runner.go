package execx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrToolFailed wraps every non-zero exit or spawn failure of an external
// tool so callers can classify the error without string matching.
var ErrToolFailed = errors.New("external tool failed")

// Runner executes external build and packaging tools. Implementations run
// one subprocess per call with an explicit argument list; there is no shell
// interpretation, so quoting can never change the command.
type Runner interface {
	// Run executes name with args in dir (empty dir means the current
	// directory), appending extraEnv ("KEY=value" pairs) to the inherited
	// environment. It blocks until the subprocess terminates.
	Run(ctx context.Context, dir string, extraEnv []string, name string, args ...string) error
}

// runner is the production implementation backed by os/exec.
type runner struct{}

// New returns the production Runner.
func New() Runner { //nolint:ireturn // The seam exists so tests can inject a fake.
	return runner{}
}

// Run implements Runner. Tool output is passed through to the packager's
// own stdout/stderr so build logs stay visible.
func (runner) Run(ctx context.Context, dir string, extraEnv []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %v: %w", commandLine(name, args), err, ErrToolFailed)
	}

	return nil
}

// commandLine renders the invocation for error messages.
func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}

	return name + " " + strings.Join(args, " ")
}
