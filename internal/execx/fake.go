package execx

import (
	"context"
	"fmt"
)

// FakeCall records one invocation made through a Fake runner.
type FakeCall struct {
	Dir  string
	Env  []string
	Name string
	Args []string
}

// Fake records invocations instead of executing them. Tests use it to
// assert on dispatch decisions without running real subprocesses, and can
// simulate tool side effects (such as creating output artifacts) via OnRun.
type Fake struct {
	// Calls holds every recorded invocation in order.
	Calls []FakeCall
	// FailOn, when non-empty, makes invocations of that tool name fail.
	FailOn string
	// OnRun, when set, runs for every call before the failure check.
	OnRun func(call FakeCall) error
}

// Run implements Runner.
func (f *Fake) Run(_ context.Context, dir string, extraEnv []string, name string, args ...string) error {
	call := FakeCall{Dir: dir, Env: extraEnv, Name: name, Args: args}
	f.Calls = append(f.Calls, call)

	if f.OnRun != nil {
		if err := f.OnRun(call); err != nil {
			return err
		}
	}

	if f.FailOn != "" && f.FailOn == name {
		return fmt.Errorf("%s: exit status 1: %w", name, ErrToolFailed)
	}

	return nil
}

// CalledTools returns the tool names in invocation order.
func (f *Fake) CalledTools() []string {
	names := make([]string, 0, len(f.Calls))
	for _, call := range f.Calls {
		names = append(names, call.Name)
	}

	return names
}
