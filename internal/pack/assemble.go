package pack

import (
	"context"
	"errors"

	"github.com/rustdesk/rustdesk-packager/internal/config"
	"github.com/rustdesk/rustdesk-packager/internal/execx"
)

// errUnknownStrategy is returned for a strategy value without an assembler.
var errUnknownStrategy = errors.New("unknown packaging strategy")

// Assembler executes one packaging strategy end to end. Failure at any
// stage aborts the remaining stages; no stage is retried.
type Assembler interface {
	Assemble(ctx context.Context) (*Artifact, error)
}

// NewAssembler returns the assembler implementing the strategy. The root
// is the repository directory every tool runs in; an empty root means the
// current directory.
func NewAssembler(strategy Strategy, cfg *config.Config, settings *config.Settings,
	runner execx.Runner, root string) (Assembler, error) { //nolint:ireturn // Strategy dispatch.
	switch strategy {
	case StrategyPrebuiltFolder:
		return &debAssembler{cfg: cfg, settings: settings, runner: runner, root: root, prebuilt: cfg.PackagePath}, nil
	case StrategyDeb:
		return &debAssembler{cfg: cfg, settings: settings, runner: runner, root: root}, nil
	case StrategyRPMRHEL, StrategyRPMSUSE:
		return &rpmAssembler{cfg: cfg, settings: settings, runner: runner, root: root, strategy: strategy}, nil
	case StrategyArch:
		return &archAssembler{cfg: cfg, settings: settings, runner: runner, root: root}, nil
	case StrategyDMG:
		return &dmgAssembler{cfg: cfg, settings: settings, runner: runner, root: root}, nil
	case StrategyWindows:
		return &windowsAssembler{cfg: cfg, settings: settings, runner: runner, root: root}, nil
	default:
		return nil, errUnknownStrategy
	}
}
