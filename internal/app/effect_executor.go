// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/core/effects"
	"github.com/example/slic/internal/core/stack"
	"github.com/example/slic/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place lifecycle I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, eff effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor on the secondary ports.
type DefaultEffectExecutor struct {
	registry  secondary.StackRegistry
	states    secondary.StateFiles
	git       secondary.Git
	compose   secondary.ComposeEngine
	workspace secondary.Workspace
	logger    *zap.Logger
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(
	registry secondary.StackRegistry,
	states secondary.StateFiles,
	git secondary.Git,
	compose secondary.ComposeEngine,
	workspace secondary.Workspace,
	logger *zap.Logger,
) *DefaultEffectExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultEffectExecutor{
		registry:  registry,
		states:    states,
		git:       git,
		compose:   compose,
		workspace: workspace,
		logger:    logger,
	}
}

// Execute runs one effect.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.GitEffect:
		return e.executeGit(ctx, typed)
	case effects.ComposeEffect:
		return e.executeCompose(ctx, typed)
	case effects.RegistryEffect:
		return e.executeRegistry(ctx, typed)
	case effects.StateFileEffect:
		return e.executeStateFile(ctx, typed)
	case effects.FileEffect:
		return e.executeFile(ctx, typed)
	case nil:
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeGit(ctx context.Context, eff effects.GitEffect) error {
	arg := func(i int) (string, error) {
		if i >= len(eff.Args) {
			return "", fmt.Errorf("git %s: missing argument %d", eff.Operation, i)
		}
		return eff.Args[i], nil
	}

	switch eff.Operation {
	case effects.GitWorktreeAdd:
		path, err := arg(0)
		if err != nil {
			return err
		}
		branch, err := arg(1)
		if err != nil {
			return err
		}
		return e.git.AddWorktree(ctx, eff.RepoPath, path, branch)
	case effects.GitWorktreeRemove:
		path, err := arg(0)
		if err != nil {
			return err
		}
		return e.git.RemoveWorktree(ctx, eff.RepoPath, path)
	case effects.GitCheckout:
		branch, err := arg(0)
		if err != nil {
			return err
		}
		return e.git.Checkout(ctx, eff.RepoPath, branch)
	case effects.GitMerge:
		branch, err := arg(0)
		if err != nil {
			return err
		}
		return e.git.Merge(ctx, eff.RepoPath, branch)
	case effects.GitDeleteBranch:
		branch, err := arg(0)
		if err != nil {
			return err
		}
		return e.git.DeleteBranch(ctx, eff.RepoPath, branch)
	case effects.GitVerifyMerged:
		branch, err := arg(0)
		if err != nil {
			return err
		}
		into, err := arg(1)
		if err != nil {
			return err
		}
		merged, err := e.git.IsAncestor(ctx, eff.RepoPath, branch, into)
		if err != nil {
			return err
		}
		if !merged {
			e.logger.Debug("branch not merged", zap.String("branch", branch), zap.String("into", into))
			return fmt.Errorf("branch %s is not merged into %s", branch, into)
		}
		return nil
	default:
		return fmt.Errorf("unknown git operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeCompose(ctx context.Context, eff effects.ComposeEffect) error {
	switch eff.Operation {
	case "stop":
		return e.compose.Stop(ctx, eff.ProjectName, eff.StackID)
	default:
		return fmt.Errorf("unknown compose operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeRegistry(ctx context.Context, eff effects.RegistryEffect) error {
	switch eff.Operation {
	case "register":
		record, ok := eff.Record.(stack.Record)
		if !ok {
			return fmt.Errorf("invalid register data type: %T", eff.Record)
		}
		if record.StateFile == "" {
			record.StateFile = e.states.Path(record.StackID)
		}
		return e.registry.Register(ctx, record)
	case "unregister":
		_, err := e.registry.Unregister(ctx, eff.StackID, eff.Cascade)
		if apperr.KindOf(err) == apperr.KindNotFound {
			// Already gone: a retried operation must not fail here.
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown registry operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeStateFile(ctx context.Context, eff effects.StateFileEffect) error {
	switch eff.Operation {
	case "write":
		return e.states.Write(ctx, eff.StackID, eff.Values, false)
	case "delete":
		return e.states.Delete(ctx, eff.StackID)
	default:
		return fmt.Errorf("unknown state file operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeFile(ctx context.Context, eff effects.FileEffect) error {
	switch eff.Operation {
	case "remove_all":
		return e.workspace.RemoveDirectory(ctx, eff.Path)
	default:
		return fmt.Errorf("unknown file operation: %s", eff.Operation)
	}
}
