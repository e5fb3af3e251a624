package stack

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// RegisterContext provides context for directory adoption guards.
type RegisterContext struct {
	Path          string
	PathIsDir     bool
	InsideStackID string // registered worktree stack containing Path, if any
}

// TargetContext provides context for target switch guards.
type TargetContext struct {
	StackID      string
	Target       string
	TargetExists bool
}

// UnregisterContext provides context for unregister guards.
type UnregisterContext struct {
	StackID       string
	StackExists   bool
	IsWorktree    bool
	Cascade       bool
	WorktreeCount int
}

// CanRegister evaluates whether a directory can be adopted as a base stack.
// Rules:
// - Path must be an existing directory
// - Path must not live inside a worktree stack (no nesting)
func CanRegister(ctx RegisterContext) GuardResult {
	if !ctx.PathIsDir {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot register %s: not an existing directory", ctx.Path),
		}
	}

	if ctx.InsideStackID != "" {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot register %s: it is inside worktree stack %s", ctx.Path, ctx.InsideStackID),
		}
	}

	return GuardResult{Allowed: true}
}

// CanSwitchTarget evaluates whether a stack can switch its target.
// Rules:
// - Target must be non-empty
// - Target subdirectory must exist inside the stack directory
func CanSwitchTarget(ctx TargetContext) GuardResult {
	if ctx.Target == "" {
		return GuardResult{Allowed: false, Reason: "target name is required"}
	}

	if !ctx.TargetExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("target %s not found in %s", ctx.Target, ctx.StackID),
		}
	}

	return GuardResult{Allowed: true}
}

// CanUnregister evaluates whether a stack can be unregistered.
// Rules:
// - Stack must be registered
// - A base stack with worktrees requires cascade
func CanUnregister(ctx UnregisterContext) GuardResult {
	if !ctx.StackExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("stack %s is not registered", ctx.StackID),
		}
	}

	if !ctx.IsWorktree && ctx.WorktreeCount > 0 && !ctx.Cascade {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("stack %s has %d worktree stack(s). Use --cascade to remove them too", ctx.StackID, ctx.WorktreeCount),
		}
	}

	return GuardResult{Allowed: true}
}
