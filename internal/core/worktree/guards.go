package worktree

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

// AddState classifies what already exists for a worktree about to be added.
type AddState int

const (
	// AddFresh means nothing exists yet: create the git worktree and register it.
	AddFresh AddState = iota
	// AddAlreadyRegistered means a record for the worktree exists: report, no mutation.
	AddAlreadyRegistered
	// AddRegisterOnly means git already has the worktree for this branch: register only.
	AddRegisterOnly
)

// AddContext provides pre-fetched state for worktree add guards.
type AddContext struct {
	BaseStackID     string
	BaseExists      bool
	BaseIsWorktree  bool
	Target          string
	TargetDirExists bool
	Branch          string
	DirName         string
	DirNameErr      error

	WorktreePath   string
	RecordExists   bool
	DirExists      bool
	DirIsWorktree  bool   // git lists WorktreePath as a worktree
	DirWorktreeRef string // branch git has checked out at WorktreePath
}

// ClassifyAdd evaluates whether a worktree can be added and how.
// Rules:
// - Base stack must exist and must not itself be a worktree (no nesting)
// - Base must have a target, and the target directory must exist
// - Branch and resulting directory name must be valid
// - An existing record short-circuits as already registered
// - An existing directory is accepted only if git has it as a worktree of the same branch
func ClassifyAdd(ctx AddContext) (AddState, GuardResult) {
	if !ctx.BaseExists {
		return AddFresh, GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("no stack registered for %s - run 'slic stack register' first", ctx.BaseStackID),
		}
	}

	if ctx.BaseIsWorktree {
		return AddFresh, GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s is a worktree stack - run worktree commands from its base stack", ctx.BaseStackID),
		}
	}

	if ctx.Target == "" {
		return AddFresh, GuardResult{
			Allowed: false,
			Reason:  "no target set for this stack - run 'slic stack target <name>' first",
		}
	}

	if !ValidateBranchName(ctx.Branch) {
		return AddFresh, GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("invalid branch name %q", ctx.Branch),
		}
	}

	if ctx.DirNameErr != nil {
		return AddFresh, GuardResult{Allowed: false, Reason: ctx.DirNameErr.Error()}
	}

	if !ctx.TargetDirExists {
		return AddFresh, GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("target directory %s not found in %s", ctx.Target, ctx.BaseStackID),
		}
	}

	if ctx.RecordExists {
		return AddAlreadyRegistered, GuardResult{Allowed: true}
	}

	if ctx.DirExists {
		if !ctx.DirIsWorktree {
			return AddFresh, GuardResult{
				Allowed: false,
				Reason: fmt.Sprintf("directory %s already exists and is not a git worktree. "+
					"Move or delete it, then retry", ctx.WorktreePath),
			}
		}
		if ctx.DirWorktreeRef != ctx.Branch {
			return AddFresh, GuardResult{
				Allowed: false,
				Reason: fmt.Sprintf("directory %s is a worktree for branch %q, not %q. "+
					"Remove it with 'git worktree remove %s' or pick another branch", ctx.WorktreePath, ctx.DirWorktreeRef, ctx.Branch, ctx.WorktreePath),
			}
		}
		return AddRegisterOnly, GuardResult{Allowed: true}
	}

	return AddFresh, GuardResult{Allowed: true}
}

// RemoveContext provides pre-fetched state for worktree remove guards.
type RemoveContext struct {
	Branch     string
	Registered bool
	Dirty      bool
	Force      bool
}

// RemoveDecision is the outcome of the remove guard.
type RemoveDecision struct {
	GuardResult
	NeedsConfirmation bool
}

// CanRemove evaluates whether a worktree stack can be removed.
// Rules:
// - A worktree stack for the branch must be registered
// - A dirty working tree needs explicit confirmation unless forced
func CanRemove(ctx RemoveContext) RemoveDecision {
	if !ctx.Registered {
		return RemoveDecision{GuardResult: GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("no worktree stack registered for branch %s", ctx.Branch),
		}}
	}

	if ctx.Dirty && !ctx.Force {
		return RemoveDecision{
			GuardResult:       GuardResult{Allowed: true},
			NeedsConfirmation: true,
		}
	}

	return RemoveDecision{GuardResult: GuardResult{Allowed: true}}
}

// MergeContext provides pre-fetched state for worktree merge guards.
type MergeContext struct {
	Branch            string
	Registered        bool
	WorktreePath      string
	CwdInsideWorktree bool
	BaseBranch        string
}

// CanMerge evaluates whether a worktree branch can be merged.
// Rules:
// - A worktree stack for the branch must be registered
// - Must not run from inside the worktree being merged (it is deleted mid-operation)
// - A base branch must be known
func CanMerge(ctx MergeContext) GuardResult {
	if !ctx.Registered {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("no worktree stack registered for branch %s", ctx.Branch),
		}
	}

	if ctx.CwdInsideWorktree {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot merge from inside %s - cd to the base stack and retry", ctx.WorktreePath),
		}
	}

	if ctx.BaseBranch == "" {
		return GuardResult{
			Allowed: false,
			Reason:  "cannot determine the base branch to merge into",
		}
	}

	if ctx.BaseBranch == ctx.Branch {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("base branch and worktree branch are both %s", ctx.Branch),
		}
	}

	return GuardResult{Allowed: true}
}
