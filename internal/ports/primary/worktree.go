package primary

import (
	"context"

	"github.com/example/slic/internal/core/stack"
)

// WorktreeService defines the primary port for worktree stack lifecycle operations.
type WorktreeService interface {
	// AddWorktree creates (or adopts) a git worktree for a branch and registers its stack.
	AddWorktree(ctx context.Context, req AddWorktreeRequest) (*AddWorktreeResponse, error)

	// RemoveWorktree stops, removes and unregisters a worktree stack.
	RemoveWorktree(ctx context.Context, req RemoveWorktreeRequest) (*StepsResponse, error)

	// MergeWorktree merges a worktree branch into its base branch and cleans up.
	MergeWorktree(ctx context.Context, req MergeWorktreeRequest) (*MergeWorktreeResponse, error)

	// ListWorktrees lists the worktree stacks of a base stack.
	ListWorktrees(ctx context.Context, baseStackID string) ([]WorktreeSummary, error)
}

// AddWorktreeRequest contains parameters for adding a worktree stack.
type AddWorktreeRequest struct {
	BaseStackID string
	Branch      string
	AssumeYes   bool
}

// AddWorktreeResponse contains the result of adding a worktree stack.
type AddWorktreeResponse struct {
	Record            stack.Record
	AlreadyRegistered bool
	Adopted           bool // git worktree existed, only registration ran
	Cancelled         bool
	Steps             []StepReport
}

// RemoveWorktreeRequest contains parameters for removing a worktree stack.
type RemoveWorktreeRequest struct {
	BaseStackID string
	Branch      string
	Force       bool // skip the dirty-tree confirmation
}

// MergeWorktreeRequest contains parameters for merging a worktree branch.
type MergeWorktreeRequest struct {
	BaseStackID string
	Branch      string
	WorkingDir  string
	AssumeYes   bool
}

// MergeWorktreeResponse contains the result of a merge.
type MergeWorktreeResponse struct {
	StepsResponse
	BaseBranch  string
	CleanupOnly bool
}

// StepsResponse reports the outcome of every planned step.
type StepsResponse struct {
	Cancelled bool
	Steps     []StepReport
}

// StepReport is the outcome of one lifecycle step.
type StepReport struct {
	Name    string
	Outcome string // done, failed, skipped, pending
	Detail  string
}

// WorktreeSummary describes one worktree stack.
type WorktreeSummary struct {
	Record    stack.Record
	DirExists bool
}
