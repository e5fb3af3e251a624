package secondary

import (
	"context"

	"github.com/example/slic/internal/core/reconcile"
)

// Git defines the secondary port for the git operations the lifecycle engine needs.
// repo is the working directory git runs in.
type Git interface {
	// Worktree operations
	AddWorktree(ctx context.Context, repo, path, branch string) error
	RemoveWorktree(ctx context.Context, repo, path string) error
	ListWorktrees(ctx context.Context, repo string) ([]reconcile.WorktreeEntry, error)

	// Branch operations
	CurrentBranch(ctx context.Context, repo string) (string, error)
	Checkout(ctx context.Context, repo, branch string) error
	Merge(ctx context.Context, repo, branch string) error
	DeleteBranch(ctx context.Context, repo, branch string) error
	IsAncestor(ctx context.Context, repo, ancestor, descendant string) (bool, error)

	// IsDirty reports uncommitted or untracked changes in the working tree at path.
	IsDirty(ctx context.Context, path string) (bool, error)
}
