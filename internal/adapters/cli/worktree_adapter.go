package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/ports/primary"
)

// WorktreeAdapter translates worktree commands into WorktreeService calls.
type WorktreeAdapter struct {
	service primary.WorktreeService
	out     io.Writer
}

// NewWorktreeAdapter creates a new WorktreeAdapter.
func NewWorktreeAdapter(service primary.WorktreeService, out io.Writer) *WorktreeAdapter {
	if out == nil {
		out = os.Stdout
	}
	return &WorktreeAdapter{service: service, out: out}
}

// Add creates a worktree stack for branch.
func (a *WorktreeAdapter) Add(ctx context.Context, baseStackID, branch string, assumeYes bool) error {
	resp, err := a.service.AddWorktree(ctx, primary.AddWorktreeRequest{
		BaseStackID: baseStackID,
		Branch:      branch,
		AssumeYes:   assumeYes,
	})
	if resp != nil {
		printSteps(a.out, resp.Steps)
	}
	if err != nil {
		return err
	}

	switch {
	case resp.Cancelled:
		return apperr.Cancelled()
	case resp.AlreadyRegistered:
		fmt.Fprintf(a.out, "Worktree stack for %s is already registered at %s\n", branch, resp.Record.StackID)
		return nil
	case resp.Adopted:
		fmt.Fprintf(a.out, "%s Adopted existing git worktree %s\n", green("✓"), resp.Record.StackID)
	default:
		fmt.Fprintf(a.out, "%s Created worktree stack %s\n", green("✓"), resp.Record.StackID)
	}
	fmt.Fprintf(a.out, "  Branch:  %s (from %s)\n", resp.Record.WorktreeBranch, orDash(resp.Record.BaseBranch))
	fmt.Fprintf(a.out, "  XDebug:  port %d, key %s\n", resp.Record.XDebugPort, resp.Record.XDebugKey)
	return nil
}

// Remove stops and removes the worktree stack for branch.
func (a *WorktreeAdapter) Remove(ctx context.Context, baseStackID, branch string, force bool) error {
	resp, err := a.service.RemoveWorktree(ctx, primary.RemoveWorktreeRequest{
		BaseStackID: baseStackID,
		Branch:      branch,
		Force:       force,
	})
	if resp != nil {
		printSteps(a.out, resp.Steps)
	}
	if err != nil {
		return err
	}
	if resp.Cancelled {
		return apperr.Cancelled()
	}
	fmt.Fprintf(a.out, "%s Removed worktree stack for %s\n", green("✓"), branch)
	return nil
}

// Merge merges branch into its base branch and removes the worktree stack.
func (a *WorktreeAdapter) Merge(ctx context.Context, baseStackID, branch, workingDir string, assumeYes bool) error {
	resp, err := a.service.MergeWorktree(ctx, primary.MergeWorktreeRequest{
		BaseStackID: baseStackID,
		Branch:      branch,
		WorkingDir:  workingDir,
		AssumeYes:   assumeYes,
	})
	if resp != nil {
		printSteps(a.out, resp.Steps)
	}
	if err != nil {
		return err
	}
	if resp.Cancelled {
		return apperr.Cancelled()
	}
	if resp.CleanupOnly {
		fmt.Fprintf(a.out, "%s Worktree for %s was already gone; stack cleaned up, branch kept\n", green("✓"), branch)
		return nil
	}
	fmt.Fprintf(a.out, "%s Merged %s into %s\n", green("✓"), branch, resp.BaseBranch)
	return nil
}

// List prints the worktree stacks of a base stack.
func (a *WorktreeAdapter) List(ctx context.Context, baseStackID string) error {
	worktrees, err := a.service.ListWorktrees(ctx, baseStackID)
	if err != nil {
		return err
	}

	if len(worktrees) == 0 {
		fmt.Fprintf(a.out, "No worktree stacks for %s.\n", baseStackID)
		fmt.Fprintln(a.out, "Create one with: slic worktree add <branch>")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "BRANCH\tPATH\tSTATUS\tXDEBUG")
	for _, wt := range worktrees {
		path := wt.Record.StackID
		if !wt.DirExists {
			path += " " + red("(missing)")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			wt.Record.WorktreeBranch, path, statusText(wt.Record.Status), wt.Record.XDebugPort)
	}
	return w.Flush()
}
