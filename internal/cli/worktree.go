package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/slic/internal/core/reconcile"
	"github.com/example/slic/internal/wire"
)

// WorktreeCmd returns the worktree command
func WorktreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktree",
		Short: "Manage worktree stacks",
		Long: `Create and manage worktree stacks: a git worktree of the base stack's
target for one branch, registered as its own stack next to the base.

Run these commands from the base stack directory.`,
	}

	cmd.AddCommand(worktreeAddCmd())
	cmd.AddCommand(worktreeRemoveCmd())
	cmd.AddCommand(worktreeMergeCmd())
	cmd.AddCommand(worktreeListCmd())
	cmd.AddCommand(worktreeSyncCmd())

	return cmd
}

func worktreeAddCmd() *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "add <branch>",
		Short: "Create a worktree stack for a branch",
		Long: `Create a git worktree of the target for <branch> at <base>/<target>-<branch>
and register it as a stack.

A worktree git already has for the branch is adopted after confirmation.
Re-running after a failure skips the steps that already completed.

Examples:
  slic worktree add fix/login-redirect
  slic worktree add feature-x -y`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := currentStack(cmd, "")
			if err != nil {
				return err
			}
			return wire.WorktreeAdapter().Add(cmd.Context(), sc.StackID, args[0], assumeYes)
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func worktreeRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <branch>",
		Short: "Stop and remove a worktree stack",
		Long: `Stop the worktree stack's containers, remove its git worktree, unregister it
and delete its state file. Every step runs even if an earlier one fails.

Uncommitted changes in the worktree need confirmation unless -y is given.

Examples:
  slic worktree remove fix/login-redirect
  slic worktree remove feature-x -y`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := currentStack(cmd, "")
			if err != nil {
				return err
			}
			return wire.WorktreeAdapter().Remove(cmd.Context(), sc.StackID, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "yes", "y", false, "Remove even with uncommitted changes, without asking")
	return cmd
}

func worktreeMergeCmd() *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a worktree branch and remove its stack",
		Long: `Check out the base branch in the target repository, merge <branch> into it,
then remove the worktree, the branch and the worktree stack.

On a merge conflict nothing else is changed: resolve it, commit, and re-run.

Examples:
  slic worktree merge fix/login-redirect
  slic worktree merge feature-x -y`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := currentStack(cmd, "")
			if err != nil {
				return err
			}
			return wire.WorktreeAdapter().Merge(cmd.Context(), sc.StackID, args[0], sc.WorkingDir, assumeYes)
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func worktreeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the worktree stacks of the current stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := currentStack(cmd, "")
			if err != nil {
				return err
			}
			return wire.WorktreeAdapter().List(cmd.Context(), sc.StackID)
		},
	}
}

func worktreeSyncCmd() *cobra.Command {
	var dryRun, clean, all, assumeYes bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Compare registered worktree stacks with git",
		Long: `Report worktree stacks whose git worktree is gone, and git worktrees that
have no stack. With --clean the orphaned stacks are unregistered; git
worktrees are never touched, commands to fix them are printed instead.

Examples:
  slic worktree sync
  slic worktree sync --dry-run
  slic worktree sync --clean -y
  slic worktree sync --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			baseID := ""
			if !all {
				sc, err := currentStack(cmd, "")
				if err != nil {
					return err
				}
				baseID = sc.StackID
			}
			return wire.SyncAdapter().Sync(cmd.Context(), baseID, syncMode(dryRun, clean), assumeYes)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what --clean would do")
	cmd.Flags().BoolVar(&clean, "clean", false, "Unregister orphaned worktree stacks")
	cmd.Flags().BoolVar(&all, "all", false, "Check every registered base stack")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "clean")
	return cmd
}

func syncMode(dryRun, clean bool) reconcile.Mode {
	switch {
	case clean:
		return reconcile.ModeClean
	case dryRun:
		return reconcile.ModeDryRun
	default:
		return reconcile.ModeReport
	}
}
