// Package cli defines slic's cobra command tree.
package cli

import (
	"github.com/spf13/cobra"

	cliadapter "github.com/example/slic/internal/adapters/cli"
	"github.com/example/slic/internal/config"
	slicctx "github.com/example/slic/internal/context"
	"github.com/example/slic/internal/version"
	"github.com/example/slic/internal/wire"
)

// RootCmd returns the slic root command with every subcommand attached.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "slic",
		Short:   "Local WordPress stacks and their git worktrees",
		Version: version.String(),
		Long: `slic manages local development stacks: one directory per stack, each with
its own container project, XDebug port and state file. Worktree stacks give a
branch its own directory and stack next to the base stack it came from.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(wire.Settings(), cmd.Root().PersistentFlags()); err != nil {
				return err
			}
			return wire.Init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			wire.Close()
		},
	}

	cmd.PersistentFlags().String("root", "", "slic data directory (default ~/.slic)")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default warn)")

	cmd.AddCommand(StackCmd())
	cmd.AddCommand(WorktreeCmd())

	return cmd
}

// currentStack resolves the stack for path, or for the working directory when path is empty.
func currentStack(cmd *cobra.Command, path string) (*slicctx.StackContext, error) {
	return slicctx.Detect(cmd.Context(), wire.Workspace(), wire.StackService(), path)
}

// confirm asks a yes/no question unless assumeYes is set.
func confirm(cmd *cobra.Command, assumeYes bool, question string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	return cliadapter.NewTerminalPrompter().Confirm(cmd.Context(), question)
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}
