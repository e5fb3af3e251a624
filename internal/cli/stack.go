package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/wire"
)

// StackCmd returns the stack command
func StackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Manage registered stacks",
		Long: `Register directories as stacks and inspect or stop them.

Commands that take an optional <path> default to the stack containing the
current directory.`,
	}

	cmd.AddCommand(stackListCmd())
	cmd.AddCommand(stackStopCmd())
	cmd.AddCommand(stackInfoCmd())
	cmd.AddCommand(stackRegisterCmd())
	cmd.AddCommand(stackUnregisterCmd())
	cmd.AddCommand(stackTargetCmd())
	cmd.AddCommand(stackXDebugCmd())
	cmd.AddCommand(stackPortsCmd())

	return cmd
}

func stackListCmd() *cobra.Command {
	var refreshPorts bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered stacks",
		Long: `List every registered stack with its status, target, XDebug port and ports.

Examples:
  slic stack list
  slic stack list --ports    # query the container engine for current ports first`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.StackAdapter().List(cmd.Context(), refreshPorts)
		},
	}

	cmd.Flags().BoolVar(&refreshPorts, "ports", false, "Refresh published ports before listing")
	return cmd
}

func stackStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop [<path>|all]",
		Short: "Stop a stack's containers",
		Long: `Stop the containers of one stack, or of every stack with 'all'.
Worktree stacks are stopped before their base stack.

Examples:
  slic stack stop
  slic stack stop ~/sites/wp/tec-fix
  slic stack stop all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if optionalArg(args, 0) == "all" {
				return wire.StackAdapter().StopAll(cmd.Context())
			}
			sc, err := currentStack(cmd, optionalArg(args, 0))
			if err != nil {
				return err
			}
			return wire.StackAdapter().Stop(cmd.Context(), sc.StackID)
		},
	}
}

func stackInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [<path>]",
		Short: "Show stack details",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := currentStack(cmd, optionalArg(args, 0))
			if err != nil {
				return err
			}
			return wire.StackAdapter().Info(cmd.Context(), sc.StackID)
		},
	}
}

func stackRegisterCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "register [<path>]",
		Short: "Register a directory as a stack",
		Long: `Register a directory (default: the current directory) as a base stack.
Registering an already registered directory is a no-op, or a target switch
when --target names a different target.

Examples:
  slic stack register
  slic stack register ~/sites/wp --target the-events-calendar`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.StackAdapter().Register(cmd.Context(), optionalArg(args, 0), target)
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Target subdirectory (the plugin or theme under development)")
	return cmd
}

func stackUnregisterCmd() *cobra.Command {
	var cascade bool
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "unregister [<path>]",
		Short: "Remove a stack from the registry",
		Long: `Remove a stack from the registry and delete its state file. Directories
and containers are left alone.

A base stack with worktree stacks can only be unregistered with --cascade,
which removes the worktree stacks too.

Examples:
  slic stack unregister
  slic stack unregister ~/sites/wp --cascade -y`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := currentStack(cmd, optionalArg(args, 0))
			if err != nil {
				return err
			}

			question := fmt.Sprintf("Unregister %s?", sc.StackID)
			if cascade {
				question = fmt.Sprintf("Unregister %s and its worktree stacks?", sc.StackID)
			}
			ok, err := confirm(cmd, assumeYes, question)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Cancelled()
			}
			return wire.StackAdapter().Unregister(cmd.Context(), sc.StackID, cascade)
		},
	}

	cmd.Flags().BoolVar(&cascade, "cascade", false, "Also unregister the stack's worktree stacks")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func stackTargetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "target <name> [<path>]",
		Short: "Switch the stack's target",
		Long: `Switch the target of a base stack. The target must be an existing
subdirectory of the stack directory.

Examples:
  slic stack target event-tickets`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := currentStack(cmd, optionalArg(args, 1))
			if err != nil {
				return err
			}
			return wire.StackAdapter().Target(cmd.Context(), sc.StackID, args[0])
		},
	}
}

func stackXDebugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "xdebug [<path>]",
		Short: "Show the stack's XDebug port and key",
		Long: `Recompute the stack's XDebug port and IDE key from its directory,
store them and print them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := currentStack(cmd, optionalArg(args, 0))
			if err != nil {
				return err
			}
			return wire.StackAdapter().XDebug(cmd.Context(), sc.StackID)
		},
	}
}

func stackPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports [<path>]",
		Short: "Refresh and show the stack's published ports",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := currentStack(cmd, optionalArg(args, 0))
			if err != nil {
				return err
			}
			return wire.StackAdapter().Ports(cmd.Context(), sc.StackID)
		},
	}
}
