package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/example/slic/internal/ports/primary"
)

// StackAdapter translates stack commands into StackService calls.
type StackAdapter struct {
	service primary.StackService
	out     io.Writer
}

// NewStackAdapter creates a new StackAdapter.
func NewStackAdapter(service primary.StackService, out io.Writer) *StackAdapter {
	if out == nil {
		out = os.Stdout
	}
	return &StackAdapter{service: service, out: out}
}

// Resolve maps a path to its registered stack id.
func (a *StackAdapter) Resolve(ctx context.Context, path string) (string, error) {
	return a.service.ResolveStack(ctx, path)
}

// List prints every registered stack.
func (a *StackAdapter) List(ctx context.Context, refreshPorts bool) error {
	resp, err := a.service.ListStacks(ctx, primary.ListStacksRequest{RefreshPorts: refreshPorts})
	if err != nil {
		return err
	}

	for _, w := range resp.Warnings {
		fmt.Fprintf(a.out, "%s %s\n", yellow("!"), w)
	}

	if len(resp.Stacks) == 0 {
		fmt.Fprintln(a.out, "No stacks registered.")
		fmt.Fprintln(a.out, "Register one with: cd <dir> && slic stack register")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STACK\tSTATUS\tTARGET\tXDEBUG\tPORTS")
	for _, r := range resp.Stacks {
		id := r.StackID
		if r.IsWorktree {
			id = "  ↳ " + id
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			id, statusText(r.Status), orDash(r.Target), r.XDebugPort, portsText(r.Ports))
	}
	return w.Flush()
}

// Info prints one stack's details.
func (a *StackAdapter) Info(ctx context.Context, stackID string) error {
	info, err := a.service.GetStack(ctx, stackID)
	if err != nil {
		return err
	}
	r := info.Record

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Stack:\t%s\n", r.StackID)
	fmt.Fprintf(w, "Status:\t%s\n", statusText(r.Status))
	fmt.Fprintf(w, "Project:\t%s\n", r.ProjectName)
	fmt.Fprintf(w, "Target:\t%s\n", orDash(r.Target))
	fmt.Fprintf(w, "XDebug:\tport %d, key %s\n", r.XDebugPort, r.XDebugKey)
	fmt.Fprintf(w, "Ports:\t%s\n", portsText(r.Ports))
	fmt.Fprintf(w, "State file:\t%s\n", info.StateFilePath)
	fmt.Fprintf(w, "Created:\t%s\n", orDash(r.CreatedAt))
	if r.IsWorktree {
		fmt.Fprintf(w, "Base stack:\t%s\n", r.BaseStackID)
		fmt.Fprintf(w, "Branch:\t%s (from %s)\n", r.WorktreeBranch, orDash(r.BaseBranch))
	}
	if !info.DirExists {
		fmt.Fprintf(w, "Directory:\t%s\n", red("missing"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(info.Worktrees) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Worktrees:")
		for _, wt := range info.Worktrees {
			fmt.Fprintf(a.out, "  %s  %s  %s\n", wt.WorktreeBranch, wt.StackID, statusText(wt.Status))
		}
	}
	return nil
}

// Stop stops one stack.
func (a *StackAdapter) Stop(ctx context.Context, stackID string) error {
	if err := a.service.StopStack(ctx, stackID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Stopped %s\n", green("✓"), stackID)
	return nil
}

// StopAll stops every stack and reports each outcome.
func (a *StackAdapter) StopAll(ctx context.Context) error {
	resp, err := a.service.StopAll(ctx)
	if err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(a.out, "No stacks registered.")
		return nil
	}

	failed := 0
	for _, res := range resp.Results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(a.out, "%s %s: %v\n", red("✗"), res.StackID, res.Err)
			continue
		}
		fmt.Fprintf(a.out, "%s Stopped %s\n", green("✓"), res.StackID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d stacks failed to stop", failed, len(resp.Results))
	}
	return nil
}

// Register adopts a directory as a stack.
func (a *StackAdapter) Register(ctx context.Context, path, target string) error {
	record, err := a.service.RegisterStack(ctx, primary.RegisterStackRequest{Path: path, Target: target})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s Registered stack %s\n", green("✓"), record.StackID)
	fmt.Fprintf(a.out, "  Project: %s\n", record.ProjectName)
	fmt.Fprintf(a.out, "  XDebug:  port %d, key %s\n", record.XDebugPort, record.XDebugKey)
	if record.Target != "" {
		fmt.Fprintf(a.out, "  Target:  %s\n", record.Target)
	}
	return nil
}

// Unregister removes a stack, and optionally its worktree stacks.
func (a *StackAdapter) Unregister(ctx context.Context, stackID string, cascade bool) error {
	resp, err := a.service.UnregisterStack(ctx, primary.UnregisterStackRequest{StackID: stackID, Cascade: cascade})
	if err != nil {
		return err
	}
	for _, id := range resp.Removed {
		fmt.Fprintf(a.out, "%s Unregistered %s\n", green("✓"), id)
	}
	return nil
}

// Target switches the stack's target.
func (a *StackAdapter) Target(ctx context.Context, stackID, target string) error {
	if err := a.service.SetTarget(ctx, stackID, target); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Target of %s set to %s\n", green("✓"), stackID, target)
	return nil
}

// XDebug recomputes and prints the stack's XDebug settings.
func (a *StackAdapter) XDebug(ctx context.Context, stackID string) error {
	record, err := a.service.RefreshXDebug(ctx, stackID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "XDebug port: %d\n", record.XDebugPort)
	fmt.Fprintf(a.out, "XDebug key:  %s\n", record.XDebugKey)
	return nil
}

// Ports refreshes and prints the stack's published ports.
func (a *StackAdapter) Ports(ctx context.Context, stackID string) error {
	ports, err := a.service.RefreshPorts(ctx, stackID)
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintf(a.out, "No published ports for %s (containers down?)\n", stackID)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tPORT")
	for _, p := range sortedPorts(ports) {
		fmt.Fprintf(w, "%s\t%d\n", p.service, p.port)
	}
	return w.Flush()
}
