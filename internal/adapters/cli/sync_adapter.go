package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/core/reconcile"
	"github.com/example/slic/internal/ports/primary"
)

// SyncAdapter translates the sync command into SyncService calls.
type SyncAdapter struct {
	service primary.SyncService
	out     io.Writer
}

// NewSyncAdapter creates a new SyncAdapter.
func NewSyncAdapter(service primary.SyncService, out io.Writer) *SyncAdapter {
	if out == nil {
		out = os.Stdout
	}
	return &SyncAdapter{service: service, out: out}
}

// Sync reports drift between the registry and git and, in clean mode, cleans it up.
func (a *SyncAdapter) Sync(ctx context.Context, baseStackID string, mode reconcile.Mode, assumeYes bool) error {
	resp, err := a.service.Sync(ctx, primary.SyncRequest{
		BaseStackID: baseStackID,
		Mode:        mode,
		AssumeYes:   assumeYes,
	})
	if resp == nil {
		return err
	}

	report := resp.Report
	if report.Clean() {
		fmt.Fprintf(a.out, "%s Registry and git worktrees are in sync\n", green("✓"))
		return err
	}

	if len(report.RegistryOrphans) > 0 {
		fmt.Fprintf(a.out, "Registered stacks without a worktree (%d):\n", len(report.RegistryOrphans))
		for _, o := range report.RegistryOrphans {
			fmt.Fprintf(a.out, "  %s %s [%s]: %s\n", yellow("!"), o.StackID, orDash(o.Branch), o.Reason)
		}
	}

	if len(report.GitOrphans) > 0 {
		fmt.Fprintf(a.out, "Git worktrees without a stack (%d):\n", len(report.GitOrphans))
		for _, o := range report.GitOrphans {
			line := fmt.Sprintf("  %s %s [%s]", yellow("!"), o.Path, orDash(o.Branch))
			if o.Prunable {
				line += faint(" (prunable)")
			}
			fmt.Fprintln(a.out, line)
			for _, cmd := range resp.Remediation[o.Path] {
				fmt.Fprintf(a.out, "      %s\n", cmd)
			}
		}
	}

	switch mode {
	case reconcile.ModeDryRun:
		if len(resp.Planned) > 0 {
			fmt.Fprintln(a.out, "Would run:")
			for _, name := range resp.Planned {
				fmt.Fprintf(a.out, "  %s\n", name)
			}
		}
	case reconcile.ModeClean:
		if resp.Cancelled {
			return apperr.Cancelled()
		}
		printSteps(a.out, resp.Steps)
		if err == nil && len(resp.Steps) > 0 {
			fmt.Fprintf(a.out, "%s Cleaned up %d orphaned stack(s)\n", green("✓"), len(report.RegistryOrphans))
		}
	default:
		if len(report.RegistryOrphans) > 0 {
			fmt.Fprintln(a.out, "Run 'slic worktree sync --clean' to unregister orphaned stacks.")
		}
	}
	return err
}
