package primary

import (
	"context"

	"github.com/example/slic/internal/core/reconcile"
)

// SyncService defines the primary port for registry/git reconciliation.
type SyncService interface {
	// Sync detects orphans and, in clean mode, cleans up orphaned registry entries.
	Sync(ctx context.Context, req SyncRequest) (*SyncResponse, error)
}

// SyncRequest contains parameters for a sync run.
type SyncRequest struct {
	BaseStackID string // empty checks every base stack
	Mode        reconcile.Mode
	AssumeYes   bool
}

// SyncResponse contains the findings and, for dry-run and clean, the cleanup steps.
type SyncResponse struct {
	Report      reconcile.Report
	Remediation map[string][]string // git orphan path -> commands
	Planned     []string
	Steps       []StepReport
	Cancelled   bool
}
