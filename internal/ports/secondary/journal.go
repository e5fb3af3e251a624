package secondary

import "context"

// Step outcomes recorded in the journal.
const (
	OutcomeDone    = "done"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
	OutcomePending = "pending"
)

// OperationJournal defines the secondary port for recording multi-step operation runs.
// opKey identifies the operation and its subject, e.g. "worktree-add:/a/plugins/tec-x".
type OperationJournal interface {
	// Start opens a run and returns its id together with the steps that completed
	// in earlier unfinished runs of the same opKey.
	Start(ctx context.Context, opKey string) (runID string, completed map[string]bool, err error)

	// RecordStep stores the outcome of one step.
	RecordStep(ctx context.Context, runID, opKey string, outcome StepOutcome) error

	// Finish closes the run. A successful run clears the opKey's step history.
	Finish(ctx context.Context, runID, opKey string, succeeded bool) error

	// History returns the recorded steps of the latest run for opKey.
	History(ctx context.Context, opKey string) ([]StepOutcome, error)
}

// StepOutcome is one recorded step result.
type StepOutcome struct {
	Step       string
	Outcome    string
	Detail     string
	RecordedAt string
}
