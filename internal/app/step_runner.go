package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/slic/internal/core/effects"
	"github.com/example/slic/internal/ports/primary"
	"github.com/example/slic/internal/ports/secondary"
)

// resumedDetail marks a step skipped because an earlier run completed it.
const resumedDetail = "completed in an earlier run"

// StepRunner executes planned steps in order, applying each step's failure
// policy and recording every outcome in the operation journal.
type StepRunner struct {
	executor EffectExecutor
	journal  secondary.OperationJournal
	logger   *zap.Logger
}

// NewStepRunner creates a StepRunner. journal may be nil.
func NewStepRunner(executor EffectExecutor, journal secondary.OperationJournal, logger *zap.Logger) *StepRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StepRunner{executor: executor, journal: journal, logger: logger}
}

// RunResult is the outcome of a step sequence.
type RunResult struct {
	Steps []primary.StepReport

	// HaltedAt is the Halt step that failed, and Err its error. Later steps are pending.
	HaltedAt string
	Err      error
}

// Failed reports whether any step failed.
func (r RunResult) Failed() bool {
	for _, s := range r.Steps {
		if s.Outcome == secondary.OutcomeFailed {
			return true
		}
	}
	return false
}

// FailureSummary joins the failed steps into one error, or returns nil.
func (r RunResult) FailureSummary() error {
	var errs []error
	for _, s := range r.Steps {
		if s.Outcome == secondary.OutcomeFailed {
			errs = append(errs, fmt.Errorf("%s: %s", s.Name, s.Detail))
		}
	}
	return errors.Join(errs...)
}

// Run executes steps for the operation identified by opKey.
func (r *StepRunner) Run(ctx context.Context, opKey string, steps []effects.Step) RunResult {
	logger := r.logger.With(zap.String("op", opKey))

	runID, completed := r.start(ctx, logger, opKey)

	var result RunResult
	for _, step := range steps {
		report := primary.StepReport{Name: step.Name}

		switch {
		case result.HaltedAt != "":
			report.Outcome = secondary.OutcomePending
		case completed[step.Name] && r.stillDone(ctx, logger, step):
			report.Outcome = secondary.OutcomeSkipped
			report.Detail = resumedDetail
			// Journaled as done so a further retry still skips it.
			r.record(ctx, logger, runID, opKey, secondary.StepOutcome{
				Step: step.Name, Outcome: secondary.OutcomeDone, Detail: resumedDetail,
			})
		default:
			started := time.Now()
			detail, err := r.execute(ctx, step)
			report.Detail = detail
			if err != nil {
				report.Outcome = secondary.OutcomeFailed
				report.Detail = err.Error()
				if step.Policy == effects.Halt {
					result.HaltedAt = step.Name
					result.Err = err
				}
			} else {
				report.Outcome = secondary.OutcomeDone
			}
			logger.Info("step finished",
				zap.String("step", step.Name),
				zap.String("outcome", report.Outcome),
				zap.Duration("duration", time.Since(started)),
				zap.Error(err),
			)
		}

		if report.Outcome != secondary.OutcomeSkipped {
			r.record(ctx, logger, runID, opKey, secondary.StepOutcome{
				Step: report.Name, Outcome: report.Outcome, Detail: report.Detail,
			})
		}
		result.Steps = append(result.Steps, report)
	}

	// Best-effort failures do not leave the operation open for resumption.
	r.finish(ctx, logger, runID, opKey, result.HaltedAt == "")
	return result
}

// stillDone reports whether a step journaled as done by an earlier run can be
// skipped. Steps without a Verify effect always run again.
func (r *StepRunner) stillDone(ctx context.Context, logger *zap.Logger, step effects.Step) bool {
	if step.Verify == nil {
		return false
	}
	if err := r.executor.Execute(ctx, step.Verify); err != nil {
		logger.Info("journaled step no longer holds, running it again",
			zap.String("step", step.Name), zap.Error(err))
		return false
	}
	return true
}

func (r *StepRunner) execute(ctx context.Context, step effects.Step) (string, error) {
	err := r.executor.Execute(ctx, step.Effect)
	if err == nil || step.Fallback == nil {
		return "", err
	}

	if ferr := r.executor.Execute(ctx, step.Fallback); ferr != nil {
		return "", fmt.Errorf("%w (fallback %s failed: %v)", err, step.Fallback.EffectType(), ferr)
	}
	return fmt.Sprintf("fallback %s used after: %v", step.Fallback.EffectType(), err), nil
}

func (r *StepRunner) start(ctx context.Context, logger *zap.Logger, opKey string) (string, map[string]bool) {
	if r.journal == nil {
		return "", nil
	}
	earlier := r.earlierOutcomes(ctx, logger, opKey)
	runID, completed, err := r.journal.Start(ctx, opKey)
	if err != nil {
		logger.Warn("operation journal unavailable, steps will not be resumable", zap.Error(err))
		return "", nil
	}
	if len(completed) > 0 {
		logger.Info("resuming earlier run",
			zap.Int("completed_steps", len(completed)),
			zap.Strings("earlier_outcomes", earlier))
	}
	return runID, completed
}

// earlierOutcomes lists the latest run of opKey as step=outcome pairs.
func (r *StepRunner) earlierOutcomes(ctx context.Context, logger *zap.Logger, opKey string) []string {
	history, err := r.journal.History(ctx, opKey)
	if err != nil {
		logger.Debug("failed to read journal history", zap.Error(err))
		return nil
	}
	pairs := make([]string, 0, len(history))
	for _, h := range history {
		pairs = append(pairs, h.Step+"="+h.Outcome)
	}
	return pairs
}

func (r *StepRunner) record(ctx context.Context, logger *zap.Logger, runID, opKey string, outcome secondary.StepOutcome) {
	if r.journal == nil || runID == "" {
		return
	}
	if err := r.journal.RecordStep(ctx, runID, opKey, outcome); err != nil {
		logger.Warn("failed to journal step", zap.String("step", outcome.Step), zap.Error(err))
	}
}

func (r *StepRunner) finish(ctx context.Context, logger *zap.Logger, runID, opKey string, succeeded bool) {
	if r.journal == nil || runID == "" {
		return
	}
	if err := r.journal.Finish(ctx, runID, opKey, succeeded); err != nil {
		logger.Warn("failed to close journal run", zap.Error(err))
	}
}
