// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/slic/internal/ports/secondary"
)

// JournalRepository implements secondary.OperationJournal with SQLite.
type JournalRepository struct {
	db *sql.DB
}

// NewJournalRepository creates a new SQLite operation journal.
func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Start opens a run for opKey. Runs of the same key left open by an earlier,
// interrupted process are closed as failed; their completed steps are returned.
func (r *JournalRepository) Start(ctx context.Context, opKey string) (string, map[string]bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE operation_runs SET status = 'failed', finished_at = CURRENT_TIMESTAMP WHERE op_key = ? AND status = 'running'`,
		opKey,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to close stale runs: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT s.step FROM step_outcomes s
		 JOIN operation_runs r ON r.id = s.run_id
		 WHERE s.op_key = ? AND s.outcome = ? AND r.status = 'failed'`,
		opKey, secondary.OutcomeDone,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load completed steps: %w", err)
	}
	completed := map[string]bool{}
	for rows.Next() {
		var step string
		if err := rows.Scan(&step); err != nil {
			rows.Close()
			return "", nil, fmt.Errorf("failed to scan completed step: %w", err)
		}
		completed[step] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return "", nil, fmt.Errorf("failed to load completed steps: %w", err)
	}
	rows.Close()

	runID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO operation_runs (id, op_key, status) VALUES (?, ?, 'running')`,
		runID, opKey,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, completed, nil
}

// RecordStep stores the outcome of one step of a run.
func (r *JournalRepository) RecordStep(ctx context.Context, runID, opKey string, outcome secondary.StepOutcome) error {
	var detail sql.NullString
	if outcome.Detail != "" {
		detail = sql.NullString{String: outcome.Detail, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO step_outcomes (run_id, op_key, step, outcome, detail) VALUES (?, ?, ?, ?, ?)`,
		runID, opKey, outcome.Step, outcome.Outcome, detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record step %s: %w", outcome.Step, err)
	}
	return nil
}

// Finish closes a run. On success every run of opKey is removed, so a later
// operation with the same key starts from scratch.
func (r *JournalRepository) Finish(ctx context.Context, runID, opKey string, succeeded bool) error {
	if succeeded {
		for _, stmt := range []string{
			`DELETE FROM step_outcomes WHERE op_key = ?`,
			`DELETE FROM operation_runs WHERE op_key = ?`,
		} {
			if _, err := r.db.ExecContext(ctx, stmt, opKey); err != nil {
				return fmt.Errorf("failed to clear journal for %s: %w", opKey, err)
			}
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE operation_runs SET status = 'failed', finished_at = CURRENT_TIMESTAMP WHERE id = ?`,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// History returns the recorded steps of the latest run for opKey, in order.
func (r *JournalRepository) History(ctx context.Context, opKey string) ([]secondary.StepOutcome, error) {
	var runID string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM operation_runs WHERE op_key = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		opKey,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest run: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT step, outcome, detail, recorded_at FROM step_outcomes WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var outcomes []secondary.StepOutcome
	for rows.Next() {
		var (
			o          secondary.StepOutcome
			detail     sql.NullString
			recordedAt sql.NullString
		)
		if err := rows.Scan(&o.Step, &o.Outcome, &detail, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		o.Detail = detail.String
		o.RecordedAt = recordedAt.String
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

var _ secondary.OperationJournal = (*JournalRepository)(nil)
