package db

// SchemaSQL is the complete schema of the operation journal after all migrations.
//
// Tests load it through GetSchemaSQL so repository code and schema cannot drift.
// When adding a column or table, add a migration in migrations.go and update
// SchemaSQL to match.
const SchemaSQL = `
-- One row per attempt of a multi-step operation (worktree add/remove/merge, sync clean)
CREATE TABLE IF NOT EXISTS operation_runs (
	id TEXT PRIMARY KEY,
	op_key TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'running' CHECK (status IN ('running', 'succeeded', 'failed')),
	started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_operation_runs_op_key ON operation_runs(op_key);

-- Outcome of every step a run attempted
CREATE TABLE IF NOT EXISTS step_outcomes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES operation_runs(id) ON DELETE CASCADE,
	op_key TEXT NOT NULL,
	step TEXT NOT NULL,
	outcome TEXT NOT NULL CHECK (outcome IN ('done', 'failed', 'skipped', 'pending')),
	detail TEXT,
	recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_step_outcomes_op_key ON step_outcomes(op_key, step);
`

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
func GetSchemaSQL() string {
	return SchemaSQL
}
