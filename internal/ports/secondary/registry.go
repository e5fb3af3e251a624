// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"

	"github.com/example/slic/internal/core/stack"
)

// StackRegistry defines the secondary port for the persisted stack map.
type StackRegistry interface {
	// List returns every record, sorted by stack id. A missing or unparsable
	// registry yields an empty list.
	List(ctx context.Context) []stack.Record

	// Get returns the record for id. A missing or unparsable registry yields false.
	Get(ctx context.Context, id string) (stack.Record, bool)

	// Register inserts or overwrites the record keyed by its StackID.
	Register(ctx context.Context, record stack.Record) error

	// Update merges patch into the existing record. It fails without writing
	// when id is not registered.
	Update(ctx context.Context, id string, patch stack.Patch) error

	// Unregister removes id. With cascade and a base stack it also removes every
	// worktree stack of that base. State files of removed records are deleted.
	// It returns the removed records.
	Unregister(ctx context.Context, id string, cascade bool) ([]stack.Record, error)

	// Check reports whether the registry file can be parsed.
	Check(ctx context.Context) error
}

// StateFiles defines the secondary port for per-stack KEY=value state files.
type StateFiles interface {
	// Path returns the state file location for a stack id.
	Path(stackID string) string

	// Read returns the values in the stack's state file. A missing file yields an empty map.
	Read(ctx context.Context, stackID string) (map[string]string, error)

	// Write merges values into the state file, or replaces its content when replace is set.
	Write(ctx context.Context, stackID string, values map[string]string, replace bool) error

	// Delete removes the state file. Deleting a missing file is not an error.
	Delete(ctx context.Context, stackID string) error
}
