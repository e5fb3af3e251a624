// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the CLI drives the application.
package primary

import (
	"context"

	"github.com/example/slic/internal/core/stack"
)

// StackService defines the primary port for stack registry operations.
type StackService interface {
	// ResolveStack maps a filesystem path to a registered stack id.
	ResolveStack(ctx context.Context, path string) (string, error)

	// ListStacks lists registered stacks, optionally refreshing their ports first.
	ListStacks(ctx context.Context, req ListStacksRequest) (*ListStacksResponse, error)

	// GetStack returns a stack with its worktrees and state file location.
	GetStack(ctx context.Context, stackID string) (*StackInfo, error)

	// StopStack stops one stack's containers and marks it stopped.
	StopStack(ctx context.Context, stackID string) error

	// StopAll stops every stack, worktrees before their base.
	StopAll(ctx context.Context) (*StopAllResponse, error)

	// RegisterStack adopts a directory as a base stack.
	RegisterStack(ctx context.Context, req RegisterStackRequest) (*stack.Record, error)

	// UnregisterStack removes a stack, and with Cascade its worktree stacks.
	UnregisterStack(ctx context.Context, req UnregisterStackRequest) (*UnregisterStackResponse, error)

	// SetTarget switches the stack's target.
	SetTarget(ctx context.Context, stackID, target string) error

	// RefreshXDebug recomputes and stores the stack's XDebug port and key.
	RefreshXDebug(ctx context.Context, stackID string) (*stack.Record, error)

	// RefreshPorts queries the container engine and stores the stack's ports.
	RefreshPorts(ctx context.Context, stackID string) (map[string]int, error)
}

// ListStacksRequest contains parameters for listing stacks.
type ListStacksRequest struct {
	RefreshPorts bool
}

// ListStacksResponse contains the listed stacks.
type ListStacksResponse struct {
	Stacks   []stack.Record
	Warnings []string // e.g. unparsable registry, failed port refreshes
}

// StackInfo describes one stack.
type StackInfo struct {
	Record        stack.Record
	StateFilePath string
	Worktrees     []stack.Record
	DirExists     bool
}

// StopAllResponse reports per-stack stop outcomes in execution order.
type StopAllResponse struct {
	Results []StopResult
}

// StopResult is the outcome of stopping one stack.
type StopResult struct {
	StackID string
	Err     error
}

// RegisterStackRequest contains parameters for adopting a directory.
type RegisterStackRequest struct {
	Path   string
	Target string // Optional
}

// UnregisterStackRequest contains parameters for removing a stack.
type UnregisterStackRequest struct {
	StackID string
	Cascade bool
}

// UnregisterStackResponse lists the stacks that were removed.
type UnregisterStackResponse struct {
	Removed []string
}
