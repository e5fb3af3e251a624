// Package context resolves the stack a command operates on. The result is a plain
// value that commands pass to the services; nothing is kept in process state.
package context

import (
	gocontext "context"
	"fmt"

	"github.com/example/slic/internal/core/stack"
	"github.com/example/slic/internal/ports/secondary"
)

// StackResolver maps a path to the registered stack owning it.
type StackResolver interface {
	ResolveStack(ctx gocontext.Context, path string) (string, error)
}

// StackContext is the stack a command runs against.
type StackContext struct {
	// WorkingDir is the resolved directory the command was started in.
	WorkingDir string
	// Path is the resolved path the stack was looked up from (an explicit
	// argument, or WorkingDir).
	Path string
	// StackID is the registered stack owning Path.
	StackID string
}

// Detect resolves the stack for path, or for the working directory when path is empty.
func Detect(ctx gocontext.Context, ws secondary.Workspace, resolver StackResolver, path string) (*StackContext, error) {
	wd, err := ws.WorkingDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	lookup := wd
	if path != "" {
		if lookup, err = ws.ResolvePath(path); err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
	}

	id, err := resolver.ResolveStack(ctx, lookup)
	if err != nil {
		return nil, err
	}
	return &StackContext{WorkingDir: wd, Path: lookup, StackID: id}, nil
}

// InsideStackDir reports whether the working directory is the stack directory or below it.
func (c *StackContext) InsideStackDir() bool {
	if c == nil || c.StackID == "" {
		return false
	}
	return c.WorkingDir == c.StackID || stack.IsWithin(c.StackID, c.WorkingDir)
}
