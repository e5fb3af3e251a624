// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/example/slic/internal/ports/secondary"
)

// WorkspaceAdapter implements secondary.Workspace on the local filesystem.
type WorkspaceAdapter struct {
	getwd func() (string, error)
}

// NewWorkspaceAdapter creates a new filesystem workspace adapter.
func NewWorkspaceAdapter() *WorkspaceAdapter {
	return &WorkspaceAdapter{getwd: os.Getwd}
}

// ResolvePath expands ~, makes path absolute and resolves symlinks. When the
// path does not exist yet the absolute, cleaned form is returned.
func (a *WorkspaceAdapter) ResolvePath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// WorkingDir returns the resolved current working directory.
func (a *WorkspaceAdapter) WorkingDir() (string, error) {
	wd, err := a.getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return a.ResolvePath(wd)
}

// PathExists reports whether anything exists at path.
func (a *WorkspaceAdapter) PathExists(ctx context.Context, path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirectoryExists checks if a directory exists.
func (a *WorkspaceAdapter) DirectoryExists(ctx context.Context, path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// RemoveDirectory removes a directory and all contents.
func (a *WorkspaceAdapter) RemoveDirectory(ctx context.Context, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove directory: %w", err)
	}
	return nil
}

// Ensure WorkspaceAdapter implements the interface
var _ secondary.Workspace = (*WorkspaceAdapter)(nil)
