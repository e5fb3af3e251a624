package secondary

import "context"

// Workspace defines the secondary port for filesystem queries and path resolution.
type Workspace interface {
	// ResolvePath expands a leading ~, makes the path absolute and resolves symlinks.
	// Paths that do not exist yet are returned absolute but otherwise unresolved.
	ResolvePath(path string) (string, error)

	// WorkingDir returns the resolved current working directory.
	WorkingDir() (string, error)

	PathExists(ctx context.Context, path string) bool
	DirectoryExists(ctx context.Context, path string) bool
	RemoveDirectory(ctx context.Context, path string) error
}
