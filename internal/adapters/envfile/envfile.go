// Package envfile stores per-stack state as KEY=value files named after the stack hash.
package envfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
	"github.com/subosito/gotenv"

	"github.com/example/slic/internal/core/stack"
	"github.com/example/slic/internal/ports/secondary"
)

// Store implements secondary.StateFiles under a single directory.
type Store struct {
	dir string
}

// New creates a state file store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns <dir>/<hash>.env for the stack.
func (s *Store) Path(stackID string) string {
	return filepath.Join(s.dir, stack.StateFileName(stackID))
}

// Read parses the stack's state file.
func (s *Store) Read(ctx context.Context, stackID string) (map[string]string, error) {
	return readFile(s.Path(stackID))
}

// Write merges values into the state file, or replaces it when replace is set.
// The file is replaced atomically.
func (s *Store) Write(ctx context.Context, stackID string, values map[string]string, replace bool) error {
	path := s.Path(stackID)

	env := gotenv.Env{}
	if !replace {
		existing, err := readFile(path)
		if err != nil {
			return err
		}
		for k, v := range existing {
			env[k] = v
		}
	}
	for k, v := range values {
		env[k] = v
	}

	content, err := gotenv.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode state file %s: %w", path, err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := atomicwriter.WriteFile(path, []byte(content+"\n"), 0644); err != nil {
		return fmt.Errorf("write state file %s: %w", path, err)
	}
	return nil
}

// Delete removes the stack's state file.
func (s *Store) Delete(ctx context.Context, stackID string) error {
	err := os.Remove(s.Path(stackID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete state file: %w", err)
	}
	return nil
}

func readFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}
	defer f.Close()

	env, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	return env, nil
}

var _ secondary.StateFiles = (*Store)(nil)
