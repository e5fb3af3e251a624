// Package registry persists the stack map as one pretty-printed JSON document.
//
// Every mutation is a transaction: load the whole file, mutate the map, replace
// the file atomically. There is no cross-process locking; concurrent writers can
// lose updates but never leave a partially written file.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/moby/sys/atomicwriter"
	"go.uber.org/zap"

	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/core/stack"
	"github.com/example/slic/internal/ports/secondary"
)

// Store implements secondary.StackRegistry on a JSON file.
type Store struct {
	path   string
	states secondary.StateFiles
	logger *zap.Logger
}

// New creates a registry store. states is used to delete the state files of
// unregistered stacks.
func New(path string, states secondary.StateFiles, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, states: states, logger: logger}
}

// Path returns the registry file location.
func (s *Store) Path() string {
	return s.path
}

// List returns all records sorted by stack id.
func (s *Store) List(ctx context.Context) []stack.Record {
	stacks, err := s.load()
	if err != nil {
		s.logger.Warn("registry unreadable, treating as empty", zap.String("path", s.path), zap.Error(err))
		return []stack.Record{}
	}

	records := make([]stack.Record, 0, len(stacks))
	for _, r := range stacks {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StackID < records[j].StackID })
	return records
}

// Get returns the record for id.
func (s *Store) Get(ctx context.Context, id string) (stack.Record, bool) {
	stacks, err := s.load()
	if err != nil {
		s.logger.Warn("registry unreadable, treating as empty", zap.String("path", s.path), zap.Error(err))
		return stack.Record{}, false
	}
	r, ok := stacks[id]
	return r, ok
}

// Register inserts or overwrites record.
func (s *Store) Register(ctx context.Context, record stack.Record) error {
	if record.StackID == "" {
		return apperr.UserInput("cannot register a stack without an id")
	}

	return s.Transact(ctx, func(stacks map[string]stack.Record) (bool, error) {
		if record.IsWorktree {
			base, ok := stacks[record.BaseStackID]
			if !ok {
				return false, apperr.NotFound("base stack %s is not registered", record.BaseStackID)
			}
			if base.IsWorktree {
				return false, apperr.UserInput("base stack %s is itself a worktree stack", record.BaseStackID)
			}
		}
		stacks[record.StackID] = record
		return true, nil
	})
}

// Update merges patch into the record for id. Nothing is written when id is absent.
func (s *Store) Update(ctx context.Context, id string, patch stack.Patch) error {
	return s.Transact(ctx, func(stacks map[string]stack.Record) (bool, error) {
		r, ok := stacks[id]
		if !ok {
			return false, apperr.NotFound("no stack registered for %s", id)
		}
		patch.Apply(&r)
		stacks[id] = r
		return true, nil
	})
}

// Unregister removes id, and with cascade every worktree stack based on it.
// State files of removed stacks are deleted after the registry is written.
func (s *Store) Unregister(ctx context.Context, id string, cascade bool) ([]stack.Record, error) {
	var removed []stack.Record

	err := s.Transact(ctx, func(stacks map[string]stack.Record) (bool, error) {
		r, ok := stacks[id]
		if !ok {
			return false, apperr.NotFound("no stack registered for %s", id)
		}
		removed = append(removed, r)
		delete(stacks, id)

		if cascade && !r.IsWorktree {
			for key, child := range stacks {
				if child.IsWorktree && child.BaseStackID == id {
					removed = append(removed, child)
					delete(stacks, key)
				}
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(removed, func(i, j int) bool { return removed[i].StackID < removed[j].StackID })

	var errs []error
	if s.states != nil {
		for _, r := range removed {
			if err := s.states.Delete(ctx, r.StackID); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", r.StackID, err))
			}
		}
	}
	if len(errs) > 0 {
		return removed, fmt.Errorf("unregistered, but some state files remain: %w", errors.Join(errs...))
	}
	return removed, nil
}

// Check reports whether the registry file parses.
func (s *Store) Check(ctx context.Context) error {
	_, err := s.load()
	return err
}

// Transact loads the registry, applies fn and, if fn reports a change, replaces the
// file atomically. A corrupt registry fails the transaction before fn runs.
func (s *Store) Transact(ctx context.Context, fn func(stacks map[string]stack.Record) (bool, error)) error {
	stacks, err := s.load()
	if err != nil {
		return err
	}

	changed, err := fn(stacks)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(stacks)
}

func (s *Store) load() (map[string]stack.Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]stack.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]stack.Record{}, nil
	}

	stacks := map[string]stack.Record{}
	if err := json.Unmarshal(data, &stacks); err != nil {
		return nil, apperr.CorruptState(fmt.Sprintf("cannot parse registry %s", s.path), err)
	}
	if stacks == nil {
		stacks = map[string]stack.Record{}
	}
	return stacks, nil
}

func (s *Store) save(stacks map[string]stack.Record) error {
	data, err := json.MarshalIndent(stacks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	if err := atomicwriter.WriteFile(s.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}

	s.logger.Debug("registry written", zap.String("path", s.path), zap.Int("stacks", len(stacks)))
	return nil
}

var _ secondary.StackRegistry = (*Store)(nil)
