package app

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/core/reconcile"
	"github.com/example/slic/internal/core/stack"
	"github.com/example/slic/internal/ports/primary"
	"github.com/example/slic/internal/ports/secondary"
)

const opSyncClean = "sync-clean"

// SyncServiceImpl implements the SyncService interface.
type SyncServiceImpl struct {
	registry  secondary.StackRegistry
	git       secondary.Git
	workspace secondary.Workspace
	prompter  secondary.Prompter
	runner    *StepRunner
	logger    *zap.Logger
}

// NewSyncService creates a new SyncService with injected dependencies.
func NewSyncService(
	registry secondary.StackRegistry,
	git secondary.Git,
	workspace secondary.Workspace,
	prompter secondary.Prompter,
	runner *StepRunner,
	logger *zap.Logger,
) *SyncServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncServiceImpl{
		registry:  registry,
		git:       git,
		workspace: workspace,
		prompter:  prompter,
		runner:    runner,
		logger:    logger,
	}
}

// Sync compares the registry with git's worktree lists. Registry orphans are
// unregistered in clean mode; git orphans are only reported with remediation commands.
func (s *SyncServiceImpl) Sync(ctx context.Context, req primary.SyncRequest) (*primary.SyncResponse, error) {
	// An unreadable registry would make every git worktree look orphaned.
	if err := s.registry.Check(ctx); err != nil {
		return nil, err
	}

	records, bases, err := s.scope(ctx, req.BaseStackID)
	if err != nil {
		return nil, err
	}

	input := reconcile.Input{
		Records:    records,
		PathExists: make(map[string]bool),
		Bases:      make(map[string]reconcile.BaseWorktrees),
	}
	for _, r := range records {
		if !r.IsWorktree {
			continue
		}
		path := r.WorktreeFullPath
		if path == "" {
			path = r.StackID
		}
		input.PathExists[path] = s.workspace.PathExists(ctx, path)
	}
	for _, base := range bases {
		input.Bases[base.StackID] = s.listBase(ctx, base, records)
	}

	resp := &primary.SyncResponse{
		Report:      reconcile.Detect(input),
		Remediation: make(map[string][]string),
	}
	for _, o := range resp.Report.GitOrphans {
		resp.Remediation[o.Path] = reconcile.Remediation(o)
	}

	if req.Mode == reconcile.ModeReport || req.Mode == "" {
		return resp, nil
	}

	steps := reconcile.PlanCleanup(resp.Report)
	for _, step := range steps {
		resp.Planned = append(resp.Planned, step.Name)
	}
	if req.Mode == reconcile.ModeDryRun || len(steps) == 0 {
		return resp, nil
	}

	if !req.AssumeYes {
		ok, err := s.prompter.Confirm(ctx, fmt.Sprintf(
			"Unregister %d orphaned stack(s) and delete their state files?", len(resp.Report.RegistryOrphans)))
		if err != nil {
			return nil, err
		}
		if !ok {
			resp.Cancelled = true
			return resp, nil
		}
	}

	scope := req.BaseStackID
	if scope == "" {
		scope = "all"
	}
	result := s.runner.Run(ctx, opKey(opSyncClean, scope), steps)
	resp.Steps = result.Steps
	if summary := result.FailureSummary(); summary != nil {
		return resp, fmt.Errorf("cleanup incomplete: %w", summary)
	}
	return resp, nil
}

// scope returns the records to check and the base stacks whose git lists to query.
func (s *SyncServiceImpl) scope(ctx context.Context, baseID string) ([]stack.Record, []stack.Record, error) {
	all := s.registry.List(ctx)

	if baseID == "" {
		var bases []stack.Record
		for _, r := range all {
			if !r.IsWorktree {
				bases = append(bases, r)
			}
		}
		return all, bases, nil
	}

	base, ok := s.registry.Get(ctx, baseID)
	if !ok {
		return nil, nil, apperr.NotFound("no stack registered for %s", baseID)
	}
	if base.IsWorktree {
		if base, ok = s.registry.Get(ctx, base.BaseStackID); !ok {
			return nil, nil, apperr.NotFound("base stack of %s is not registered", baseID)
		}
	}
	return append([]stack.Record{base}, worktreesOf(all, base.StackID)...), []stack.Record{base}, nil
}

// listBase queries git for the worktrees of the base's target repository. Worktrees
// created from an earlier target are listed from their own repository as well.
func (s *SyncServiceImpl) listBase(ctx context.Context, base stack.Record, records []stack.Record) reconcile.BaseWorktrees {
	bw := reconcile.BaseWorktrees{BaseStackID: base.StackID}
	if base.Target == "" {
		return bw
	}
	bw.RepoPath = filepath.Join(base.StackID, base.Target)

	entries, err := s.git.ListWorktrees(ctx, bw.RepoPath)
	if err != nil {
		s.logger.Warn("cannot list worktrees, skipping git checks for base",
			zap.String("base", base.StackID), zap.Error(err))
		return bw
	}
	bw.Entries = entries
	bw.ListOK = true

	seen := map[string]bool{base.Target: true}
	for _, r := range worktreesOf(records, base.StackID) {
		if r.WorktreeTarget == "" || seen[r.WorktreeTarget] {
			continue
		}
		seen[r.WorktreeTarget] = true

		repo := filepath.Join(base.StackID, r.WorktreeTarget)
		more, err := s.git.ListWorktrees(ctx, repo)
		if err != nil {
			s.logger.Warn("cannot list worktrees", zap.String("repo", repo), zap.Error(err))
			continue
		}
		// The first entry is the repository's main worktree.
		if len(more) > 0 {
			more = more[1:]
		}
		for _, e := range more {
			e.Repo = repo
			bw.Entries = append(bw.Entries, e)
		}
	}
	return bw
}

var _ primary.SyncService = (*SyncServiceImpl)(nil)
