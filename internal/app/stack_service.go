package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/core/stack"
	"github.com/example/slic/internal/ports/primary"
	"github.com/example/slic/internal/ports/secondary"
)

// portRefreshLimit bounds concurrent engine queries in ListStacks.
const portRefreshLimit = 4

// StackServiceImpl implements the StackService interface.
type StackServiceImpl struct {
	registry  secondary.StackRegistry
	states    secondary.StateFiles
	workspace secondary.Workspace
	compose   secondary.ComposeEngine
	ports     secondary.PortSource
	catalog   secondary.ServiceCatalog
	logger    *zap.Logger
	now       func() time.Time
}

// NewStackService creates a new StackService with injected dependencies.
func NewStackService(
	registry secondary.StackRegistry,
	states secondary.StateFiles,
	workspace secondary.Workspace,
	compose secondary.ComposeEngine,
	ports secondary.PortSource,
	catalog secondary.ServiceCatalog,
	logger *zap.Logger,
) *StackServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StackServiceImpl{
		registry:  registry,
		states:    states,
		workspace: workspace,
		compose:   compose,
		ports:     ports,
		catalog:   catalog,
		logger:    logger,
		now:       time.Now,
	}
}

// ResolveStack maps a filesystem path to the registered stack owning it.
func (s *StackServiceImpl) ResolveStack(ctx context.Context, path string) (string, error) {
	resolved, err := s.workspace.ResolvePath(path)
	if err != nil {
		return "", apperr.UserInput("cannot resolve path %q: %v", path, err)
	}

	records := s.registry.List(ctx)
	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.StackID)
	}

	id, kind := stack.Match(keys, resolved)
	if kind == stack.MatchNone {
		return "", apperr.WithHint(
			apperr.NotFound("no stack registered for %s", resolved),
			"run 'slic stack register' in the stack directory first",
		)
	}
	s.logger.Debug("stack resolved", zap.String("path", resolved), zap.String("stack", id), zap.String("match", string(kind)))
	return id, nil
}

// ListStacks lists registered stacks, refreshing their ports first when requested.
func (s *StackServiceImpl) ListStacks(ctx context.Context, req primary.ListStacksRequest) (*primary.ListStacksResponse, error) {
	resp := &primary.ListStacksResponse{}

	if err := s.registry.Check(ctx); err != nil {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("registry unreadable, showing no stacks: %v", err))
		resp.Stacks = []stack.Record{}
		return resp, nil
	}

	records := s.registry.List(ctx)
	if req.RefreshPorts && len(records) > 0 {
		resp.Warnings = append(resp.Warnings, s.refreshAll(ctx, records)...)
		records = s.registry.List(ctx)
	}

	resp.Stacks = records
	return resp, nil
}

// refreshAll queries the engine concurrently, then writes the registry sequentially.
func (s *StackServiceImpl) refreshAll(ctx context.Context, records []stack.Record) []string {
	type refreshed struct {
		id    string
		ports map[string]int
		err   error
	}
	results := make([]refreshed, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(portRefreshLimit)
	for i, r := range records {
		g.Go(func() error {
			ports, err := s.queryPorts(gctx, r)
			results[i] = refreshed{id: r.StackID, ports: ports, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var warnings []string
	for i, res := range results {
		if res.err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: port refresh failed: %v", res.id, res.err))
			continue
		}
		if err := s.storePorts(ctx, records[i], res.ports); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", res.id, err))
		}
	}
	return warnings
}

// GetStack returns a stack with its worktrees.
func (s *StackServiceImpl) GetStack(ctx context.Context, stackID string) (*primary.StackInfo, error) {
	record, err := s.get(ctx, stackID)
	if err != nil {
		return nil, err
	}

	info := &primary.StackInfo{
		Record:        record,
		StateFilePath: s.states.Path(stackID),
		DirExists:     s.workspace.DirectoryExists(ctx, stackID),
	}
	if !record.IsWorktree {
		info.Worktrees = worktreesOf(s.registry.List(ctx), stackID)
	}
	return info, nil
}

// StopStack stops the stack's containers and marks it stopped.
func (s *StackServiceImpl) StopStack(ctx context.Context, stackID string) error {
	record, err := s.get(ctx, stackID)
	if err != nil {
		return err
	}
	return s.stop(ctx, record)
}

// StopAll stops every registered stack. Worktrees are stopped before their base;
// a failure on one stack does not prevent the others from being stopped.
func (s *StackServiceImpl) StopAll(ctx context.Context) (*primary.StopAllResponse, error) {
	records := s.registry.List(ctx)
	byID := make(map[string]stack.Record, len(records))
	entries := make([]stack.StopEntry, 0, len(records))
	for _, r := range records {
		byID[r.StackID] = r
		entries = append(entries, stack.StopEntry{ID: r.StackID, IsWorktree: r.IsWorktree, BaseID: r.BaseStackID})
	}

	resp := &primary.StopAllResponse{}
	for _, id := range stack.OrderForStop(entries) {
		err := s.stop(ctx, byID[id])
		resp.Results = append(resp.Results, primary.StopResult{StackID: id, Err: err})
	}
	return resp, nil
}

func (s *StackServiceImpl) stop(ctx context.Context, record stack.Record) error {
	if err := s.compose.Stop(ctx, record.ProjectName, record.StackID); err != nil {
		return err
	}
	stopped := stack.StatusStopped
	if err := s.registry.Update(ctx, record.StackID, stack.Patch{Status: &stopped}); err != nil {
		return fmt.Errorf("containers stopped but status not saved: %w", err)
	}
	return nil
}

// RegisterStack adopts a directory as a base stack. Registering an already
// registered directory returns the existing record.
func (s *StackServiceImpl) RegisterStack(ctx context.Context, req primary.RegisterStackRequest) (*stack.Record, error) {
	path, err := s.workspace.ResolvePath(req.Path)
	if err != nil {
		return nil, apperr.UserInput("cannot resolve path %q: %v", req.Path, err)
	}

	records := s.registry.List(ctx)
	guard := stack.CanRegister(stack.RegisterContext{
		Path:          path,
		PathIsDir:     s.workspace.DirectoryExists(ctx, path),
		InsideStackID: worktreeContaining(records, path),
	})
	if !guard.Allowed {
		return nil, apperr.UserInput("%s", guard.Reason)
	}

	if existing, ok := s.registry.Get(ctx, path); ok {
		if req.Target == "" || req.Target == existing.Target {
			return &existing, nil
		}
		if err := s.SetTarget(ctx, path, req.Target); err != nil {
			return nil, err
		}
		updated, _ := s.registry.Get(ctx, path)
		return &updated, nil
	}

	if req.Target != "" {
		if err := s.checkTarget(ctx, path, req.Target); err != nil {
			return nil, err
		}
	}

	record := stack.Record{
		StackID:   path,
		StateFile: s.states.Path(path),
		Status:    stack.StatusCreated,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		Target:    req.Target,
	}.WithDerived()

	if err := s.registry.Register(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to register stack: %w", err)
	}
	if err := s.states.Write(ctx, path, record.StateValues(), false); err != nil {
		return &record, fmt.Errorf("stack registered but state file not written: %w", err)
	}
	return &record, nil
}

// UnregisterStack removes a stack. A base stack with worktrees requires Cascade.
func (s *StackServiceImpl) UnregisterStack(ctx context.Context, req primary.UnregisterStackRequest) (*primary.UnregisterStackResponse, error) {
	record, exists := s.registry.Get(ctx, req.StackID)
	guard := stack.CanUnregister(stack.UnregisterContext{
		StackID:       req.StackID,
		StackExists:   exists,
		IsWorktree:    record.IsWorktree,
		Cascade:       req.Cascade,
		WorktreeCount: len(worktreesOf(s.registry.List(ctx), req.StackID)),
	})
	if !guard.Allowed {
		if !exists {
			return nil, apperr.NotFound("%s", guard.Reason)
		}
		return nil, apperr.UserInput("%s", guard.Reason)
	}

	removed, err := s.registry.Unregister(ctx, req.StackID, req.Cascade)
	resp := &primary.UnregisterStackResponse{}
	for _, r := range removed {
		resp.Removed = append(resp.Removed, r.StackID)
	}
	if err != nil {
		return resp, err
	}
	return resp, nil
}

// SetTarget switches the stack's target and updates its state file.
func (s *StackServiceImpl) SetTarget(ctx context.Context, stackID, target string) error {
	record, err := s.get(ctx, stackID)
	if err != nil {
		return err
	}
	if record.IsWorktree {
		return apperr.UserInput("%s is a worktree stack; its target is fixed to %s", stackID, record.Target)
	}
	if err := s.checkTarget(ctx, stackID, target); err != nil {
		return err
	}

	if err := s.registry.Update(ctx, stackID, stack.Patch{Target: &target}); err != nil {
		return fmt.Errorf("failed to update target: %w", err)
	}
	if err := s.states.Write(ctx, stackID, map[string]string{"SLIC_CURRENT_PROJECT": target}, false); err != nil {
		return fmt.Errorf("target saved but state file not updated: %w", err)
	}
	return nil
}

func (s *StackServiceImpl) checkTarget(ctx context.Context, stackID, target string) error {
	guard := stack.CanSwitchTarget(stack.TargetContext{
		StackID:      stackID,
		Target:       target,
		TargetExists: target != "" && s.workspace.DirectoryExists(ctx, filepath.Join(stackID, target)),
	})
	if !guard.Allowed {
		if target == "" {
			return apperr.UserInput("%s", guard.Reason)
		}
		return apperr.NotFound("%s", guard.Reason)
	}
	return nil
}

// RefreshXDebug recomputes the XDebug port and key from the stack id and stores them.
func (s *StackServiceImpl) RefreshXDebug(ctx context.Context, stackID string) (*stack.Record, error) {
	record, err := s.get(ctx, stackID)
	if err != nil {
		return nil, err
	}

	id := stack.Derive(stackID)
	if err := s.registry.Update(ctx, stackID, stack.Patch{XDebugPort: &id.XDebugPort, XDebugKey: &id.XDebugKey}); err != nil {
		return nil, fmt.Errorf("failed to update xdebug settings: %w", err)
	}
	values := map[string]string{
		"SLIC_XDEBUG_PORT": fmt.Sprint(id.XDebugPort),
		"XDK":              id.XDebugKey,
	}
	if err := s.states.Write(ctx, stackID, values, false); err != nil {
		return nil, fmt.Errorf("xdebug settings saved but state file not updated: %w", err)
	}

	record.XDebugPort = id.XDebugPort
	record.XDebugKey = id.XDebugKey
	return &record, nil
}

// RefreshPorts queries the engine for the stack's published ports and caches them.
// A stack that is down (or only partly up) has its cached ports cleared.
func (s *StackServiceImpl) RefreshPorts(ctx context.Context, stackID string) (map[string]int, error) {
	record, err := s.get(ctx, stackID)
	if err != nil {
		return nil, err
	}

	ports, err := s.queryPorts(ctx, record)
	if err != nil {
		return nil, err
	}
	if err := s.storePorts(ctx, record, ports); err != nil {
		return nil, err
	}
	return ports, nil
}

func (s *StackServiceImpl) queryPorts(ctx context.Context, record stack.Record) (map[string]int, error) {
	expected, err := s.catalog.ExpectedServices(ctx, record.ProjectName)
	if err != nil {
		return nil, fmt.Errorf("failed to read expected services: %w", err)
	}
	live, err := s.ports.PublishedPorts(ctx, record.ProjectName)
	if err != nil {
		return nil, err
	}
	return stack.MergePorts(expected, live), nil
}

func (s *StackServiceImpl) storePorts(ctx context.Context, record stack.Record, ports map[string]int) error {
	if stack.PortsEqual(record.Ports, ports) {
		return nil
	}
	patch := stack.Patch{Ports: ports, ClearPorts: ports == nil}
	if err := s.registry.Update(ctx, record.StackID, patch); err != nil {
		return fmt.Errorf("failed to store ports: %w", err)
	}
	return nil
}

func (s *StackServiceImpl) get(ctx context.Context, stackID string) (stack.Record, error) {
	record, ok := s.registry.Get(ctx, stackID)
	if !ok {
		return stack.Record{}, apperr.NotFound("no stack registered for %s", stackID)
	}
	return record, nil
}

// worktreesOf returns the worktree stacks whose base is baseID.
func worktreesOf(records []stack.Record, baseID string) []stack.Record {
	var out []stack.Record
	for _, r := range records {
		if r.IsWorktree && r.BaseStackID == baseID {
			out = append(out, r)
		}
	}
	return out
}

// worktreeContaining returns the worktree stack whose directory is or contains path.
func worktreeContaining(records []stack.Record, path string) string {
	for _, r := range records {
		if r.IsWorktree && (r.StackID == path || stack.IsWithin(r.StackID, path)) {
			return r.StackID
		}
	}
	return ""
}

var _ primary.StackService = (*StackServiceImpl)(nil)
