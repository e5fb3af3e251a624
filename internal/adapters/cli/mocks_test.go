package cli

import (
	"context"

	"github.com/example/slic/internal/core/stack"
	"github.com/example/slic/internal/ports/primary"
)

// mockStackService implements primary.StackService for testing
type mockStackService struct {
	listStacksFn      func(ctx context.Context, req primary.ListStacksRequest) (*primary.ListStacksResponse, error)
	getStackFn        func(ctx context.Context, stackID string) (*primary.StackInfo, error)
	stopStackFn       func(ctx context.Context, stackID string) error
	stopAllFn         func(ctx context.Context) (*primary.StopAllResponse, error)
	registerStackFn   func(ctx context.Context, req primary.RegisterStackRequest) (*stack.Record, error)
	unregisterStackFn func(ctx context.Context, req primary.UnregisterStackRequest) (*primary.UnregisterStackResponse, error)
	setTargetFn       func(ctx context.Context, stackID, target string) error
	refreshPortsFn    func(ctx context.Context, stackID string) (map[string]int, error)

	lastListReq       primary.ListStacksRequest
	lastRegisterReq   primary.RegisterStackRequest
	lastUnregisterReq primary.UnregisterStackRequest
}

func (m *mockStackService) ResolveStack(ctx context.Context, path string) (string, error) {
	return path, nil
}

func (m *mockStackService) ListStacks(ctx context.Context, req primary.ListStacksRequest) (*primary.ListStacksResponse, error) {
	m.lastListReq = req
	if m.listStacksFn != nil {
		return m.listStacksFn(ctx, req)
	}
	return &primary.ListStacksResponse{}, nil
}

func (m *mockStackService) GetStack(ctx context.Context, stackID string) (*primary.StackInfo, error) {
	if m.getStackFn != nil {
		return m.getStackFn(ctx, stackID)
	}
	return &primary.StackInfo{Record: stack.Record{StackID: stackID}.WithDerived(), DirExists: true}, nil
}

func (m *mockStackService) StopStack(ctx context.Context, stackID string) error {
	if m.stopStackFn != nil {
		return m.stopStackFn(ctx, stackID)
	}
	return nil
}

func (m *mockStackService) StopAll(ctx context.Context) (*primary.StopAllResponse, error) {
	if m.stopAllFn != nil {
		return m.stopAllFn(ctx)
	}
	return &primary.StopAllResponse{}, nil
}

func (m *mockStackService) RegisterStack(ctx context.Context, req primary.RegisterStackRequest) (*stack.Record, error) {
	m.lastRegisterReq = req
	if m.registerStackFn != nil {
		return m.registerStackFn(ctx, req)
	}
	r := stack.Record{StackID: req.Path, Target: req.Target}.WithDerived()
	return &r, nil
}

func (m *mockStackService) UnregisterStack(ctx context.Context, req primary.UnregisterStackRequest) (*primary.UnregisterStackResponse, error) {
	m.lastUnregisterReq = req
	if m.unregisterStackFn != nil {
		return m.unregisterStackFn(ctx, req)
	}
	return &primary.UnregisterStackResponse{Removed: []string{req.StackID}}, nil
}

func (m *mockStackService) SetTarget(ctx context.Context, stackID, target string) error {
	if m.setTargetFn != nil {
		return m.setTargetFn(ctx, stackID, target)
	}
	return nil
}

func (m *mockStackService) RefreshXDebug(ctx context.Context, stackID string) (*stack.Record, error) {
	r := stack.Record{StackID: stackID}.WithDerived()
	return &r, nil
}

func (m *mockStackService) RefreshPorts(ctx context.Context, stackID string) (map[string]int, error) {
	if m.refreshPortsFn != nil {
		return m.refreshPortsFn(ctx, stackID)
	}
	return nil, nil
}

// mockWorktreeService implements primary.WorktreeService for testing
type mockWorktreeService struct {
	addWorktreeFn    func(ctx context.Context, req primary.AddWorktreeRequest) (*primary.AddWorktreeResponse, error)
	removeWorktreeFn func(ctx context.Context, req primary.RemoveWorktreeRequest) (*primary.StepsResponse, error)
	mergeWorktreeFn  func(ctx context.Context, req primary.MergeWorktreeRequest) (*primary.MergeWorktreeResponse, error)
	listWorktreesFn  func(ctx context.Context, baseStackID string) ([]primary.WorktreeSummary, error)

	lastAddReq    primary.AddWorktreeRequest
	lastRemoveReq primary.RemoveWorktreeRequest
	lastMergeReq  primary.MergeWorktreeRequest
}

func (m *mockWorktreeService) AddWorktree(ctx context.Context, req primary.AddWorktreeRequest) (*primary.AddWorktreeResponse, error) {
	m.lastAddReq = req
	if m.addWorktreeFn != nil {
		return m.addWorktreeFn(ctx, req)
	}
	return &primary.AddWorktreeResponse{}, nil
}

func (m *mockWorktreeService) RemoveWorktree(ctx context.Context, req primary.RemoveWorktreeRequest) (*primary.StepsResponse, error) {
	m.lastRemoveReq = req
	if m.removeWorktreeFn != nil {
		return m.removeWorktreeFn(ctx, req)
	}
	return &primary.StepsResponse{}, nil
}

func (m *mockWorktreeService) MergeWorktree(ctx context.Context, req primary.MergeWorktreeRequest) (*primary.MergeWorktreeResponse, error) {
	m.lastMergeReq = req
	if m.mergeWorktreeFn != nil {
		return m.mergeWorktreeFn(ctx, req)
	}
	return &primary.MergeWorktreeResponse{}, nil
}

func (m *mockWorktreeService) ListWorktrees(ctx context.Context, baseStackID string) ([]primary.WorktreeSummary, error) {
	if m.listWorktreesFn != nil {
		return m.listWorktreesFn(ctx, baseStackID)
	}
	return nil, nil
}

// mockSyncService implements primary.SyncService for testing
type mockSyncService struct {
	syncFn  func(ctx context.Context, req primary.SyncRequest) (*primary.SyncResponse, error)
	lastReq primary.SyncRequest
}

func (m *mockSyncService) Sync(ctx context.Context, req primary.SyncRequest) (*primary.SyncResponse, error) {
	m.lastReq = req
	if m.syncFn != nil {
		return m.syncFn(ctx, req)
	}
	return &primary.SyncResponse{}, nil
}
