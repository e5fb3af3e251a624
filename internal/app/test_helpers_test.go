package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/slic/internal/adapters/envfile"
	"github.com/example/slic/internal/adapters/registry"
	"github.com/example/slic/internal/core/reconcile"
	"github.com/example/slic/internal/core/stack"
	"github.com/example/slic/internal/ports/secondary"
)

// Ensure mocks implement the interfaces
var (
	_ secondary.Workspace        = (*mockWorkspace)(nil)
	_ secondary.Git              = (*mockGit)(nil)
	_ secondary.ComposeEngine    = (*mockCompose)(nil)
	_ secondary.PortSource       = (*mockPorts)(nil)
	_ secondary.ServiceCatalog   = (*mockCatalog)(nil)
	_ secondary.Prompter         = (*mockPrompter)(nil)
	_ secondary.OperationJournal = (*memJournal)(nil)
)

// mockWorkspace is an in-memory directory tree. Paths are used as given.
type mockWorkspace struct {
	dirs      map[string]bool
	cwd       string
	removeErr error
}

func newMockWorkspace() *mockWorkspace {
	return &mockWorkspace{dirs: make(map[string]bool), cwd: "/"}
}

func (m *mockWorkspace) ResolvePath(path string) (string, error) {
	if path == "" {
		return m.cwd, nil
	}
	return filepath.Clean(path), nil
}

func (m *mockWorkspace) WorkingDir() (string, error) { return m.cwd, nil }

func (m *mockWorkspace) PathExists(ctx context.Context, path string) bool { return m.dirs[path] }

func (m *mockWorkspace) DirectoryExists(ctx context.Context, path string) bool { return m.dirs[path] }

func (m *mockWorkspace) RemoveDirectory(ctx context.Context, path string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	for d := range m.dirs {
		if d == path || stack.IsWithin(path, d) {
			delete(m.dirs, d)
		}
	}
	return nil
}

func (m *mockWorkspace) mkdir(paths ...string) {
	for _, p := range paths {
		m.dirs[p] = true
	}
}

// mockGit keeps worktree lists per repository and mirrors them into the workspace.
type mockGit struct {
	ws       *mockWorkspace
	lists    map[string][]reconcile.WorktreeEntry // linked worktrees only
	branches map[string]string                    // repo -> checked out branch
	dirty    map[string]bool
	merged   map[string]bool // mergeKey(repo, branch, into)
	calls    []string

	AddWorktreeFn    func(repo, path, branch string) error
	RemoveWorktreeFn func(repo, path string) error
	MergeFn          func(repo, branch string) error
	ListWorktreesFn  func(repo string) ([]reconcile.WorktreeEntry, error)
}

func newMockGit(ws *mockWorkspace) *mockGit {
	return &mockGit{
		ws:       ws,
		lists:    make(map[string][]reconcile.WorktreeEntry),
		branches: make(map[string]string),
		dirty:    make(map[string]bool),
		merged:   make(map[string]bool),
	}
}

func mergeKey(repo, branch, into string) string {
	return repo + "|" + branch + "|" + into
}

func (m *mockGit) AddWorktree(ctx context.Context, repo, path, branch string) error {
	m.calls = append(m.calls, fmt.Sprintf("worktree add %s %s", path, branch))
	if m.AddWorktreeFn != nil {
		if err := m.AddWorktreeFn(repo, path, branch); err != nil {
			return err
		}
	}
	m.lists[repo] = append(m.lists[repo], reconcile.WorktreeEntry{Path: path, Branch: branch})
	m.ws.mkdir(path)
	return nil
}

func (m *mockGit) RemoveWorktree(ctx context.Context, repo, path string) error {
	m.calls = append(m.calls, "worktree remove "+path)
	if m.RemoveWorktreeFn != nil {
		if err := m.RemoveWorktreeFn(repo, path); err != nil {
			return err
		}
	}
	var kept []reconcile.WorktreeEntry
	for _, e := range m.lists[repo] {
		if e.Path != path {
			kept = append(kept, e)
		}
	}
	m.lists[repo] = kept
	_ = m.ws.RemoveDirectory(ctx, path)
	return nil
}

func (m *mockGit) ListWorktrees(ctx context.Context, repo string) ([]reconcile.WorktreeEntry, error) {
	if m.ListWorktreesFn != nil {
		return m.ListWorktreesFn(repo)
	}
	entries := []reconcile.WorktreeEntry{{Path: repo, Branch: m.branches[repo]}}
	return append(entries, m.lists[repo]...), nil
}

func (m *mockGit) CurrentBranch(ctx context.Context, repo string) (string, error) {
	return m.branches[repo], nil
}

func (m *mockGit) Checkout(ctx context.Context, repo, branch string) error {
	m.calls = append(m.calls, "checkout "+branch)
	m.branches[repo] = branch
	return nil
}

func (m *mockGit) Merge(ctx context.Context, repo, branch string) error {
	m.calls = append(m.calls, "merge "+branch)
	if m.MergeFn != nil {
		if err := m.MergeFn(repo, branch); err != nil {
			return err
		}
	}
	m.merged[mergeKey(repo, branch, m.branches[repo])] = true
	return nil
}

func (m *mockGit) IsAncestor(ctx context.Context, repo, ancestor, descendant string) (bool, error) {
	m.calls = append(m.calls, fmt.Sprintf("merge-base --is-ancestor %s %s", ancestor, descendant))
	return m.merged[mergeKey(repo, ancestor, descendant)], nil
}

func (m *mockGit) DeleteBranch(ctx context.Context, repo, branch string) error {
	m.calls = append(m.calls, "branch -d "+branch)
	return nil
}

func (m *mockGit) IsDirty(ctx context.Context, path string) (bool, error) {
	return m.dirty[path], nil
}

func (m *mockGit) called(prefix string) bool {
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// mockCompose records stopped projects in order.
type mockCompose struct {
	stopped []string
	errs    map[string]error // by stack id
}

func (m *mockCompose) Stop(ctx context.Context, projectName, stackID string) error {
	if err := m.errs[stackID]; err != nil {
		return err
	}
	m.stopped = append(m.stopped, stackID)
	return nil
}

type mockPorts struct {
	byProject map[string]map[string]int
	err       error
}

func (m *mockPorts) PublishedPorts(ctx context.Context, projectName string) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byProject[projectName], nil
}

type mockCatalog struct {
	services []string
}

func (m *mockCatalog) ExpectedServices(ctx context.Context, projectName string) ([]string, error) {
	return m.services, nil
}

type mockPrompter struct {
	answer bool
	asked  []string
}

func (m *mockPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	m.asked = append(m.asked, question)
	return m.answer, nil
}

// memJournal is an in-memory operation journal with the sqlite repository's semantics.
type memJournal struct {
	next      int
	runs      map[string]string // run id -> op key
	succeeded map[string]bool
	steps     map[string][]secondary.StepOutcome // run id -> outcomes
}

func newMemJournal() *memJournal {
	return &memJournal{
		runs:      make(map[string]string),
		succeeded: make(map[string]bool),
		steps:     make(map[string][]secondary.StepOutcome),
	}
}

func (m *memJournal) Start(ctx context.Context, opKey string) (string, map[string]bool, error) {
	completed := map[string]bool{}
	for id, key := range m.runs {
		if key != opKey {
			continue
		}
		for _, s := range m.steps[id] {
			if s.Outcome == secondary.OutcomeDone {
				completed[s.Step] = true
			}
		}
	}
	m.next++
	id := fmt.Sprintf("run-%d", m.next)
	m.runs[id] = opKey
	return id, completed, nil
}

func (m *memJournal) RecordStep(ctx context.Context, runID, opKey string, outcome secondary.StepOutcome) error {
	if _, ok := m.runs[runID]; !ok {
		return errors.New("unknown run")
	}
	m.steps[runID] = append(m.steps[runID], outcome)
	return nil
}

func (m *memJournal) Finish(ctx context.Context, runID, opKey string, succeeded bool) error {
	if !succeeded {
		return nil
	}
	for id, key := range m.runs {
		if key == opKey {
			delete(m.runs, id)
			delete(m.steps, id)
		}
	}
	return nil
}

func (m *memJournal) History(ctx context.Context, opKey string) ([]secondary.StepOutcome, error) {
	latest, latestSeq := "", 0
	for id, key := range m.runs {
		var seq int
		fmt.Sscanf(id, "run-%d", &seq)
		if key == opKey && seq > latestSeq {
			latest, latestSeq = id, seq
		}
	}
	if latest == "" {
		return nil, nil
	}
	return m.steps[latest], nil
}

// harness wires the services over the real registry and state file adapters in a
// temp directory, with in-memory git, workspace and engine.
type harness struct {
	registryPath string
	statesDir    string
	registry     *registry.Store
	states       *envfile.Store
	ws           *mockWorkspace
	git          *mockGit
	compose      *mockCompose
	ports        *mockPorts
	catalog      *mockCatalog
	prompter     *mockPrompter
	journal      *memJournal
	runner       *StepRunner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	h := &harness{
		registryPath: filepath.Join(dir, "slic-stacks.json"),
		statesDir:    filepath.Join(dir, "stacks"),
		ws:           newMockWorkspace(),
		compose:      &mockCompose{errs: make(map[string]error)},
		ports:        &mockPorts{byProject: make(map[string]map[string]int)},
		catalog:      &mockCatalog{services: []string{"db", "wordpress"}},
		prompter:     &mockPrompter{},
		journal:      newMemJournal(),
	}
	h.states = envfile.New(h.statesDir)
	h.registry = registry.New(h.registryPath, h.states, nil)
	h.git = newMockGit(h.ws)

	executor := NewEffectExecutor(h.registry, h.states, h.git, h.compose, h.ws, nil)
	h.runner = NewStepRunner(executor, h.journal, nil)
	return h
}

func (h *harness) stackService() *StackServiceImpl {
	return NewStackService(h.registry, h.states, h.ws, h.compose, h.ports, h.catalog, nil)
}

func (h *harness) worktreeService() *WorktreeServiceImpl {
	return NewWorktreeService(h.registry, h.states, h.git, h.ws, h.prompter, h.runner, nil)
}

func (h *harness) syncService() *SyncServiceImpl {
	return NewSyncService(h.registry, h.git, h.ws, h.prompter, h.runner, nil)
}

// addBase registers a base stack whose target repository is checked out on main.
func (h *harness) addBase(t *testing.T, id, target string) stack.Record {
	t.Helper()
	repo := filepath.Join(id, target)
	h.ws.mkdir(id, repo)
	h.git.branches[repo] = "main"

	record := stack.Record{
		StackID:   id,
		StateFile: h.states.Path(id),
		Status:    stack.StatusCreated,
		Target:    target,
	}.WithDerived()
	if err := h.registry.Register(context.Background(), record); err != nil {
		t.Fatalf("failed to register base: %v", err)
	}
	return record
}

// addWorktree runs a real add through the worktree service.
func (h *harness) addWorktree(t *testing.T, baseID, branch string) stack.Record {
	t.Helper()
	resp, err := h.worktreeService().AddWorktree(context.Background(), addRequest(baseID, branch))
	if err != nil {
		t.Fatalf("failed to add worktree %s: %v", branch, err)
	}
	return resp.Record
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
