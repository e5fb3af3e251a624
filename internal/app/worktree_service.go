package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/example/slic/internal/apperr"
	slicctx "github.com/example/slic/internal/context"
	"github.com/example/slic/internal/core/reconcile"
	"github.com/example/slic/internal/core/stack"
	coreworktree "github.com/example/slic/internal/core/worktree"
	"github.com/example/slic/internal/ports/primary"
	"github.com/example/slic/internal/ports/secondary"
)

// Journal operation prefixes; the key is "<op>:<stack id>".
const (
	opWorktreeAdd    = "worktree-add"
	opWorktreeRemove = "worktree-remove"
	opWorktreeMerge  = "worktree-merge"
)

// WorktreeServiceImpl implements the WorktreeService interface.
type WorktreeServiceImpl struct {
	registry  secondary.StackRegistry
	states    secondary.StateFiles
	git       secondary.Git
	workspace secondary.Workspace
	prompter  secondary.Prompter
	runner    *StepRunner
	logger    *zap.Logger
	now       func() time.Time
}

// NewWorktreeService creates a new WorktreeService with injected dependencies.
func NewWorktreeService(
	registry secondary.StackRegistry,
	states secondary.StateFiles,
	git secondary.Git,
	workspace secondary.Workspace,
	prompter secondary.Prompter,
	runner *StepRunner,
	logger *zap.Logger,
) *WorktreeServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorktreeServiceImpl{
		registry:  registry,
		states:    states,
		git:       git,
		workspace: workspace,
		prompter:  prompter,
		runner:    runner,
		logger:    logger,
		now:       time.Now,
	}
}

// AddWorktree creates a git worktree for the branch next to the base stack's target
// and registers it as a worktree stack. An already registered worktree is reported
// without any mutation; an existing git worktree for the same branch is only registered.
func (s *WorktreeServiceImpl) AddWorktree(ctx context.Context, req primary.AddWorktreeRequest) (*primary.AddWorktreeResponse, error) {
	base, ok := s.registry.Get(ctx, req.BaseStackID)
	if !ok {
		return nil, apperr.WithHint(
			apperr.NotFound("no stack registered for %s", req.BaseStackID),
			"run 'slic stack register' in the stack directory first",
		)
	}

	repoPath := filepath.Join(base.StackID, base.Target)
	guardCtx := coreworktree.AddContext{
		BaseStackID:    base.StackID,
		BaseExists:     true,
		BaseIsWorktree: base.IsWorktree,
		Target:         base.Target,
		Branch:         req.Branch,
	}
	if base.Target != "" {
		guardCtx.TargetDirExists = s.workspace.DirectoryExists(ctx, repoPath)
		guardCtx.DirName, guardCtx.DirNameErr = coreworktree.MakeDirName(base.Target, req.Branch)
	}

	var existing stack.Record
	if guardCtx.DirName != "" && guardCtx.TargetDirExists {
		guardCtx.WorktreePath = filepath.Join(base.StackID, guardCtx.DirName)
		existing, guardCtx.RecordExists = s.registry.Get(ctx, guardCtx.WorktreePath)
		guardCtx.DirExists = s.workspace.DirectoryExists(ctx, guardCtx.WorktreePath)

		if guardCtx.DirExists && !guardCtx.RecordExists {
			entries, err := s.git.ListWorktrees(ctx, repoPath)
			if err != nil {
				return nil, err
			}
			if e, ok := findEntry(entries, guardCtx.WorktreePath); ok {
				guardCtx.DirIsWorktree = true
				guardCtx.DirWorktreeRef = e.Branch
			}
		}
	}

	state, guard := coreworktree.ClassifyAdd(guardCtx)
	if !guard.Allowed {
		if base.Target != "" && !guardCtx.TargetDirExists && guardCtx.DirNameErr == nil {
			return nil, apperr.NotFound("%s", guard.Reason)
		}
		return nil, apperr.UserInput("%s", guard.Reason)
	}

	if state == coreworktree.AddAlreadyRegistered {
		return &primary.AddWorktreeResponse{Record: existing, AlreadyRegistered: true}, nil
	}

	resp := &primary.AddWorktreeResponse{Adopted: state == coreworktree.AddRegisterOnly}
	if resp.Adopted && !req.AssumeYes {
		ok, err := s.prompter.Confirm(ctx, fmt.Sprintf(
			"%s is already a git worktree for %s. Register it as a stack?", guardCtx.WorktreePath, req.Branch))
		if err != nil {
			return nil, err
		}
		if !ok {
			resp.Cancelled = true
			return resp, nil
		}
	}

	baseBranch, err := s.git.CurrentBranch(ctx, repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read the base branch of %s: %w", repoPath, err)
	}

	plan := coreworktree.GenerateAddPlan(coreworktree.AddPlanInput{
		State:      state,
		Base:       base,
		RepoPath:   repoPath,
		DirName:    guardCtx.DirName,
		Path:       guardCtx.WorktreePath,
		Branch:     req.Branch,
		BaseBranch: baseBranch,
		CreatedAt:  s.now().UTC().Format(time.RFC3339),
	})
	plan.Record.StateFile = s.states.Path(plan.Record.StackID)
	resp.Record = plan.Record

	result := s.runner.Run(ctx, opKey(opWorktreeAdd, plan.Record.StackID), plan.Steps)
	resp.Steps = result.Steps

	switch result.HaltedAt {
	case "":
		return resp, nil
	case coreworktree.StepGitWorktreeAdd:
		return resp, result.Err
	case coreworktree.StepRegister:
		return resp, apperr.WithHint(result.Err, coreworktree.AddRegistrationHint(plan.Record.StackID, req.Branch, repoPath))
	default:
		return resp, apperr.WithHint(result.Err, fmt.Sprintf(
			"The stack is registered but its state file was not written. Run 'slic worktree remove %s' and add it again.", req.Branch))
	}
}

// RemoveWorktree stops, removes and unregisters a worktree stack. Every step runs
// regardless of earlier failures. A dirty working tree needs confirmation unless forced.
func (s *WorktreeServiceImpl) RemoveWorktree(ctx context.Context, req primary.RemoveWorktreeRequest) (*primary.StepsResponse, error) {
	base, err := s.getBase(ctx, req.BaseStackID)
	if err != nil {
		return nil, err
	}
	if !coreworktree.ValidateBranchName(req.Branch) {
		return nil, apperr.UserInput("invalid branch name %q", req.Branch)
	}

	record, registered := findWorktree(s.registry.List(ctx), base.StackID, req.Branch)

	dirty := false
	if registered && !req.Force && s.workspace.DirectoryExists(ctx, record.WorktreeFullPath) {
		dirty, err = s.git.IsDirty(ctx, record.WorktreeFullPath)
		if err != nil {
			s.logger.Warn("cannot inspect worktree, assuming uncommitted changes",
				zap.String("path", record.WorktreeFullPath), zap.Error(err))
			dirty = true
		}
	}

	decision := coreworktree.CanRemove(coreworktree.RemoveContext{
		Branch:     req.Branch,
		Registered: registered,
		Dirty:      dirty,
		Force:      req.Force,
	})
	if !decision.Allowed {
		return nil, apperr.NotFound("%s", decision.Reason)
	}

	resp := &primary.StepsResponse{}
	if decision.NeedsConfirmation {
		ok, err := s.prompter.Confirm(ctx, fmt.Sprintf(
			"%s has uncommitted changes that will be lost. Remove it anyway?", record.WorktreeFullPath))
		if err != nil {
			return nil, err
		}
		if !ok {
			resp.Cancelled = true
			return resp, nil
		}
	}

	steps := coreworktree.GenerateRemovePlan(coreworktree.RemovePlanInput{
		Record:   record,
		RepoPath: repoFor(record, base),
	})
	result := s.runner.Run(ctx, opKey(opWorktreeRemove, record.StackID), steps)
	resp.Steps = result.Steps

	if summary := result.FailureSummary(); summary != nil {
		return resp, fmt.Errorf("worktree removal incomplete: %w", summary)
	}
	return resp, nil
}

// MergeWorktree merges the worktree branch into the base branch, then removes the
// worktree, its branch and its stack. A failed merge halts with resume instructions
// before any cleanup.
func (s *WorktreeServiceImpl) MergeWorktree(ctx context.Context, req primary.MergeWorktreeRequest) (*primary.MergeWorktreeResponse, error) {
	base, err := s.getBase(ctx, req.BaseStackID)
	if err != nil {
		return nil, err
	}
	if !coreworktree.ValidateBranchName(req.Branch) {
		return nil, apperr.UserInput("invalid branch name %q", req.Branch)
	}

	record, registered := findWorktree(s.registry.List(ctx), base.StackID, req.Branch)
	if !registered {
		return nil, apperr.NotFound("no worktree stack registered for branch %s", req.Branch)
	}
	repoPath := repoFor(record, base)

	cwd := req.WorkingDir
	if cwd == "" {
		if cwd, err = s.workspace.WorkingDir(); err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	baseBranch := record.BaseBranch
	if baseBranch == "" {
		current, err := s.git.CurrentBranch(ctx, repoPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read the current branch of %s: %w", repoPath, err)
		}
		s.logger.Warn("no base branch recorded, merging into the current branch of the base repository",
			zap.String("repo", repoPath), zap.String("branch", current))
		baseBranch = current
	}

	guard := coreworktree.CanMerge(coreworktree.MergeContext{
		Branch:            req.Branch,
		Registered:        registered,
		WorktreePath:      record.WorktreeFullPath,
		CwdInsideWorktree: (&slicctx.StackContext{WorkingDir: cwd, StackID: record.StackID}).InsideStackDir(),
		BaseBranch:        baseBranch,
	})
	if !guard.Allowed {
		return nil, apperr.UserInput("%s", guard.Reason)
	}

	worktreeExists := s.workspace.DirectoryExists(ctx, record.WorktreeFullPath)
	resp := &primary.MergeWorktreeResponse{BaseBranch: baseBranch, CleanupOnly: !worktreeExists}

	if !req.AssumeYes {
		question := fmt.Sprintf("Merge %s into %s and remove its worktree stack?", req.Branch, baseBranch)
		if !worktreeExists {
			question = fmt.Sprintf("The worktree for %s is gone. Unregister its stack (the branch is kept)?", req.Branch)
		} else if dirty, err := s.git.IsDirty(ctx, record.WorktreeFullPath); err != nil || dirty {
			question = fmt.Sprintf("%s has uncommitted changes that will be lost. Merge %s into %s anyway?",
				record.WorktreeFullPath, req.Branch, baseBranch)
		}
		ok, err := s.prompter.Confirm(ctx, question)
		if err != nil {
			return nil, err
		}
		if !ok {
			resp.Cancelled = true
			return resp, nil
		}
	}

	plan := coreworktree.GenerateMergePlan(coreworktree.MergePlanInput{
		Record:         record,
		RepoPath:       repoPath,
		BaseBranch:     baseBranch,
		WorktreeExists: worktreeExists,
	})
	result := s.runner.Run(ctx, opKey(opWorktreeMerge, record.StackID), plan.Steps)
	resp.Steps = result.Steps

	switch result.HaltedAt {
	case "":
	case coreworktree.StepGitMerge:
		return resp, apperr.WithHint(result.Err, coreworktree.MergeResumeHint(repoPath, req.Branch, baseBranch))
	default:
		return resp, apperr.WithHint(result.Err, fmt.Sprintf(
			"Nothing was merged. Fix the problem in %s and re-run: slic worktree merge %s", repoPath, req.Branch))
	}

	if summary := result.FailureSummary(); summary != nil {
		return resp, fmt.Errorf("merge done but cleanup incomplete: %w", summary)
	}
	return resp, nil
}

// ListWorktrees lists the worktree stacks of a base stack, sorted by branch.
func (s *WorktreeServiceImpl) ListWorktrees(ctx context.Context, baseStackID string) ([]primary.WorktreeSummary, error) {
	base, err := s.getBase(ctx, baseStackID)
	if err != nil {
		return nil, err
	}

	records := worktreesOf(s.registry.List(ctx), base.StackID)
	sort.Slice(records, func(i, j int) bool { return records[i].WorktreeBranch < records[j].WorktreeBranch })

	summaries := make([]primary.WorktreeSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, primary.WorktreeSummary{
			Record:    r,
			DirExists: s.workspace.DirectoryExists(ctx, r.WorktreeFullPath),
		})
	}
	return summaries, nil
}

// getBase returns the base stack for worktree commands. Commands run from inside a
// worktree stack operate on its base.
func (s *WorktreeServiceImpl) getBase(ctx context.Context, stackID string) (stack.Record, error) {
	record, ok := s.registry.Get(ctx, stackID)
	if !ok {
		return stack.Record{}, apperr.WithHint(
			apperr.NotFound("no stack registered for %s", stackID),
			"run 'slic stack register' in the stack directory first",
		)
	}
	if record.IsWorktree {
		base, ok := s.registry.Get(ctx, record.BaseStackID)
		if !ok {
			return stack.Record{}, apperr.NotFound("base stack %s of %s is not registered", record.BaseStackID, stackID)
		}
		return base, nil
	}
	return record, nil
}

// findWorktree returns the worktree stack of base checked out on branch.
func findWorktree(records []stack.Record, baseID, branch string) (stack.Record, bool) {
	for _, r := range records {
		if r.IsWorktree && r.BaseStackID == baseID && r.WorktreeBranch == branch {
			return r, true
		}
	}
	return stack.Record{}, false
}

func findEntry(entries []reconcile.WorktreeEntry, path string) (reconcile.WorktreeEntry, bool) {
	for _, e := range entries {
		if filepath.Clean(e.Path) == filepath.Clean(path) {
			return e, true
		}
	}
	return reconcile.WorktreeEntry{}, false
}

// repoFor returns the git repository a worktree stack was created from.
func repoFor(record, base stack.Record) string {
	target := record.WorktreeTarget
	if target == "" {
		target = base.Target
	}
	return filepath.Join(record.BaseStackID, target)
}

func opKey(op, stackID string) string {
	return op + ":" + stackID
}

var _ primary.WorktreeService = (*WorktreeServiceImpl)(nil)
