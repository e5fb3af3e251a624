package worktree

import (
	"fmt"

	"github.com/example/slic/internal/core/effects"
	"github.com/example/slic/internal/core/stack"
)

// Step names shared by the planners, the step runner and the journal.
const (
	StepGitWorktreeAdd    = "git-worktree-add"
	StepRegister          = "register"
	StepWriteStateFile    = "write-state-file"
	StepStopContainers    = "stop-containers"
	StepGitWorktreeRemove = "git-worktree-remove"
	StepUnregister        = "unregister"
	StepDeleteStateFile   = "delete-state-file"
	StepCheckoutBase      = "checkout-base-branch"
	StepGitMerge          = "git-merge"
	StepDeleteBranch      = "delete-branch"
)

// AddPlanInput contains pre-fetched data for worktree add.
type AddPlanInput struct {
	State      AddState
	Base       stack.Record
	RepoPath   string // base repository: <base>/<target>
	DirName    string
	Path       string // <base>/<dirName>
	Branch     string
	BaseBranch string
	CreatedAt  string
}

// AddPlan is the ordered step list for worktree add.
type AddPlan struct {
	Record stack.Record
	Steps  []effects.Step
}

// GenerateAddPlan creates a plan for adding a worktree stack.
// This is a pure function - all input data must be pre-fetched.
func GenerateAddPlan(input AddPlanInput) AddPlan {
	record := stack.Record{
		StackID:          input.Path,
		Status:           stack.StatusCreated,
		CreatedAt:        input.CreatedAt,
		Target:           input.DirName,
		IsWorktree:       true,
		BaseStackID:      input.Base.StackID,
		BaseBranch:       input.BaseBranch,
		WorktreeDir:      input.DirName,
		WorktreeBranch:   input.Branch,
		WorktreeFullPath: input.Path,
		WorktreeTarget:   input.Base.Target,
	}.WithDerived()

	plan := AddPlan{Record: record}
	if input.State == AddAlreadyRegistered {
		return plan
	}

	if input.State == AddFresh {
		plan.Steps = append(plan.Steps, effects.Step{
			Name: StepGitWorktreeAdd,
			Effect: effects.GitEffect{
				Operation: effects.GitWorktreeAdd,
				RepoPath:  input.RepoPath,
				Args:      []string{input.Path, input.Branch},
			},
			Policy: effects.Halt,
		})
	}

	plan.Steps = append(plan.Steps,
		effects.Step{
			Name: StepRegister,
			Effect: effects.RegistryEffect{
				Operation: "register",
				StackID:   record.StackID,
				Record:    record,
			},
			Policy: effects.Halt,
		},
		effects.Step{
			Name: StepWriteStateFile,
			Effect: effects.StateFileEffect{
				Operation: "write",
				StackID:   record.StackID,
				Values:    record.StateValues(),
			},
			Policy: effects.Halt,
		},
	)

	return plan
}

// RemovePlanInput contains pre-fetched data for worktree removal.
type RemovePlanInput struct {
	Record   stack.Record
	RepoPath string
}

// GenerateRemovePlan creates a plan for removing a worktree stack.
// Every step is best-effort and independent of earlier failures.
func GenerateRemovePlan(input RemovePlanInput) []effects.Step {
	r := input.Record
	return []effects.Step{
		stopStep(r),
		{
			Name: StepGitWorktreeRemove,
			Effect: effects.GitEffect{
				Operation: effects.GitWorktreeRemove,
				RepoPath:  input.RepoPath,
				Args:      []string{r.WorktreeFullPath},
			},
			Fallback: effects.FileEffect{Operation: "remove_all", Path: r.WorktreeFullPath},
			Policy:   effects.BestEffort,
		},
		unregisterStep(r),
		deleteStateStep(r),
	}
}

// MergePlanInput contains pre-fetched data for worktree merge.
type MergePlanInput struct {
	Record         stack.Record
	RepoPath       string
	BaseBranch     string
	WorktreeExists bool
}

// MergePlan is the ordered step list for worktree merge.
type MergePlan struct {
	CleanupOnly bool
	Steps       []effects.Step
}

// GenerateMergePlan creates a plan for merging a worktree branch into its base branch.
// When the git worktree is gone from disk only the stack is cleaned up; the branch is kept.
func GenerateMergePlan(input MergePlanInput) MergePlan {
	r := input.Record

	if !input.WorktreeExists {
		return MergePlan{
			CleanupOnly: true,
			Steps: []effects.Step{
				stopStep(r),
				unregisterStep(r),
				deleteStateStep(r),
			},
		}
	}

	return MergePlan{
		Steps: []effects.Step{
			{
				Name: StepCheckoutBase,
				Effect: effects.GitEffect{
					Operation: effects.GitCheckout,
					RepoPath:  input.RepoPath,
					Args:      []string{input.BaseBranch},
				},
				Policy: effects.Halt,
			},
			{
				Name: StepGitMerge,
				Effect: effects.GitEffect{
					Operation: effects.GitMerge,
					RepoPath:  input.RepoPath,
					Args:      []string{r.WorktreeBranch},
				},
				Policy: effects.Halt,
				Verify: effects.GitEffect{
					Operation: effects.GitVerifyMerged,
					RepoPath:  input.RepoPath,
					Args:      []string{r.WorktreeBranch, input.BaseBranch},
				},
			},
			{
				Name: StepGitWorktreeRemove,
				Effect: effects.GitEffect{
					Operation: effects.GitWorktreeRemove,
					RepoPath:  input.RepoPath,
					Args:      []string{r.WorktreeFullPath},
				},
				Fallback: effects.FileEffect{Operation: "remove_all", Path: r.WorktreeFullPath},
				Policy:   effects.BestEffort,
			},
			{
				Name: StepDeleteBranch,
				Effect: effects.GitEffect{
					Operation: effects.GitDeleteBranch,
					RepoPath:  input.RepoPath,
					Args:      []string{r.WorktreeBranch},
				},
				Policy: effects.BestEffort,
			},
			stopStep(r),
			unregisterStep(r),
			deleteStateStep(r),
		},
	}
}

// MergeResumeHint returns the operator instructions printed when the merge step fails.
func MergeResumeHint(repoPath, branch, baseBranch string) string {
	return fmt.Sprintf(`Merge of %s into %s stopped. Nothing else was changed.
To resolve:
  cd %s
  git status                 # inspect conflicts
  git add <files> && git commit
Then re-run: slic worktree merge %s
Or abandon:  git -C %s merge --abort`, branch, baseBranch, repoPath, branch, repoPath)
}

// AddRegistrationHint returns the manual steps printed when the worktree was created but
// could not be registered.
func AddRegistrationHint(path, branch, repoPath string) string {
	return fmt.Sprintf(`The git worktree for %s exists at %s but the stack is not registered.
Re-run 'slic worktree add %s' to retry registration, or remove the worktree:
  git -C %s worktree remove %s`, branch, path, branch, repoPath, path)
}

func stopStep(r stack.Record) effects.Step {
	return effects.Step{
		Name: StepStopContainers,
		Effect: effects.ComposeEffect{
			Operation:   "stop",
			ProjectName: r.ProjectName,
			StackID:     r.StackID,
		},
		Policy: effects.BestEffort,
	}
}

func unregisterStep(r stack.Record) effects.Step {
	return effects.Step{
		Name:   StepUnregister,
		Effect: effects.RegistryEffect{Operation: "unregister", StackID: r.StackID},
		Policy: effects.BestEffort,
	}
}

func deleteStateStep(r stack.Record) effects.Step {
	return effects.Step{
		Name:   StepDeleteStateFile,
		Effect: effects.StateFileEffect{Operation: "delete", StackID: r.StackID},
		Policy: effects.BestEffort,
	}
}
