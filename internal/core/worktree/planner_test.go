package worktree

import (
	"testing"

	"github.com/example/slic/internal/core/effects"
	"github.com/example/slic/internal/core/stack"
)

func stepNames(steps []effects.Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

func assertNames(t *testing.T, got []effects.Step, want ...string) {
	t.Helper()
	names := stepNames(got)
	if len(names) != len(want) {
		t.Fatalf("steps = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("steps = %v, want %v", names, want)
		}
	}
}

func addInput(state AddState) AddPlanInput {
	return AddPlanInput{
		State:      state,
		Base:       stack.Record{StackID: "/a/plugins", Target: "tec"},
		RepoPath:   "/a/plugins/tec",
		DirName:    "tec-feature",
		Path:       "/a/plugins/tec-feature",
		Branch:     "feature",
		BaseBranch: "main",
		CreatedAt:  "2026-01-02T03:04:05Z",
	}
}

func TestGenerateAddPlan_Fresh(t *testing.T) {
	plan := GenerateAddPlan(addInput(AddFresh))

	assertNames(t, plan.Steps, StepGitWorktreeAdd, StepRegister, StepWriteStateFile)

	add := plan.Steps[0]
	if add.Policy != effects.Halt || add.Verify != nil {
		t.Errorf("worktree add step: policy=%v verify=%v", add.Policy, add.Verify)
	}
	git, ok := add.Effect.(effects.GitEffect)
	if !ok {
		t.Fatalf("effect = %T, want GitEffect", add.Effect)
	}
	if git.Operation != effects.GitWorktreeAdd || git.RepoPath != "/a/plugins/tec" {
		t.Errorf("git effect = %+v", git)
	}
	if len(git.Args) != 2 || git.Args[0] != "/a/plugins/tec-feature" || git.Args[1] != "feature" {
		t.Errorf("git args = %v", git.Args)
	}

	for _, s := range plan.Steps[1:] {
		if s.Policy != effects.Halt {
			t.Errorf("step %s policy = %v, want Halt", s.Name, s.Policy)
		}
	}
}

func TestGenerateAddPlan_Record(t *testing.T) {
	plan := GenerateAddPlan(addInput(AddFresh))
	r := plan.Record
	id := stack.Derive("/a/plugins/tec-feature")

	if r.StackID != "/a/plugins/tec-feature" || !r.IsWorktree {
		t.Fatalf("record = %+v", r)
	}
	if r.BaseStackID != "/a/plugins" || r.BaseBranch != "main" || r.WorktreeBranch != "feature" {
		t.Errorf("worktree fields = %+v", r)
	}
	if r.WorktreeDir != "tec-feature" || r.WorktreeFullPath != "/a/plugins/tec-feature" {
		t.Errorf("worktree paths = %+v", r)
	}
	if r.XDebugPort != id.XDebugPort || r.XDebugKey != id.XDebugKey || r.ProjectName != id.ProjectName {
		t.Errorf("derived fields = %+v, want %+v", r, id)
	}
	if r.Status != stack.StatusCreated {
		t.Errorf("Status = %q", r.Status)
	}

	reg := plan.Steps[1].Effect.(effects.RegistryEffect)
	if reg.Operation != "register" || reg.StackID != r.StackID {
		t.Errorf("registry effect = %+v", reg)
	}
	state := plan.Steps[2].Effect.(effects.StateFileEffect)
	if state.Values["SLIC_IS_WORKTREE"] != "1" || state.Values["XDK"] != id.XDebugKey {
		t.Errorf("state values = %v", state.Values)
	}
}

func TestGenerateAddPlan_RegisterOnly(t *testing.T) {
	plan := GenerateAddPlan(addInput(AddRegisterOnly))
	assertNames(t, plan.Steps, StepRegister, StepWriteStateFile)
}

func TestGenerateAddPlan_AlreadyRegistered(t *testing.T) {
	plan := GenerateAddPlan(addInput(AddAlreadyRegistered))
	if len(plan.Steps) != 0 {
		t.Errorf("expected no steps, got %v", stepNames(plan.Steps))
	}
}

func worktreeRecord() stack.Record {
	return stack.Record{
		StackID:          "/a/plugins/tec-feature",
		IsWorktree:       true,
		BaseStackID:      "/a/plugins",
		BaseBranch:       "main",
		WorktreeBranch:   "feature",
		WorktreeFullPath: "/a/plugins/tec-feature",
	}.WithDerived()
}

func TestGenerateRemovePlan(t *testing.T) {
	steps := GenerateRemovePlan(RemovePlanInput{Record: worktreeRecord(), RepoPath: "/a/plugins/tec"})

	assertNames(t, steps, StepStopContainers, StepGitWorktreeRemove, StepUnregister, StepDeleteStateFile)
	for _, s := range steps {
		if s.Policy != effects.BestEffort {
			t.Errorf("step %s policy = %v, want BestEffort", s.Name, s.Policy)
		}
	}

	fallback, ok := steps[1].Fallback.(effects.FileEffect)
	if !ok || fallback.Operation != "remove_all" || fallback.Path != "/a/plugins/tec-feature" {
		t.Errorf("fallback = %#v", steps[1].Fallback)
	}

	stop := steps[0].Effect.(effects.ComposeEffect)
	if stop.ProjectName != stack.Derive("/a/plugins/tec-feature").ProjectName {
		t.Errorf("stop project = %q", stop.ProjectName)
	}
}

func TestGenerateMergePlan(t *testing.T) {
	plan := GenerateMergePlan(MergePlanInput{
		Record:         worktreeRecord(),
		RepoPath:       "/a/plugins/tec",
		BaseBranch:     "main",
		WorktreeExists: true,
	})

	if plan.CleanupOnly {
		t.Fatal("CleanupOnly = true for an existing worktree")
	}
	assertNames(t, plan.Steps,
		StepCheckoutBase, StepGitMerge, StepGitWorktreeRemove, StepDeleteBranch,
		StepStopContainers, StepUnregister, StepDeleteStateFile)

	if plan.Steps[0].Policy != effects.Halt || plan.Steps[1].Policy != effects.Halt {
		t.Error("checkout and merge must halt on failure")
	}
	verify, ok := plan.Steps[1].Verify.(effects.GitEffect)
	if !ok {
		t.Fatalf("merge verify = %T, want GitEffect", plan.Steps[1].Verify)
	}
	if verify.Operation != effects.GitVerifyMerged || len(verify.Args) != 2 ||
		verify.Args[0] != "feature" || verify.Args[1] != "main" {
		t.Errorf("merge verify = %+v", verify)
	}
	for _, s := range plan.Steps[2:] {
		if s.Policy != effects.BestEffort {
			t.Errorf("step %s policy = %v, want BestEffort", s.Name, s.Policy)
		}
	}

	checkout := plan.Steps[0].Effect.(effects.GitEffect)
	if checkout.Args[0] != "main" {
		t.Errorf("checkout args = %v", checkout.Args)
	}
	merge := plan.Steps[1].Effect.(effects.GitEffect)
	if merge.Operation != effects.GitMerge || merge.Args[0] != "feature" {
		t.Errorf("merge effect = %+v", merge)
	}
}

func TestGenerateMergePlan_CleanupOnly(t *testing.T) {
	plan := GenerateMergePlan(MergePlanInput{
		Record:     worktreeRecord(),
		RepoPath:   "/a/plugins/tec",
		BaseBranch: "main",
	})

	if !plan.CleanupOnly {
		t.Fatal("CleanupOnly = false for a missing worktree")
	}
	assertNames(t, plan.Steps, StepStopContainers, StepUnregister, StepDeleteStateFile)
	for _, s := range plan.Steps {
		if _, ok := s.Effect.(effects.GitEffect); ok {
			t.Errorf("cleanup-only plan contains git step %s", s.Name)
		}
	}
}
