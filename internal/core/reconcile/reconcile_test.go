package reconcile

import (
	"testing"

	"github.com/example/slic/internal/core/effects"
	"github.com/example/slic/internal/core/stack"
)

const (
	base     = "/a/plugins"
	repo     = "/a/plugins/tec"
	wtPath   = "/a/plugins/tec-feature"
	wtBranch = "feature"
)

func baseRecord() stack.Record {
	return stack.Record{StackID: base, Target: "tec"}
}

func wtRecord() stack.Record {
	return stack.Record{
		StackID:          wtPath,
		IsWorktree:       true,
		BaseStackID:      base,
		WorktreeBranch:   wtBranch,
		WorktreeFullPath: wtPath,
	}
}

func healthyInput() Input {
	return Input{
		Records:    []stack.Record{baseRecord(), wtRecord()},
		PathExists: map[string]bool{wtPath: true},
		Bases: map[string]BaseWorktrees{
			base: {
				BaseStackID: base,
				RepoPath:    repo,
				ListOK:      true,
				Entries: []WorktreeEntry{
					{Path: repo, Branch: "main"},
					{Path: wtPath, Branch: wtBranch},
				},
			},
		},
	}
}

func TestDetect_NoDrift(t *testing.T) {
	report := Detect(healthyInput())
	if !report.Clean() {
		t.Errorf("expected no drift, got %+v", report)
	}
}

func TestDetect_DeletedWorktreeDirectory(t *testing.T) {
	in := healthyInput()
	in.PathExists[wtPath] = false

	report := Detect(in)

	if len(report.RegistryOrphans) != 1 {
		t.Fatalf("RegistryOrphans = %+v, want 1", report.RegistryOrphans)
	}
	o := report.RegistryOrphans[0]
	if o.StackID != wtPath || o.Reason != ReasonPathMissing || o.Branch != wtBranch {
		t.Errorf("orphan = %+v", o)
	}
}

func TestDetect_MissingFromGitList(t *testing.T) {
	in := healthyInput()
	b := in.Bases[base]
	b.Entries = b.Entries[:1]
	in.Bases[base] = b

	report := Detect(in)

	if len(report.RegistryOrphans) != 1 || report.RegistryOrphans[0].Reason != ReasonNotInGit {
		t.Errorf("RegistryOrphans = %+v", report.RegistryOrphans)
	}
}

func TestDetect_UnregisteredGitWorktree(t *testing.T) {
	in := healthyInput()
	b := in.Bases[base]
	b.Entries = append(b.Entries, WorktreeEntry{Path: "/a/plugins/tec-manual", Branch: "manual"})
	in.Bases[base] = b

	report := Detect(in)

	if len(report.RegistryOrphans) != 0 {
		t.Errorf("RegistryOrphans = %+v, want none", report.RegistryOrphans)
	}
	if len(report.GitOrphans) != 1 {
		t.Fatalf("GitOrphans = %+v, want 1", report.GitOrphans)
	}
	o := report.GitOrphans[0]
	if o.Path != "/a/plugins/tec-manual" || o.Branch != "manual" || o.RepoPath != repo {
		t.Errorf("orphan = %+v", o)
	}
}

func TestDetect_GitOrphanFromEarlierTarget(t *testing.T) {
	in := healthyInput()
	b := in.Bases[base]
	b.Entries = append(b.Entries, WorktreeEntry{Path: "/a/plugins/et-stray", Branch: "stray", Repo: "/a/plugins/et"})
	in.Bases[base] = b

	report := Detect(in)

	if len(report.GitOrphans) != 1 {
		t.Fatalf("GitOrphans = %+v, want 1", report.GitOrphans)
	}
	if got := report.GitOrphans[0].RepoPath; got != "/a/plugins/et" {
		t.Errorf("RepoPath = %q, want /a/plugins/et", got)
	}
}

func TestDetect_IgnoresWorktreesOutsideBase(t *testing.T) {
	in := healthyInput()
	b := in.Bases[base]
	b.Entries = append(b.Entries, WorktreeEntry{Path: "/elsewhere/tec-x", Branch: "x"})
	in.Bases[base] = b

	if report := Detect(in); !report.Clean() {
		t.Errorf("expected no drift, got %+v", report)
	}
}

func TestDetect_GitListUnavailable(t *testing.T) {
	in := healthyInput()
	in.Bases[base] = BaseWorktrees{BaseStackID: base, RepoPath: repo}

	if report := Detect(in); !report.Clean() {
		t.Errorf("expected no findings when git cannot be queried, got %+v", report)
	}
}

func TestDetect_BaseUnregistered(t *testing.T) {
	in := Input{
		Records:    []stack.Record{wtRecord()},
		PathExists: map[string]bool{wtPath: true},
	}

	report := Detect(in)

	if len(report.RegistryOrphans) != 1 || report.RegistryOrphans[0].Reason != ReasonBaseUnregistered {
		t.Errorf("RegistryOrphans = %+v", report.RegistryOrphans)
	}
}

func TestPlanCleanup(t *testing.T) {
	report := Report{
		RegistryOrphans: []RegistryOrphan{{StackID: wtPath}},
		GitOrphans:      []GitOrphan{{Path: "/a/plugins/tec-manual"}},
	}

	steps := PlanCleanup(report)

	if len(steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(steps))
	}
	reg, ok := steps[0].Effect.(effects.RegistryEffect)
	if !ok || reg.Operation != "unregister" || reg.StackID != wtPath {
		t.Errorf("first step = %+v", steps[0])
	}
	st, ok := steps[1].Effect.(effects.StateFileEffect)
	if !ok || st.Operation != "delete" || st.StackID != wtPath {
		t.Errorf("second step = %+v", steps[1])
	}
	for _, s := range steps {
		if _, isGit := s.Effect.(effects.GitEffect); isGit {
			t.Error("cleanup must never touch git worktrees")
		}
	}
}

func TestRemediation(t *testing.T) {
	got := Remediation(GitOrphan{BaseStackID: base, RepoPath: repo, Path: "/a/plugins/tec-x", Branch: "x"})
	want := []string{
		"git -C /a/plugins/tec worktree remove /a/plugins/tec-x",
		"cd /a/plugins && slic worktree add x",
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Remediation() = %v, want %v", got, want)
	}

	pruned := Remediation(GitOrphan{RepoPath: repo, Path: "/a/plugins/tec-y", Prunable: true})
	if len(pruned) != 1 || pruned[0] != "git -C /a/plugins/tec worktree prune" {
		t.Errorf("Remediation(prunable) = %v", pruned)
	}
}
