// Package reconcile detects drift between the stack registry and git's worktree lists.
// Detection and cleanup planning are pure; the sync service gathers the inputs.
package reconcile

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/example/slic/internal/core/effects"
	"github.com/example/slic/internal/core/stack"
)

// Mode selects what sync does with the detected orphans.
type Mode string

const (
	ModeReport Mode = "report"
	ModeDryRun Mode = "dry-run"
	ModeClean  Mode = "clean"
)

// OrphanReason explains why a registry entry is orphaned.
type OrphanReason string

const (
	ReasonPathMissing      OrphanReason = "directory missing"
	ReasonNotInGit         OrphanReason = "not in git worktree list"
	ReasonBaseUnregistered OrphanReason = "base stack not registered"
)

// WorktreeEntry is one entry of `git worktree list --porcelain`.
type WorktreeEntry struct {
	Path     string
	Branch   string // short branch name, empty when detached
	Detached bool
	Bare     bool
	Prunable bool
	Repo     string // repository the entry was listed from, when not the base's RepoPath
}

// BaseWorktrees is the git worktree list of one base stack's repository.
// ListOK is false when git could not be queried; such a base yields no
// git-derived findings.
type BaseWorktrees struct {
	BaseStackID string
	RepoPath    string
	Entries     []WorktreeEntry
	ListOK      bool
}

// Input holds everything Detect needs, pre-fetched by the caller.
type Input struct {
	Records    []stack.Record
	PathExists map[string]bool          // keyed by worktree_full_path
	Bases      map[string]BaseWorktrees // keyed by base stack id
}

// RegistryOrphan is a worktree record with no worktree behind it.
type RegistryOrphan struct {
	StackID     string
	BaseStackID string
	Branch      string
	Reason      OrphanReason
}

// GitOrphan is a git worktree under a base directory with no registry entry.
type GitOrphan struct {
	BaseStackID string
	RepoPath    string
	Path        string
	Branch      string
	Prunable    bool
}

// Report is the outcome of a detection pass.
type Report struct {
	RegistryOrphans []RegistryOrphan
	GitOrphans      []GitOrphan
}

// Clean reports whether no drift was found.
func (r Report) Clean() bool {
	return len(r.RegistryOrphans) == 0 && len(r.GitOrphans) == 0
}

// Detect runs both detection passes.
func Detect(in Input) Report {
	var report Report

	registered := make(map[string]bool, len(in.Records))
	for _, r := range in.Records {
		registered[clean(r.StackID)] = true
		if r.WorktreeFullPath != "" {
			registered[clean(r.WorktreeFullPath)] = true
		}
	}

	for _, r := range in.Records {
		if !r.IsWorktree {
			continue
		}
		if reason, orphaned := registryOrphanReason(r, in); orphaned {
			report.RegistryOrphans = append(report.RegistryOrphans, RegistryOrphan{
				StackID:     r.StackID,
				BaseStackID: r.BaseStackID,
				Branch:      r.WorktreeBranch,
				Reason:      reason,
			})
		}
	}

	for _, baseID := range sortedKeys(in.Bases) {
		base := in.Bases[baseID]
		if !base.ListOK {
			continue
		}
		for _, e := range base.Entries {
			p := clean(e.Path)
			if e.Bare || p == clean(base.RepoPath) {
				continue
			}
			if !stack.IsWithin(clean(base.BaseStackID), p) {
				continue
			}
			if registered[p] {
				continue
			}
			repo := base.RepoPath
			if e.Repo != "" {
				repo = e.Repo
			}
			report.GitOrphans = append(report.GitOrphans, GitOrphan{
				BaseStackID: base.BaseStackID,
				RepoPath:    repo,
				Path:        e.Path,
				Branch:      e.Branch,
				Prunable:    e.Prunable,
			})
		}
	}

	sort.Slice(report.RegistryOrphans, func(i, j int) bool {
		return report.RegistryOrphans[i].StackID < report.RegistryOrphans[j].StackID
	})
	sort.Slice(report.GitOrphans, func(i, j int) bool {
		return report.GitOrphans[i].Path < report.GitOrphans[j].Path
	})

	return report
}

func registryOrphanReason(r stack.Record, in Input) (OrphanReason, bool) {
	path := r.WorktreeFullPath
	if path == "" {
		path = r.StackID
	}
	if !in.PathExists[path] {
		return ReasonPathMissing, true
	}

	base, ok := in.Bases[r.BaseStackID]
	if !ok {
		if !hasRecord(in.Records, r.BaseStackID) {
			return ReasonBaseUnregistered, true
		}
		return "", false
	}
	if !base.ListOK {
		return "", false
	}
	for _, e := range base.Entries {
		if clean(e.Path) == clean(path) {
			return "", false
		}
	}
	return ReasonNotInGit, true
}

// PlanCleanup returns the steps that clean up registry orphans: unregister and delete the
// state file. Git orphans are never touched.
func PlanCleanup(report Report) []effects.Step {
	var steps []effects.Step
	for _, o := range report.RegistryOrphans {
		steps = append(steps,
			effects.Step{
				Name:   "unregister " + o.StackID,
				Effect: effects.RegistryEffect{Operation: "unregister", StackID: o.StackID},
				Policy: effects.BestEffort,
			},
			effects.Step{
				Name:   "delete-state-file " + o.StackID,
				Effect: effects.StateFileEffect{Operation: "delete", StackID: o.StackID},
				Policy: effects.BestEffort,
			},
		)
	}
	return steps
}

// Remediation returns the commands an operator can run for a git orphan.
func Remediation(o GitOrphan) []string {
	if o.Prunable {
		return []string{fmt.Sprintf("git -C %s worktree prune", o.RepoPath)}
	}
	cmds := []string{fmt.Sprintf("git -C %s worktree remove %s", o.RepoPath, o.Path)}
	if o.Branch != "" {
		cmds = append(cmds, fmt.Sprintf("cd %s && slic worktree add %s", o.BaseStackID, o.Branch))
	}
	return cmds
}

func hasRecord(records []stack.Record, id string) bool {
	for _, r := range records {
		if r.StackID == id && !r.IsWorktree {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]BaseWorktrees) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clean(p string) string {
	if p == "" {
		return p
	}
	return filepath.Clean(p)
}
