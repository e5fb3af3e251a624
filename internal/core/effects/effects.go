// Package effects defines effect types as data structures representing I/O operations.
// Planners in core return ordered steps built from these effects; the app layer is the
// only place that interprets them.
package effects

// Effect is the base interface for all effects.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// Git operations.
const (
	GitWorktreeAdd    = "worktree_add"
	GitWorktreeRemove = "worktree_remove"
	GitCheckout       = "checkout"
	GitMerge          = "merge"
	GitDeleteBranch   = "delete_branch"
	GitVerifyMerged   = "verify_merged" // Args: branch, into; fails unless branch is merged into into
)

// GitEffect represents a git operation run inside RepoPath.
type GitEffect struct {
	Operation string
	RepoPath  string
	Args      []string
}

func (e GitEffect) EffectType() string { return "git" }

// ComposeEffect represents a container-engine project operation.
type ComposeEffect struct {
	Operation   string // "stop"
	ProjectName string
	StackID     string
}

func (e ComposeEffect) EffectType() string { return "compose" }

// RegistryEffect represents a registry mutation.
type RegistryEffect struct {
	Operation string // "register", "unregister"
	StackID   string
	Record    any // stack.Record for "register"
	Cascade   bool
}

func (e RegistryEffect) EffectType() string { return "registry" }

// StateFileEffect represents a per-stack state file operation.
type StateFileEffect struct {
	Operation string // "write", "delete"
	StackID   string
	Values    map[string]string
}

func (e StateFileEffect) EffectType() string { return "state_file" }

// FileEffect represents a file system operation.
type FileEffect struct {
	Operation string // "remove_all"
	Path      string
}

func (e FileEffect) EffectType() string { return "file" }

// Policy decides what happens to the remaining steps when a step fails.
type Policy int

const (
	// Halt stops the sequence; later steps are reported as pending.
	Halt Policy = iota
	// BestEffort records the failure and continues with the next step.
	BestEffort
)

// Step is one named, ordered unit of a multi-step operation.
type Step struct {
	Name   string
	Effect Effect
	Policy Policy

	// Fallback runs when Effect fails; the step succeeds if the fallback does.
	Fallback Effect

	// Verify makes a step resumable. A step journaled as done by an earlier,
	// unfinished run of the same operation is skipped only if Verify succeeds
	// against the current state; otherwise it runs again.
	Verify Effect
}
