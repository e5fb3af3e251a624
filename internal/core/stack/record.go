package stack

// Status is the lifecycle status stored on a stack record.
type Status string

const (
	StatusCreated  Status = "created"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusMigrated Status = "migrated"
)

// Record is one registry entry. The registry key is StackID, an absolute directory path.
// The worktree fields are set iff IsWorktree. WorktreeTarget names the base stack's
// target the worktree was created from; its git repository is BaseStackID/WorktreeTarget.
type Record struct {
	StackID     string         `json:"stack_id"`
	ProjectName string         `json:"project_name"`
	StateFile   string         `json:"state_file"`
	XDebugPort  int            `json:"xdebug_port"`
	XDebugKey   string         `json:"xdebug_key"`
	Ports       map[string]int `json:"ports,omitempty"`
	Status      Status         `json:"status"`
	CreatedAt   string         `json:"created_at"`
	Target      string         `json:"target,omitempty"`
	IsWorktree  bool           `json:"is_worktree"`

	BaseStackID      string `json:"base_stack_id,omitempty"`
	BaseBranch       string `json:"base_branch,omitempty"`
	WorktreeDir      string `json:"worktree_dir,omitempty"`
	WorktreeBranch   string `json:"worktree_branch,omitempty"`
	WorktreeFullPath string `json:"worktree_full_path,omitempty"`
	WorktreeTarget   string `json:"worktree_target,omitempty"`
}

// Patch is a partial update merged into an existing record by the registry.
// Nil fields are left untouched. Ports uses ClearPorts to distinguish "drop" from "keep".
type Patch struct {
	Status     *Status
	Target     *string
	XDebugPort *int
	XDebugKey  *string
	Ports      map[string]int
	ClearPorts bool
}

// Apply merges the patch into r.
func (p Patch) Apply(r *Record) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Target != nil {
		r.Target = *p.Target
	}
	if p.XDebugPort != nil {
		r.XDebugPort = *p.XDebugPort
	}
	if p.XDebugKey != nil {
		r.XDebugKey = *p.XDebugKey
	}
	if p.ClearPorts {
		r.Ports = nil
	} else if p.Ports != nil {
		r.Ports = p.Ports
	}
}

// WithDerived fills the derived identity fields on r from its StackID.
func (r Record) WithDerived() Record {
	id := Derive(r.StackID)
	r.ProjectName = id.ProjectName
	r.XDebugPort = id.XDebugPort
	r.XDebugKey = id.XDebugKey
	return r
}

// StateValues returns the KEY=value pairs persisted in the stack's state file.
func (r Record) StateValues() map[string]string {
	values := map[string]string{
		"SLIC_STACK_ID":        r.StackID,
		"COMPOSE_PROJECT_NAME": r.ProjectName,
		"SLIC_XDEBUG_PORT":     itoa(r.XDebugPort),
		"XDK":                  r.XDebugKey,
		"SLIC_PLUGINS_DIR":     r.StackID,
	}
	if r.IsWorktree {
		values["SLIC_PLUGINS_DIR"] = r.BaseStackID
	}
	if r.Target != "" {
		values["SLIC_CURRENT_PROJECT"] = r.Target
	}
	if r.IsWorktree {
		values["SLIC_IS_WORKTREE"] = "1"
		values["SLIC_BASE_STACK_ID"] = r.BaseStackID
		values["SLIC_WORKTREE_BRANCH"] = r.WorktreeBranch
	}
	return values
}
