package secondary

import "context"

// Command is a typed external-tool invocation. Arguments are passed to the
// process verbatim; no shell is involved.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// Result is the captured outcome of a command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor defines the secondary port for running external commands.
type Executor interface {
	// Run executes cmd. A non-zero exit is reported in Result, not as an error;
	// err is reserved for commands that could not be started.
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Prompter defines the secondary port for operator confirmations.
type Prompter interface {
	// Confirm asks a yes/no question. Non-interactive sessions answer no.
	Confirm(ctx context.Context, question string) (bool, error)
}
