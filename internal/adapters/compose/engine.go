// Package compose is the container-engine collaborator: it stops compose projects,
// reads the services a stack is expected to publish and queries live port bindings.
package compose

import (
	"context"
	"fmt"
	"os"

	"github.com/example/slic/internal/adapters/shell"
	"github.com/example/slic/internal/ports/secondary"
)

// Engine implements secondary.ComposeEngine by running the configured compose command.
type Engine struct {
	exec        secondary.Executor
	commandLine string
	composeFile string
	states      secondary.StateFiles
}

// NewEngine creates an engine. commandLine is split into argv, e.g. "docker compose".
func NewEngine(exec secondary.Executor, commandLine, composeFile string, states secondary.StateFiles) *Engine {
	return &Engine{exec: exec, commandLine: commandLine, composeFile: composeFile, states: states}
}

// Stop runs `<compose> -p <project> [-f <file>] [--env-file <state>] stop`.
func (e *Engine) Stop(ctx context.Context, projectName, stackID string) error {
	b, err := shell.FromLine(e.commandLine)
	if err != nil {
		return err
	}
	b.Arg("-p", projectName)
	if e.composeFile != "" && fileExists(e.composeFile) {
		b.Arg("-f", e.composeFile)
	}
	if e.states != nil {
		if stateFile := e.states.Path(stackID); fileExists(stateFile) {
			b.Arg("--env-file", stateFile)
		}
	}
	b.Arg("stop")

	if _, err := shell.Check(ctx, e.exec, b.Build()); err != nil {
		return fmt.Errorf("stop project %s: %w", projectName, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

var _ secondary.ComposeEngine = (*Engine)(nil)
