package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/ports/secondary"
)

// Executor implements secondary.Executor with os/exec.
type Executor struct {
	logger *zap.Logger
}

// NewExecutor creates an executor that logs every command at debug level.
func NewExecutor(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger}
}

// Run executes cmd and captures its exit code, stdout and stderr.
func (e *Executor) Run(ctx context.Context, cmd secondary.Command) (secondary.Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	res := secondary.Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		err = nil
	default:
		e.logger.Debug("command failed to start",
			zap.String("cmd", String(cmd)), zap.String("dir", cmd.Dir), zap.Error(err))
		return res, fmt.Errorf("run %s: %w", cmd.Name, err)
	}

	e.logger.Debug("command finished",
		zap.String("cmd", String(cmd)),
		zap.String("dir", cmd.Dir),
		zap.Int("exit", res.ExitCode),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

// Check runs cmd and turns a non-zero exit into an external-tool error carrying the
// captured output.
func Check(ctx context.Context, ex secondary.Executor, cmd secondary.Command) (secondary.Result, error) {
	res, err := ex.Run(ctx, cmd)
	if err != nil {
		return res, apperr.ExternalTool(fmt.Sprintf("%s could not be started", cmd.Name), "", err)
	}
	if res.ExitCode != 0 {
		return res, apperr.ExternalTool(
			fmt.Sprintf("%s exited with status %d", String(cmd), res.ExitCode),
			Output(res), nil)
	}
	return res, nil
}

var _ secondary.Executor = (*Executor)(nil)
