package shell

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/ports/secondary"
)

func TestBuilder(t *testing.T) {
	cmd := Command("git", "worktree").Arg("add", "/a b/c").In("/repo").Env("GIT_TERMINAL_PROMPT=0").Build()

	assert.Equal(t, "git", cmd.Name)
	assert.Equal(t, []string{"worktree", "add", "/a b/c"}, cmd.Args)
	assert.Equal(t, "/repo", cmd.Dir)
	assert.Equal(t, []string{"GIT_TERMINAL_PROMPT=0"}, cmd.Env)
	assert.Equal(t, `git worktree add "/a b/c"`, String(cmd))
}

func TestBuilder_BuildCopies(t *testing.T) {
	b := Command("git", "status")
	first := b.Build()
	b.Arg("--porcelain")

	assert.Equal(t, []string{"status"}, first.Args)
	assert.Equal(t, []string{"status", "--porcelain"}, b.Build().Args)
}

func TestFromLine(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantArgs []string
	}{
		{"docker compose", "docker", []string{"compose"}},
		{"podman-compose", "podman-compose", nil},
		{`docker compose --project-directory "/a b"`, "docker", []string{"compose", "--project-directory", "/a b"}},
		{"docker $HOME", "docker", []string{"$HOME"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			b, err := FromLine(tt.line)
			require.NoError(t, err)
			cmd := b.Build()
			assert.Equal(t, tt.wantName, cmd.Name)
			assert.Equal(t, tt.wantArgs, cmd.Args)
		})
	}
}

func TestFromLine_Errors(t *testing.T) {
	_, err := FromLine("   ")
	assert.Error(t, err)

	_, err = FromLine(`docker "unterminated`)
	assert.Error(t, err)
}

func TestOutput(t *testing.T) {
	assert.Equal(t, "err\nout", Output(secondary.Result{Stdout: "out\n", Stderr: "err\n"}))
	assert.Equal(t, "out", Output(secondary.Result{Stdout: "out\n"}))
}

func TestExecutor_Run(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ex := NewExecutor(nil)

	res, err := ex.Run(context.Background(), Command("sh", "-c", "echo out; echo err >&2; exit 3").Build())
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)

	_, err = ex.Run(context.Background(), Command("slic-no-such-binary").Build())
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ex := NewExecutor(nil)

	_, err := Check(context.Background(), ex, Command("sh", "-c", "echo boom >&2; exit 1").Build())
	require.Error(t, err)
	assert.Equal(t, apperr.KindExternalTool, apperr.KindOf(err))
	assert.Equal(t, "boom", apperr.OutputOf(err))

	res, err := Check(context.Background(), ex, Command("sh", "-c", "echo ok").Build())
	require.NoError(t, err)
	assert.Equal(t, "ok\n", res.Stdout)
}
