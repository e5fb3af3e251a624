package compose

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/slic/internal/adapters/envfile"
	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/ports/secondary"
)

type fakeExecutor struct {
	calls  []secondary.Command
	result secondary.Result
}

func (f *fakeExecutor) Run(_ context.Context, cmd secondary.Command) (secondary.Result, error) {
	f.calls = append(f.calls, cmd)
	return f.result, nil
}

type fakeLister struct {
	opts       container.ListOptions
	containers []container.Summary
	err        error
}

func (f *fakeLister) ContainerList(_ context.Context, opts container.ListOptions) ([]container.Summary, error) {
	f.opts = opts
	return f.containers, f.err
}

func TestEngine_Stop(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	composeFile := filepath.Join(dir, "docker-compose.yml")
	require.NoError(t, os.WriteFile(composeFile, []byte("services: {}\n"), 0644))
	states := envfile.New(filepath.Join(dir, "stacks"))
	require.NoError(t, states.Write(ctx, "/a/plugins", map[string]string{"A": "1"}, true))

	ex := &fakeExecutor{}
	e := NewEngine(ex, "docker compose", composeFile, states)

	require.NoError(t, e.Stop(ctx, "slic_abc", "/a/plugins"))
	require.Len(t, ex.calls, 1)
	assert.Equal(t, "docker", ex.calls[0].Name)
	assert.Equal(t, []string{
		"compose", "-p", "slic_abc",
		"-f", composeFile,
		"--env-file", states.Path("/a/plugins"),
		"stop",
	}, ex.calls[0].Args)
}

func TestEngine_StopWithoutFiles(t *testing.T) {
	ex := &fakeExecutor{}
	e := NewEngine(ex, "podman-compose", filepath.Join(t.TempDir(), "missing.yml"), nil)

	require.NoError(t, e.Stop(context.Background(), "slic_abc", "/a/plugins"))
	assert.Equal(t, "podman-compose", ex.calls[0].Name)
	assert.Equal(t, []string{"-p", "slic_abc", "stop"}, ex.calls[0].Args)
}

func TestEngine_StopFailure(t *testing.T) {
	ex := &fakeExecutor{result: secondary.Result{ExitCode: 1, Stderr: "Cannot connect to the Docker daemon"}}
	e := NewEngine(ex, "docker compose", "", nil)

	err := e.Stop(context.Background(), "slic_abc", "/a/plugins")
	require.Error(t, err)
	assert.Equal(t, apperr.KindExternalTool, apperr.KindOf(err))
	assert.Contains(t, apperr.OutputOf(err), "Docker daemon")
}

func TestCatalog_FromComposeFile(t *testing.T) {
	dir := t.TempDir()
	composeFile := filepath.Join(dir, "docker-compose.yml")
	content := `services:
  wordpress:
    image: wordpress
    ports:
      - "${WORDPRESS_HTTP_PORT:-8080}:80"
  db:
    image: mariadb
    ports:
      - "3306"
  cli:
    image: wordpress:cli
`
	require.NoError(t, os.WriteFile(composeFile, []byte(content), 0644))

	got, err := NewCatalog(composeFile, []string{"ignored"}).ExpectedServices(context.Background(), "slic_abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"db", "wordpress"}, got)
}

func TestCatalog_Fallback(t *testing.T) {
	got, err := NewCatalog(filepath.Join(t.TempDir(), "missing.yml"), []string{"wordpress", "db"}).
		ExpectedServices(context.Background(), "slic_abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"db", "wordpress"}, got)
}

func TestCatalog_InvalidFile(t *testing.T) {
	composeFile := filepath.Join(t.TempDir(), "docker-compose.yml")
	require.NoError(t, os.WriteFile(composeFile, []byte("services: [not, a, map"), 0644))

	_, err := NewCatalog(composeFile, nil).ExpectedServices(context.Background(), "slic_abc")
	assert.Error(t, err)
}

func TestDockerPorts_PublishedPorts(t *testing.T) {
	lister := &fakeLister{containers: []container.Summary{
		{
			Labels: map[string]string{serviceLabel: "wordpress"},
			Ports: []container.Port{
				{PrivatePort: 443, PublicPort: 8443},
				{PrivatePort: 80, PublicPort: 8080},
			},
		},
		{
			Labels: map[string]string{serviceLabel: "db"},
			Ports:  []container.Port{{PrivatePort: 3306, PublicPort: 33060}},
		},
		{
			Labels: map[string]string{serviceLabel: "cli"},
			Ports:  []container.Port{{PrivatePort: 9000}},
		},
		{
			Labels: map[string]string{},
			Ports:  []container.Port{{PrivatePort: 1, PublicPort: 2}},
		},
	}}

	got, err := NewDockerPortsWithLister(lister).PublishedPorts(context.Background(), "slic_abc")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"wordpress": 8080, "db": 33060}, got)
	assert.Equal(t, []string{projectLabel + "=slic_abc"}, lister.opts.Filters.Get("label"))
}

func TestDockerPorts_ListError(t *testing.T) {
	lister := &fakeLister{err: errors.New("daemon down")}

	_, err := NewDockerPortsWithLister(lister).PublishedPorts(context.Background(), "slic_abc")
	require.Error(t, err)
	assert.Equal(t, apperr.KindExternalTool, apperr.KindOf(err))
}
