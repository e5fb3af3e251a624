package compose

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/ports/secondary"
)

const (
	projectLabel = "com.docker.compose.project"
	serviceLabel = "com.docker.compose.service"
)

// ContainerLister is the subset of the docker client used for port queries.
type ContainerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// DockerPorts implements secondary.PortSource with the docker engine API. The client
// is created on first use so commands that never query ports work without a daemon.
type DockerPorts struct {
	once   sync.Once
	lister ContainerLister
	err    error
}

// NewDockerPorts creates a port source using the environment's docker settings.
func NewDockerPorts() *DockerPorts {
	return &DockerPorts{}
}

// NewDockerPortsWithLister creates a port source on an existing lister.
func NewDockerPortsWithLister(lister ContainerLister) *DockerPorts {
	p := &DockerPorts{lister: lister}
	p.once.Do(func() {})
	return p
}

// PublishedPorts returns service -> published host port for the running containers of
// the compose project. For a service publishing several ports the binding of the
// lowest container port wins.
func (p *DockerPorts) PublishedPorts(ctx context.Context, projectName string) (map[string]int, error) {
	p.once.Do(func() {
		p.lister, p.err = client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	})
	if p.err != nil {
		return nil, apperr.ExternalTool("cannot create docker client", "", p.err)
	}

	containers, err := p.lister.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("label", projectLabel+"="+projectName)),
	})
	if err != nil {
		return nil, apperr.ExternalTool(fmt.Sprintf("cannot list containers of %s", projectName), "", err)
	}

	return publishedPorts(containers), nil
}

func publishedPorts(containers []container.Summary) map[string]int {
	ports := map[string]int{}
	for _, c := range containers {
		svc := c.Labels[serviceLabel]
		if svc == "" {
			continue
		}
		bindings := append([]container.Port(nil), c.Ports...)
		sort.Slice(bindings, func(i, j int) bool { return bindings[i].PrivatePort < bindings[j].PrivatePort })
		for _, b := range bindings {
			if b.PublicPort > 0 {
				ports[svc] = int(b.PublicPort)
				break
			}
		}
	}
	return ports
}

var _ secondary.PortSource = (*DockerPorts)(nil)
