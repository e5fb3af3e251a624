package secondary

import "context"

// ComposeEngine defines the secondary port for container project lifecycle.
type ComposeEngine interface {
	// Stop stops every container of the project. Stopping a project with no
	// running containers succeeds.
	Stop(ctx context.Context, projectName, stackID string) error
}

// PortSource defines the secondary port for live port bindings.
type PortSource interface {
	// PublishedPorts returns service name -> published host port for the project.
	PublishedPorts(ctx context.Context, projectName string) (map[string]int, error)
}

// ServiceCatalog defines the secondary port for the services a stack is expected to expose.
type ServiceCatalog interface {
	// ExpectedServices returns the sorted service names that publish ports.
	ExpectedServices(ctx context.Context, projectName string) ([]string, error)
}
