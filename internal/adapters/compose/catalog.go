package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	composetypes "github.com/compose-spec/compose-go/v2/types"

	"github.com/example/slic/internal/ports/secondary"
)

// Catalog implements secondary.ServiceCatalog from the compose file. When the file
// does not exist the configured fallback services are used.
type Catalog struct {
	composeFile string
	fallback    []string
}

// NewCatalog creates a service catalog.
func NewCatalog(composeFile string, fallback []string) *Catalog {
	return &Catalog{composeFile: composeFile, fallback: fallback}
}

// ExpectedServices returns the sorted names of services that publish ports.
func (c *Catalog) ExpectedServices(ctx context.Context, projectName string) ([]string, error) {
	data, err := os.ReadFile(c.composeFile)
	if errors.Is(err, os.ErrNotExist) || c.composeFile == "" {
		return sortedCopy(c.fallback), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read compose file %s: %w", c.composeFile, err)
	}

	env := make(composetypes.Mapping)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}

	details := composetypes.ConfigDetails{
		WorkingDir:  filepath.Dir(c.composeFile),
		ConfigFiles: []composetypes.ConfigFile{{Filename: c.composeFile, Content: data}},
		Environment: env,
	}
	project, err := loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		o.SkipConsistencyCheck = true
		o.SkipResolveEnvironment = true
		if projectName != "" {
			o.SetProjectName(projectName, true)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("load compose file %s: %w", c.composeFile, err)
	}

	var services []string
	for name, svc := range project.Services {
		if len(svc.Ports) > 0 {
			services = append(services, name)
		}
	}
	sort.Strings(services)
	return services, nil
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

var _ secondary.ServiceCatalog = (*Catalog)(nil)
