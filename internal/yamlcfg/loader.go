package yamlcfg

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kvolkov/gridci/internal/config"
	"github.com/kvolkov/gridci/internal/ctxlog"
	"github.com/kvolkov/gridci/internal/fsutil"
	"github.com/kvolkov/gridci/internal/schema"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load discovers every .yml/.yaml file under the given paths, parses and
// validates each one, and translates the result into the unified model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := &config.Model{}

	for _, root := range paths {
		files, err := fsutil.FindFilesByExtension(root, ".yml", ".yaml")
		if err != nil {
			return nil, fmt.Errorf("discovering workflow files under '%s': %w", root, err)
		}
		logger.Debug("Workflow files discovered.", "root", root, "count", len(files))

		for _, file := range files {
			wf, err := l.loadFile(ctx, file)
			if err != nil {
				return nil, err
			}
			model.Workflows = append(model.Workflows, wf)
		}
	}

	logger.Debug("Workflow loading complete.", "workflows", len(model.Workflows))
	return model, nil
}

// loadFile parses a single workflow file and runs it through validation and
// translation.
func (l *Loader) loadFile(ctx context.Context, path string) (*config.Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow file '%s': %w", path, err)
	}

	var wire schema.Workflow
	if err := yaml.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse '%s': %w", path, err)
	}

	jobs, err := wire.JobEntries()
	if err != nil {
		return nil, fmt.Errorf("failed to parse '%s': %w", path, err)
	}

	if err := validate(&wire, jobs, path); err != nil {
		return nil, err
	}

	return translate(ctx, &wire, jobs, path), nil
}
