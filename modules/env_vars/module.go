// Package env_vars exposes the ambient process environment: as a snapshot
// for the expression scope, and as an 'env_vars' step kind that dumps the
// merged environment for debugging a workflow.
package env_vars

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/kvolkov/gridci/internal/ctxlog"
	"github.com/kvolkov/gridci/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Snapshot captures the current process environment as a map.
func Snapshot() map[string]string {
	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap
}

// OnRunEnvVars is the handler for the 'env_vars' step kind. It logs the
// step's merged environment in sorted order.
func OnRunEnvVars(ctx context.Context, sc *registry.StepContext) error {
	logger := ctxlog.FromContext(ctx).With("step", sc.StepName, "job", sc.NodeID)

	keys := make([]string, 0, len(sc.Env))
	for k := range sc.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		logger.Info("env", "key", k, "value", sc.Env[k])
	}
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStepKind("env_vars", OnRunEnvVars)
}
