package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/kvolkov/gridci/internal/config"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// StepContext carries everything a step handler needs to execute one step of
// one expanded job instance. Run and Env arrive fully interpolated.
type StepContext struct {
	RunID    string
	NodeID   string
	JobID    string
	StepName string
	Run      string
	Env      map[string]string
}

// Handler executes a single step. A non-nil error fails the job instance.
type Handler func(ctx context.Context, sc *StepContext) error

// Registry holds the registered step handlers for a single application instance.
type Registry struct {
	stepKinds map[string]Handler
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{stepKinds: make(map[string]Handler)}
}

// RegisterStepKind registers a Go handler for a step kind.
func (r *Registry) RegisterStepKind(kind string, handler Handler) {
	if _, exists := r.stepKinds[kind]; exists {
		panic(fmt.Sprintf("step kind '%s' already registered", kind))
	}
	if handler == nil {
		panic(fmt.Sprintf("step kind '%s' registered with a nil handler", kind))
	}
	slog.Debug("Registering step kind.", "kind", kind)
	r.stepKinds[kind] = handler
}

// StepKind looks up the handler for a step kind.
func (r *Registry) StepKind(kind string) (Handler, bool) {
	h, ok := r.stepKinds[kind]
	return h, ok
}

// Kinds returns the registered step kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.stepKinds))
	for k := range r.stepKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ValidateModel checks that every step kind referenced by the loaded workflow
// set has a registered handler. Violations are collected and reported together.
func (r *Registry) ValidateModel(ctx context.Context, model *config.Model) error {
	var errs []string
	for _, wf := range model.Workflows {
		for _, jobID := range wf.JobOrder {
			for _, step := range wf.Jobs[jobID].Steps {
				if _, ok := r.stepKinds[step.Kind]; !ok {
					errs = append(errs, fmt.Sprintf(
						"workflow '%s', job '%s', step '%s': no handler registered for step kind '%s'",
						wf.Name, jobID, step.Name, step.Kind))
				}
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
