package dag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/kvolkov/gridci/internal/ctxlog"
	"github.com/kvolkov/gridci/internal/expr"
	"github.com/kvolkov/gridci/internal/metrics"
	"github.com/kvolkov/gridci/internal/registry"
)

// executeJobNode runs one expanded job instance: it layers the environment,
// resolves expressions, and runs the job's steps in order under the job
// timeout.
func (e *Executor) executeJobNode(ctx context.Context, node *Node) error {
	logger := ctxlog.FromContext(ctx).With("job", node.ID)
	logger.Info("▶️ Starting job", "runner", node.Job.Runner, "container", node.Job.Container)

	jobCtx, cancel := context.WithTimeout(ctx, time.Duration(node.Job.TimeoutMinutes)*time.Minute)
	defer cancel()

	// Workflow-, job- and runner-level values may reference the matrix and
	// the ambient environment.
	baseScope := expr.NewScope().
		SetStringMap("matrix", node.Combo).
		SetStringMap("env", e.opts.BaseEnv).
		Set("job", jobScopeValue(node))

	wfEnv, err := expr.InterpolateMap(node.Workflow.Env, baseScope)
	if err != nil {
		return fmt.Errorf("workflow env: %w", err)
	}
	jobEnv, err := expr.InterpolateMap(node.Job.Env, baseScope)
	if err != nil {
		return fmt.Errorf("job env: %w", err)
	}
	withEnv, err := expr.InterpolateMap(node.Job.With, baseScope)
	if err != nil {
		return fmt.Errorf("runner parameters: %w", err)
	}

	// Later layers win: ambient < workflow env < job env < runner extras.
	env := mergeEnv(e.opts.BaseEnv, wfEnv, jobEnv, withEnv)

	for _, step := range node.Job.Steps {
		handler, ok := e.registry.StepKind(step.Kind)
		if !ok {
			return fmt.Errorf("step '%s': no handler registered for step kind '%s'", step.Name, step.Kind)
		}

		stepScope := expr.NewScope().
			SetStringMap("matrix", node.Combo).
			SetStringMap("env", env).
			Set("job", jobScopeValue(node))

		stepEnv, err := expr.InterpolateMap(step.Env, stepScope)
		if err != nil {
			return fmt.Errorf("step '%s' env: %w", step.Name, err)
		}
		runBody, err := expr.Interpolate(step.Run, stepScope)
		if err != nil {
			return fmt.Errorf("step '%s': %w", step.Name, err)
		}

		sc := &registry.StepContext{
			RunID:    e.opts.RunID,
			NodeID:   node.ID,
			JobID:    node.Job.ID,
			StepName: step.Name,
			Run:      runBody,
			Env:      mergeEnv(env, stepEnv),
		}

		logger.Info("Running step", "step", step.Name, "kind", step.Kind)
		if err := handler(jobCtx, sc); err != nil {
			metrics.StepsTotal.WithLabelValues(step.Kind, "failed").Inc()
			if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("step '%s': job timed out after %d minutes: %w", step.Name, node.Job.TimeoutMinutes, err)
			}
			return fmt.Errorf("step '%s': %w", step.Name, err)
		}
		metrics.StepsTotal.WithLabelValues(step.Kind, "succeeded").Inc()
	}

	logger.Info("✅ Job finished")
	return nil
}

// jobScopeValue exposes the current job to expressions as `job.id`,
// `job.runner` and `job.container`.
func jobScopeValue(node *Node) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"id":        cty.StringVal(node.Job.ID),
		"runner":    cty.StringVal(node.Job.Runner),
		"container": cty.StringVal(node.Job.Container),
	})
}

// mergeEnv overlays the given maps left to right; later maps win.
func mergeEnv(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
