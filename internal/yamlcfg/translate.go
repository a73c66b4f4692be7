package yamlcfg

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kvolkov/gridci/internal/config"
	"github.com/kvolkov/gridci/internal/ctxlog"
	"github.com/kvolkov/gridci/internal/matrix"
	"github.com/kvolkov/gridci/internal/schema"
)

// defaultTimeoutMinutes applies when a job declares no timeout of its own.
const defaultTimeoutMinutes = 120

// translate converts the YAML-specific wire structures into the agnostic model.
// The wire form is assumed to have passed validation.
func translate(ctx context.Context, wire *schema.Workflow, jobs []schema.JobEntry, path string) *config.Workflow {
	logger := ctxlog.FromContext(ctx)

	wf := &config.Workflow{
		Name:     wire.Name,
		Source:   path,
		Triggers: translateTriggers(wire.On),
		Env:      scalarMap(wire.Env),
		Jobs:     make(map[string]*config.Job, len(jobs)),
	}
	if wf.Name == "" {
		wf.Name = path
	}

	for _, entry := range jobs {
		if _, exists := wf.Jobs[entry.ID]; exists {
			logger.Warn("Duplicate job definition found, it will be overwritten.", "job", entry.ID, "file", path)
		} else {
			wf.JobOrder = append(wf.JobOrder, entry.ID)
		}
		wf.Jobs[entry.ID] = translateJob(entry.ID, entry.Job)
	}

	return wf
}

// translateTriggers converts the wire trigger block into the agnostic model.
func translateTriggers(t *schema.Triggers) *config.Triggers {
	out := &config.Triggers{
		PullRequest:      t.PullRequest,
		Push:             t.Push,
		PushBranches:     t.PushBranches,
		WorkflowDispatch: t.WorkflowDispatch,
	}
	if len(t.DispatchInputs) > 0 {
		out.DispatchInputs = make(map[string]config.DispatchInput, len(t.DispatchInputs))
		for name, in := range t.DispatchInputs {
			out.DispatchInputs[name] = config.DispatchInput{
				Description: in.Description,
				Default:     string(in.Default),
				Required:    in.Required,
			}
		}
	}
	return out
}

// translateJob converts one wire job into the agnostic model, pulling the
// runner parameters with dedicated meaning (container image, timeout, inline
// script) out of the `with` block.
func translateJob(id string, job *schema.Job) *config.Job {
	out := &config.Job{
		ID:             id,
		Runner:         job.Uses,
		TimeoutMinutes: defaultTimeoutMinutes,
		FailFast:       true,
		Needs:          []string(job.Needs),
		Env:            scalarMap(job.Env),
		With:           make(map[string]string),
	}

	if job.Strategy != nil {
		if job.Strategy.FailFast != nil {
			out.FailFast = *job.Strategy.FailFast
		}
		if job.Strategy.Matrix != nil {
			out.Matrix = translateMatrix(job.Strategy.Matrix)
		}
	}

	var inlineScript string
	for key, val := range job.With {
		switch key {
		case "container", "docker-image":
			out.Container = string(val)
		case "timeout", "timeout-minutes":
			// Validated upstream; Atoi cannot fail here.
			out.TimeoutMinutes, _ = strconv.Atoi(string(val))
		case "script":
			inlineScript = string(val)
		default:
			out.With[key] = string(val)
		}
	}

	for i, s := range job.Steps {
		step := &config.Step{
			Name: s.Name,
			Kind: s.Kind,
			Run:  s.Run,
			Env:  scalarMap(s.Env),
		}
		if step.Kind == "" {
			step.Kind = "script"
		}
		if step.Name == "" {
			step.Name = fmt.Sprintf("%s-%d", step.Kind, i+1)
		}
		out.Steps = append(out.Steps, step)
	}

	// The `with.script` shorthand stands in for a single script step.
	if len(out.Steps) == 0 && inlineScript != "" {
		out.Steps = []*config.Step{{
			Name: "script",
			Kind: "script",
			Run:  inlineScript,
		}}
	}

	return out
}

// translateMatrix converts the wire matrix into the expansion spec.
func translateMatrix(m *schema.Matrix) *matrix.Spec {
	spec := &matrix.Spec{
		Axes: make(map[string][]string, len(m.Axes)),
	}
	for axis, values := range m.Axes {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = string(v)
		}
		spec.Axes[axis] = out
	}
	for _, inc := range m.Include {
		spec.Include = append(spec.Include, matrix.Combination(scalarMap(inc)))
	}
	for _, ex := range m.Exclude {
		spec.Exclude = append(spec.Exclude, matrix.Combination(scalarMap(ex)))
	}
	return spec
}

// scalarMap converts a wire scalar map into plain strings.
func scalarMap(in map[string]schema.Scalar) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = string(v)
	}
	return out
}
