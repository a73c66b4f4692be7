package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kvolkov/gridci/internal/config"
	"github.com/kvolkov/gridci/internal/ctxlog"
	"github.com/kvolkov/gridci/internal/dag"
	"github.com/kvolkov/gridci/internal/event"
	"github.com/kvolkov/gridci/internal/hparams"
	"github.com/kvolkov/gridci/modules/env_vars"
	"github.com/kvolkov/gridci/modules/notify"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if appConfig.MetricsPort > 0 {
		a.startMetricsServer(appConfig.MetricsPort)
	}

	if appConfig.ExperimentPath != "" {
		return a.runExperiment(appConfig.ExperimentPath)
	}

	ev, err := a.buildEvent(appConfig)
	if err != nil {
		return err
	}

	matched := a.matchWorkflows(ev)
	if len(matched) == 0 {
		a.logger.Warn("No workflow matched the event.", "event", ev.Kind, "branch", ev.Branch)
		return nil
	}
	a.logger.Info("Workflows matched.", "event", ev.Kind, "count", len(matched))

	if appConfig.DryRun {
		return a.printPlan(ctx, matched)
	}

	runID := uuid.NewString()
	a.logger = a.logger.With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, a.logger)

	var notifier dag.Notifier
	if appConfig.NotifyURL != "" {
		client, err := notify.Dial(ctx, appConfig.NotifyURL)
		if err != nil {
			return fmt.Errorf("failed to connect notifier: %w", err)
		}
		defer client.Close()
		notifier = client
	}

	baseEnv := env_vars.Snapshot()

	for _, wf := range matched {
		if err := a.runWorkflow(ctx, appConfig, wf, ev, runID, baseEnv, notifier); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// buildEvent turns the CLI-level event description into an event.Event.
func (a *App) buildEvent(appConfig *Config) (event.Event, error) {
	kind, err := event.ParseKind(appConfig.EventKind)
	if err != nil {
		return event.Event{}, err
	}
	ev := event.Event{
		Kind:   kind,
		Branch: appConfig.Branch,
		Inputs: appConfig.DispatchInputs,
	}
	if kind == event.Push && ev.Branch == "" {
		return event.Event{}, fmt.Errorf("a branch is required for push events")
	}
	return ev, nil
}

// matchWorkflows selects the loaded workflows whose triggers accept the event.
func (a *App) matchWorkflows(ev event.Event) []*config.Workflow {
	var matched []*config.Workflow
	for _, wf := range a.model.Workflows {
		if event.Matches(wf.Triggers, ev) {
			matched = append(matched, wf)
		} else {
			a.logger.Debug("Workflow does not match event.", "workflow", wf.Name)
		}
	}
	return matched
}

// runWorkflow builds and executes the job graph of a single workflow.
func (a *App) runWorkflow(ctx context.Context, appConfig *Config, wf *config.Workflow, ev event.Event, runID string, baseEnv map[string]string, notifier dag.Notifier) error {
	wfEnv := baseEnv
	if ev.Kind == event.WorkflowDispatch {
		inputs, err := event.DispatchInputs(wf.Triggers.DispatchInputs, ev.Inputs)
		if err != nil {
			return fmt.Errorf("workflow '%s': %w", wf.Name, err)
		}
		wfEnv = make(map[string]string, len(baseEnv)+len(inputs))
		for k, v := range baseEnv {
			wfEnv[k] = v
		}
		for k, v := range inputs {
			wfEnv[k] = v
		}
	}

	a.logger.Debug("Building job graph...", "workflow", wf.Name)
	graph, err := dag.Build(ctx, wf)
	if err != nil {
		return fmt.Errorf("failed to build job graph for '%s': %w", wf.Name, err)
	}
	a.logger.Debug("Job graph built.", "node_count", len(graph.Nodes))

	if len(graph.Nodes) == 0 {
		a.logger.Warn("No job instances in graph, execution not required.", "workflow", wf.Name)
		return nil
	}

	a.logger.Info("🚀 Starting workflow execution...", "workflow", wf.Name, "instances", len(graph.Nodes))
	exec := dag.New(graph, appConfig.WorkerCount, a.registry, dag.Options{
		RunID:    runID,
		BaseEnv:  wfEnv,
		Notifier: notifier,
	})
	if err := exec.Run(ctx); err != nil {
		return fmt.Errorf("workflow '%s' failed: %w", wf.Name, err)
	}
	a.logger.Info("🏁 Workflow finished.", "workflow", wf.Name)
	return nil
}

// printPlan renders the expansion of every matched workflow without running
// anything.
func (a *App) printPlan(ctx context.Context, matched []*config.Workflow) error {
	for _, wf := range matched {
		graph, err := dag.Build(ctx, wf)
		if err != nil {
			return fmt.Errorf("failed to build job graph for '%s': %w", wf.Name, err)
		}
		ids := make([]string, 0, len(graph.Nodes))
		for id := range graph.Nodes {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Fprintf(a.outW, "workflow %s (%s)\n", wf.Name, wf.Source)
		for _, id := range ids {
			node := graph.Nodes[id]
			fmt.Fprintf(a.outW, "  %s  runner=%s steps=%d\n", id, node.Job.Runner, len(node.Job.Steps))
		}
	}
	return nil
}

// runExperiment loads an experiment sheet and prints the fully resolved
// values, defaults applied.
func (a *App) runExperiment(path string) error {
	cfg, err := hparams.Load(path)
	if err != nil {
		return err
	}
	a.logger.Info("Experiment sheet loaded.", "path", path,
		"env", cfg.Env.Name, "batch_size", cfg.Optim.BatchSize)

	rendered, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("rendering experiment sheet: %w", err)
	}
	_, err = a.outW.Write(rendered)
	return err
}
