package config

import (
	"github.com/kvolkov/gridci/internal/matrix"
)

// Model is the unified representation of every workflow discovered under the
// configured paths.
type Model struct {
	Workflows []*Workflow
}

// Workflow is the format-agnostic representation of a single workflow file.
type Workflow struct {
	Name     string
	Source   string
	Triggers *Triggers
	Env      map[string]string
	Jobs     map[string]*Job
	// JobOrder preserves declaration order for deterministic planning output.
	JobOrder []string
}

// Triggers describes the conditions under which a workflow runs.
type Triggers struct {
	PullRequest      bool
	Push             bool
	PushBranches     []string
	WorkflowDispatch bool
	DispatchInputs   map[string]DispatchInput
}

// DispatchInput is a declared input of a workflow_dispatch trigger.
type DispatchInput struct {
	Description string
	Default     string
	Required    bool
}

// Job is the format-agnostic representation of a `jobs.<id>` block.
type Job struct {
	ID             string
	Runner         string
	Container      string
	TimeoutMinutes int
	FailFast       bool
	Matrix         *matrix.Spec
	Needs          []string
	Env            map[string]string
	// With carries the remaining runner parameters after container and
	// timeout are pulled out. They are exported to the job environment.
	With  map[string]string
	Steps []*Step
}

// Step is one entry of a job's step sequence.
type Step struct {
	Name string
	Kind string
	Run  string
	Env  map[string]string
}
