package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Scalar is a YAML leaf value captured as its source text. Decoding through
// the source text keeps values like "3.10" intact instead of collapsing them
// to the float 3.1, and renders booleans and numbers exactly as written when
// they are later exported to a process environment.
type Scalar string

// UnmarshalYAML implements yaml.Unmarshaler for Scalar.
func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value, got %s", node.Line, kindName(node.Kind))
	}
	*s = Scalar(node.Value)
	return nil
}

// StringList accepts either a single scalar or a sequence of scalars. The
// `needs` key uses both forms in the wild.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a scalar list item, got %s", item.Line, kindName(item.Kind))
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a scalar or a sequence, got %s", node.Line, kindName(node.Kind))
	}
}

// --- Workflow wire structures ---

// Workflow represents the top-level structure of a workflow file.
type Workflow struct {
	Name string            `yaml:"name"`
	On   *Triggers         `yaml:"on"`
	Env  map[string]Scalar `yaml:"env"`
	Jobs yaml.Node         `yaml:"jobs"`
}

// JobEntries decodes the `jobs` mapping while preserving declaration order,
// which a plain map would lose.
func (w *Workflow) JobEntries() ([]JobEntry, error) {
	if w.Jobs.Kind == 0 || w.Jobs.Tag == "!!null" {
		return nil, nil
	}
	if w.Jobs.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: 'jobs' must be a mapping, got %s", w.Jobs.Line, kindName(w.Jobs.Kind))
	}
	entries := make([]JobEntry, 0, len(w.Jobs.Content)/2)
	for i := 0; i+1 < len(w.Jobs.Content); i += 2 {
		keyNode, valNode := w.Jobs.Content[i], w.Jobs.Content[i+1]
		var job Job
		if err := valNode.Decode(&job); err != nil {
			return nil, fmt.Errorf("job '%s': %w", keyNode.Value, err)
		}
		entries = append(entries, JobEntry{ID: keyNode.Value, Job: &job})
	}
	return entries, nil
}

// JobEntry pairs a job id with its decoded body.
type JobEntry struct {
	ID  string
	Job *Job
}

// Triggers represents the `on` block. Trigger keys may carry a null body
// (`pull_request:`), so presence is tracked explicitly instead of relying on
// non-nil pointers.
type Triggers struct {
	PullRequest      bool
	Push             bool
	PushBranches     []string
	WorkflowDispatch bool
	DispatchInputs   map[string]DispatchInput
	Unknown          []string
}

// DispatchInput is a single declared input of a workflow_dispatch trigger.
type DispatchInput struct {
	Description string `yaml:"description"`
	Default     Scalar `yaml:"default"`
	Required    bool   `yaml:"required"`
}

// push is the internal decode target for the `push` trigger body.
type push struct {
	Branches []string `yaml:"branches"`
}

// workflowDispatch is the internal decode target for the `workflow_dispatch` body.
type workflowDispatch struct {
	Inputs map[string]DispatchInput `yaml:"inputs"`
}

// UnmarshalYAML implements yaml.Unmarshaler for Triggers.
func (t *Triggers) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: 'on' must be a mapping of trigger names, got %s", node.Line, kindName(node.Kind))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		switch keyNode.Value {
		case "pull_request":
			t.PullRequest = true
		case "push":
			t.Push = true
			if valNode.Kind == yaml.MappingNode {
				var p push
				if err := valNode.Decode(&p); err != nil {
					return fmt.Errorf("trigger 'push': %w", err)
				}
				t.PushBranches = p.Branches
			}
		case "workflow_dispatch":
			t.WorkflowDispatch = true
			if valNode.Kind == yaml.MappingNode {
				var wd workflowDispatch
				if err := valNode.Decode(&wd); err != nil {
					return fmt.Errorf("trigger 'workflow_dispatch': %w", err)
				}
				t.DispatchInputs = wd.Inputs
			}
		default:
			t.Unknown = append(t.Unknown, keyNode.Value)
		}
	}
	return nil
}

// Job represents a single `jobs.<id>` block.
type Job struct {
	Strategy *Strategy         `yaml:"strategy"`
	Uses     string            `yaml:"uses"`
	With     map[string]Scalar `yaml:"with"`
	Needs    StringList        `yaml:"needs"`
	Env      map[string]Scalar `yaml:"env"`
	Steps    []*Step           `yaml:"steps"`
}

// Strategy represents the `strategy` block of a job.
type Strategy struct {
	Matrix   *Matrix `yaml:"matrix"`
	FailFast *bool   `yaml:"fail-fast"`
}

// Matrix represents a job matrix: named axes plus include/exclude refinements.
type Matrix struct {
	Axes    map[string][]Scalar
	Include []map[string]Scalar
	Exclude []map[string]Scalar
}

// UnmarshalYAML implements yaml.Unmarshaler for Matrix.
func (m *Matrix) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: 'matrix' must be a mapping, got %s", node.Line, kindName(node.Kind))
	}
	m.Axes = make(map[string][]Scalar)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		switch keyNode.Value {
		case "include":
			if err := valNode.Decode(&m.Include); err != nil {
				return fmt.Errorf("matrix 'include': %w", err)
			}
		case "exclude":
			if err := valNode.Decode(&m.Exclude); err != nil {
				return fmt.Errorf("matrix 'exclude': %w", err)
			}
		default:
			var values []Scalar
			if err := valNode.Decode(&values); err != nil {
				return fmt.Errorf("matrix axis '%s': %w", keyNode.Value, err)
			}
			m.Axes[keyNode.Value] = values
		}
	}
	return nil
}

// Step represents a single entry of a job's `steps` list.
type Step struct {
	Name string            `yaml:"name"`
	Kind string            `yaml:"kind"`
	Run  string            `yaml:"run"`
	Env  map[string]Scalar `yaml:"env"`
}

// kindName renders a yaml.Kind for error messages.
func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
