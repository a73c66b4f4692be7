// Package event models the external occurrences that can trigger a workflow
// run and implements the matching rules between an event and a workflow's
// declared triggers.
package event

import (
	"fmt"
	"strings"

	"github.com/kvolkov/gridci/internal/config"
)

// Kind enumerates the supported trigger event kinds.
type Kind string

const (
	Push             Kind = "push"
	PullRequest      Kind = "pull_request"
	WorkflowDispatch Kind = "workflow_dispatch"
)

// ParseKind converts a user-supplied event name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case Push:
		return Push, nil
	case PullRequest:
		return PullRequest, nil
	case WorkflowDispatch:
		return WorkflowDispatch, nil
	default:
		return "", fmt.Errorf("unknown event kind '%s' (expected push, pull_request, or workflow_dispatch)", s)
	}
}

// Event is a single trigger occurrence presented to the workflow set.
type Event struct {
	Kind   Kind
	Branch string
	// Inputs carries workflow_dispatch inputs. They are merged into the env
	// scope of matched workflows.
	Inputs map[string]string
}

// Matches reports whether the event satisfies the workflow's trigger block.
func Matches(t *config.Triggers, ev Event) bool {
	switch ev.Kind {
	case PullRequest:
		return t.PullRequest
	case WorkflowDispatch:
		return t.WorkflowDispatch
	case Push:
		if !t.Push {
			return false
		}
		// A push trigger with no branch filter matches every branch.
		if len(t.PushBranches) == 0 {
			return true
		}
		for _, pattern := range t.PushBranches {
			if branchMatches(pattern, ev.Branch) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// branchMatches compares a branch name against a declared pattern. A single
// trailing '*' matches any suffix, so 'release/*' covers 'release/0.9.1'.
func branchMatches(pattern, branch string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(branch, prefix)
	}
	return pattern == branch
}

// DispatchInputs resolves the effective inputs of a workflow_dispatch event
// against the workflow's declared inputs: defaults fill absent values, and
// required inputs without a value are an error.
func DispatchInputs(declared map[string]config.DispatchInput, provided map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(declared))
	for name, in := range declared {
		if v, ok := provided[name]; ok {
			out[name] = v
			continue
		}
		if in.Required && in.Default == "" {
			return nil, fmt.Errorf("workflow_dispatch input '%s' is required but was not provided", name)
		}
		out[name] = in.Default
	}
	for name, v := range provided {
		if _, ok := declared[name]; !ok {
			out[name] = v
		}
	}
	return out, nil
}
