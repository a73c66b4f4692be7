package yamlcfg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kvolkov/gridci/internal/schema"
)

// validate performs the structural checks a workflow must pass before
// translation. All violations are collected and reported together.
func validate(wire *schema.Workflow, jobs []schema.JobEntry, path string) error {
	var errs []string

	if wire.On == nil {
		errs = append(errs, "missing required key 'on'")
	} else if !wire.On.PullRequest && !wire.On.Push && !wire.On.WorkflowDispatch {
		if len(wire.On.Unknown) > 0 {
			errs = append(errs, fmt.Sprintf("unsupported trigger(s): %s", strings.Join(wire.On.Unknown, ", ")))
		} else {
			errs = append(errs, "'on' declares no triggers")
		}
	}

	if len(jobs) == 0 {
		errs = append(errs, "missing required key 'jobs' (or it is empty)")
	}

	declared := make(map[string]struct{}, len(jobs))
	for _, entry := range jobs {
		declared[entry.ID] = struct{}{}
	}

	for _, entry := range jobs {
		id, job := entry.ID, entry.Job

		if job.Uses == "" {
			errs = append(errs, fmt.Sprintf("job '%s': missing required key 'uses'", id))
		}

		if job.Strategy != nil {
			if job.Strategy.Matrix == nil || len(job.Strategy.Matrix.Axes) == 0 {
				errs = append(errs, fmt.Sprintf("job '%s': 'strategy' requires a non-empty 'strategy.matrix'", id))
			} else {
				for axis, values := range job.Strategy.Matrix.Axes {
					if len(values) == 0 {
						errs = append(errs, fmt.Sprintf("job '%s': matrix axis '%s' has no values", id, axis))
					}
					for _, v := range values {
						if v == "" {
							errs = append(errs, fmt.Sprintf("job '%s': matrix axis '%s' contains an empty value", id, axis))
						}
					}
				}
			}
		}

		for _, need := range job.Needs {
			if _, ok := declared[need]; !ok {
				errs = append(errs, fmt.Sprintf("job '%s': 'needs' references unknown job '%s'", id, need))
			}
		}

		if raw, ok := timeoutScalar(job.With); ok {
			if minutes, err := strconv.Atoi(string(raw)); err != nil || minutes <= 0 {
				errs = append(errs, fmt.Sprintf("job '%s': timeout must be a positive integer number of minutes, got '%s'", id, raw))
			}
		}

		if len(job.Steps) == 0 && job.With["script"] == "" {
			errs = append(errs, fmt.Sprintf("job '%s': defines neither 'steps' nor 'with.script'", id))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid workflow '%s':\n- %s", path, strings.Join(errs, "\n- "))
	}
	return nil
}

// timeoutScalar returns the raw timeout value from a `with` block. Both
// spellings seen in the wild are accepted.
func timeoutScalar(with map[string]schema.Scalar) (schema.Scalar, bool) {
	if v, ok := with["timeout-minutes"]; ok {
		return v, true
	}
	if v, ok := with["timeout"]; ok {
		return v, true
	}
	return "", false
}
