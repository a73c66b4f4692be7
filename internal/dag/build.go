package dag

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kvolkov/gridci/internal/config"
	"github.com/kvolkov/gridci/internal/ctxlog"
	"github.com/kvolkov/gridci/internal/matrix"
)

// Build constructs a complete, validated dependency graph from a workflow.
// Each job is expanded across its matrix; `needs` edges connect every
// instance of the required job to every instance of the requiring one.
func Build(ctx context.Context, wf *config.Workflow) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "workflow", wf.Name)
	graph := &Graph{Nodes: make(map[string]*Node)}

	// First pass: expand every job into instance nodes.
	instances := make(map[string][]*Node, len(wf.Jobs))
	for _, jobID := range wf.JobOrder {
		job := wf.Jobs[jobID]
		combos := []matrix.Combination{{}}
		if job.Matrix != nil {
			combos = job.Matrix.Expand()
		}
		for i, combo := range combos {
			id := instanceID(jobID, combo, i)
			if _, exists := graph.Nodes[id]; exists {
				logger.Warn("Duplicate job instance produced by matrix, it will be overwritten.", "id", id)
			}
			node := &Node{
				ID:         id,
				Workflow:   wf,
				Job:        job,
				Combo:      combo,
				Deps:       make(map[string]*Node),
				Dependents: make(map[string]*Node),
			}
			graph.Nodes[id] = node
			instances[jobID] = append(instances[jobID], node)
		}
	}
	logger.Debug("Build: Node creation complete.", "node_count", len(graph.Nodes))

	// Second pass: link `needs` dependencies across instances.
	for _, jobID := range wf.JobOrder {
		job := wf.Jobs[jobID]
		for _, need := range job.Needs {
			required, ok := instances[need]
			if !ok {
				return nil, fmt.Errorf("job '%s' needs unknown job '%s'", jobID, need)
			}
			for _, to := range instances[jobID] {
				for _, from := range required {
					to.Deps[from.ID] = from
					from.Dependents[to.ID] = to
				}
			}
		}
	}
	logger.Debug("Build: Node linking complete.")

	// Third pass: initialize counters.
	for _, node := range graph.Nodes {
		node.SetInitialCounters()
	}

	if err := graph.detectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: Graph construction successful.")
	return graph, nil
}

// instanceID renders a stable node identifier for one matrix combination of a
// job. Jobs without a matrix fall back to the instance index.
func instanceID(jobID string, combo matrix.Combination, i int) string {
	key := combo.ID()
	if key == "" {
		key = strconv.Itoa(i)
	}
	return fmt.Sprintf("job.%s[%s]", jobID, key)
}

// detectCycles checks the graph for any cycles using a depth-first search
// with permanent and temporary marker sets.
func (g *Graph) detectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n.ID] {
			return nil
		}
		if temporary[n.ID] {
			return fmt.Errorf("cycle detected involving node '%s'", n.ID)
		}
		temporary[n.ID] = true
		for _, dependent := range n.Dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.ID)
		permanent[n.ID] = true
		return nil
	}

	for _, n := range g.Nodes {
		if !permanent[n.ID] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
