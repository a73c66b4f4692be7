package dag

import (
	"sync"
	"sync/atomic"

	"github.com/kvolkov/gridci/internal/config"
	"github.com/kvolkov/gridci/internal/matrix"
)

// NodeState tracks the lifecycle of a node during execution.
type NodeState int32

const (
	Pending NodeState = iota
	Running
	Done
	Failed
)

// Node is one expanded job instance: a job crossed with a single matrix
// combination.
type Node struct {
	ID       string
	Workflow *config.Workflow
	Job      *config.Job
	Combo    matrix.Combination

	// Deps holds the nodes this node depends on (predecessors).
	Deps map[string]*Node
	// Dependents holds the nodes that depend on this node (successors).
	Dependents map[string]*Node

	// State holds the current NodeState, accessed atomically by workers.
	State atomic.Int32
	// Error records why the node failed, if it did.
	Error error

	// depCount counts unfinished dependencies; a node becomes ready at zero.
	depCount atomic.Int32
	// skipOnce guarantees a node is skipped at most once during fail-fast.
	skipOnce sync.Once
}

// SetInitialCounters seeds the dependency counter from the linked graph.
// Must be called once after linking and before execution.
func (n *Node) SetInitialCounters() {
	n.depCount.Store(int32(len(n.Deps)))
}

// Graph is the complete set of expanded job instances keyed by node ID.
type Graph struct {
	Nodes map[string]*Node
}
