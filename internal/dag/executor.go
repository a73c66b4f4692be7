package dag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kvolkov/gridci/internal/ctxlog"
	"github.com/kvolkov/gridci/internal/metrics"
	"github.com/kvolkov/gridci/internal/registry"
)

// Notifier receives job lifecycle events during execution. Implementations
// must be safe for concurrent use.
type Notifier interface {
	JobStarted(runID, nodeID string)
	JobFinished(runID, nodeID, status string, duration time.Duration)
}

// Options carries the per-run execution parameters.
type Options struct {
	// RunID identifies this run in logs, metrics and notifications.
	RunID string
	// BaseEnv is the ambient environment every job instance starts from.
	BaseEnv map[string]string
	// Notifier, when non-nil, receives job lifecycle events.
	Notifier Notifier
}

// Executor runs a built graph over a fixed pool of workers.
type Executor struct {
	Graph      *Graph
	numWorkers int
	registry   *registry.Registry
	opts       Options
	wg         sync.WaitGroup
}

// New creates an executor for the given graph.
func New(graph *Graph, workers int, reg *registry.Registry, opts Options) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		Graph:      graph,
		numWorkers: workers,
		registry:   reg,
		opts:       opts,
	}
}

// Run executes the entire graph concurrently and returns an error if any node
// fails. It respects the cancellation signal from the provided context.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *Node, len(e.Graph.Nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("Initializing executor, finding root nodes...")
	rootNodeCount := 0
	for _, node := range e.Graph.Nodes {
		if node.depCount.Load() == 0 {
			logger.Debug("Found root node.", "nodeID", node.ID)
			readyChan <- node
			rootNodeCount++
		}
	}
	logger.Debug("Found all root nodes.", "count", rootNodeCount)

	e.wg.Add(len(e.Graph.Nodes))

	logger.Debug("Starting worker pool.", "workers", e.numWorkers)
	for i := 0; i < e.numWorkers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	logger.Info("Waiting for all job instances to complete...")
	e.wg.Wait()
	logger.Info("All job instances completed.")
	close(readyChan)

	var failedNodes []string
	var rootCauseError error
	for _, node := range e.Graph.Nodes {
		if node.State.Load() == int32(Failed) {
			logger.Error("Job instance failed.", "nodeID", node.ID, "error", node.Error)
			// A "skipped" error is a symptom, not a cause.
			if node.Error != nil && !strings.HasPrefix(node.Error.Error(), "skipped") && !errors.Is(node.Error, context.Canceled) {
				failedNodes = append(failedNodes, node.ID)
				if rootCauseError == nil {
					rootCauseError = node.Error
				}
			}
		}
	}

	if rootCauseError != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failedNodes, ", "), rootCauseError)
	}

	// A caller-side cancellation leaves no root cause of its own, but the run
	// did not complete and must not report success.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("execution canceled: %w", err)
	}

	return nil
}

// skipDependents recursively marks all downstream nodes as failed and
// decrements the WaitGroup.
func (e *Executor) skipDependents(ctx context.Context, node *Node) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range node.Dependents {
		dependent.skipOnce.Do(func() {
			logger.Warn("Skipping dependent job due to upstream failure.", "nodeID", dependent.ID, "dependency", node.ID)
			dependent.State.Store(int32(Failed))
			dependent.Error = fmt.Errorf("skipped due to upstream failure of '%s'", node.ID)
			metrics.JobsTotal.WithLabelValues("skipped").Inc()
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for node := range readyChan {
		workerLogger := logger.With("workerID", workerID, "nodeID", node.ID)

		if ctx.Err() != nil {
			node.skipOnce.Do(func() {
				workerLogger.Warn("Context canceled, skipping job instance.")
				node.State.Store(int32(Failed))
				node.Error = ctx.Err()
				metrics.JobsTotal.WithLabelValues("skipped").Inc()
				e.wg.Done()
				// Dependents of a drained node never reach the ready channel,
				// so they must be skipped here or wg.Wait blocks forever.
				e.skipDependents(ctx, node)
			})
			continue
		}

		workerLogger.Debug("Worker picked up job instance.")
		node.State.Store(int32(Running))
		start := time.Now()
		if e.opts.Notifier != nil {
			e.opts.Notifier.JobStarted(e.opts.RunID, node.ID)
		}

		err := e.executeJobNode(ctx, node)
		duration := time.Since(start)
		metrics.JobDuration.Observe(duration.Seconds())

		if err != nil {
			workerLogger.Error("Job instance failed.", "error", err, "duration", duration)
			node.State.Store(int32(Failed))
			node.Error = err
			metrics.JobsTotal.WithLabelValues("failed").Inc()
			if e.opts.Notifier != nil {
				e.opts.Notifier.JobFinished(e.opts.RunID, node.ID, "failed", duration)
			}
			if node.Job.FailFast {
				cancel()
			}
			e.skipDependents(ctx, node)
			e.wg.Done()
			continue
		}

		workerLogger.Debug("Job instance succeeded.", "duration", duration)
		node.State.Store(int32(Done))
		metrics.JobsTotal.WithLabelValues("succeeded").Inc()
		if e.opts.Notifier != nil {
			e.opts.Notifier.JobFinished(e.opts.RunID, node.ID, "succeeded", duration)
		}

		for _, dependent := range node.Dependents {
			if dependent.depCount.Add(-1) == 0 {
				workerLogger.Debug("Unlocking dependent job.", "dependentID", dependent.ID)
				readyChan <- dependent
			}
		}

		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}
