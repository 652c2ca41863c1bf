package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wasiiff/convograph/logging"
)

// DefaultMaxSteps bounds a single run. The reference pipeline needs at most
// five node visits, so hitting this limit always indicates a miswired graph.
const DefaultMaxSteps = 25

// DefaultFallbackText is appended as an assistant turn when a node times out
// or breaches the contract by returning an error.
const DefaultFallbackText = "Sorry, something went wrong while handling that. Please try again."

// ErrRunaway is returned when a run exceeds its step budget without reaching
// the terminal marker. The state accumulated before the runaway is returned
// alongside the error for diagnostics.
var ErrRunaway = errors.New("graph did not terminate")

// Recorder receives execution measurements from the Executor. The metrics
// package provides a Prometheus-backed implementation.
type Recorder interface {
	RecordNode(node string, d time.Duration, failed bool)
	RecordRun(d time.Duration, steps int, err error)
}

// ExecutorOptions configures an Executor instance.
type ExecutorOptions struct {
	// MaxSteps caps the number of node invocations per run. Zero or
	// negative selects DefaultMaxSteps.
	MaxSteps int

	// NodeTimeout bounds each node invocation. Zero disables the bound.
	// A timed-out node is treated like a failed one: the run continues
	// with a fallback assistant turn instead of getting stuck.
	NodeTimeout time.Duration

	// FallbackText overrides the assistant message used for timed-out or
	// misbehaving nodes.
	FallbackText string

	// Logger receives structured run/node diagnostics. Defaults to NoOp.
	Logger logging.Logger

	// Recorder receives node and run measurements. Nil disables recording.
	Recorder Recorder
}

// Executor walks a compiled graph: invoke the current node, merge its delta
// into the state, resolve the successor against the post-merge state, repeat
// until the terminal marker. Nodes execute strictly one at a time per run;
// concurrent runs are fine as long as each owns its own State.
type Executor struct {
	graph        *Graph
	maxSteps     int
	nodeTimeout  time.Duration
	fallbackText string
	logger       logging.Logger
	recorder     Recorder
}

// NewExecutor creates an Executor for a compiled graph.
func NewExecutor(g *Graph, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		MaxSteps:     DefaultMaxSteps,
		FallbackText: DefaultFallbackText,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.FallbackText == "" {
		opts.FallbackText = DefaultFallbackText
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Executor{
		graph:        g,
		maxSteps:     opts.MaxSteps,
		nodeTimeout:  opts.NodeTimeout,
		fallbackText: opts.FallbackText,
		logger:       opts.Logger,
		recorder:     opts.Recorder,
	}
}

// Graph returns the compiled graph this executor runs.
func (e *Executor) Graph() *Graph { return e.graph }

// Run executes the graph from its entry node over the given initial state
// and returns the final state. Cancellation is honored between node
// boundaries, never mid-node; on cancellation or runaway the state merged so
// far is returned together with the error.
func (e *Executor) Run(ctx context.Context, initial State) (State, error) {
	runID := uuid.NewString()
	started := time.Now()
	state := initial.Clone()
	current := e.graph.entry

	steps := 0
	for {
		if err := ctx.Err(); err != nil {
			e.finishRun(runID, started, steps, err)
			return state, err
		}
		if steps >= e.maxSteps {
			err := fmt.Errorf("%w: exceeded %d steps (stopped before node %q)", ErrRunaway, e.maxSteps, current)
			e.finishRun(runID, started, steps, err)
			return state, err
		}
		steps++

		node := e.graph.nodes[current]
		delta, failed, err := e.invokeNode(ctx, runID, node, state)
		if err != nil {
			e.finishRun(runID, started, steps, err)
			return state, err
		}
		state = state.Apply(delta)

		next := e.graph.nextAfter(current, state)
		e.logger.Debug("run step completed", "run_id", runID, "node", current, "next", next, "failed", failed)
		if next == End {
			e.finishRun(runID, started, steps, nil)
			return state, nil
		}
		current = next
	}
}

type nodeResult struct {
	delta Delta
	err   error
}

// invokeNode runs one node, applying the per-node timeout. It returns a
// non-nil error only for cancellation of the parent context; node failures
// and timeouts are converted into a fallback delta so the run can proceed.
func (e *Executor) invokeNode(ctx context.Context, runID string, n Node, state State) (Delta, bool, error) {
	nodeCtx := ctx
	if e.nodeTimeout > 0 {
		var cancel context.CancelFunc
		nodeCtx, cancel = context.WithTimeout(ctx, e.nodeTimeout)
		defer cancel()
	}

	started := time.Now()
	resCh := make(chan nodeResult, 1)
	go func() {
		delta, err := n.Run(nodeCtx, state)
		resCh <- nodeResult{delta: delta, err: err}
	}()

	var res nodeResult
	var timedOut bool
	select {
	case res = <-resCh:
	case <-nodeCtx.Done():
		timedOut = true
	}

	elapsed := time.Since(started)
	switch {
	case timedOut:
		if err := ctx.Err(); err != nil {
			// Parent cancellation, not a node timeout.
			e.recordNode(n.Name(), elapsed, true)
			return Delta{}, false, err
		}
		e.logger.Warn("node timed out, continuing with fallback", "run_id", runID, "node", n.Name(), "timeout", e.nodeTimeout)
		e.recordNode(n.Name(), elapsed, true)
		return e.fallbackDelta(), true, nil
	case res.err != nil:
		if err := ctx.Err(); err != nil {
			e.recordNode(n.Name(), elapsed, true)
			return Delta{}, false, err
		}
		// Nodes are expected to swallow their own failures; an escaped
		// error is downgraded to a fallback turn so the run terminates.
		e.logger.Warn("node returned error, continuing with fallback", "run_id", runID, "node", n.Name(), "error", res.err)
		e.recordNode(n.Name(), elapsed, true)
		return e.fallbackDelta(), true, nil
	default:
		e.recordNode(n.Name(), elapsed, false)
		return res.delta, false, nil
	}
}

func (e *Executor) fallbackDelta() Delta {
	return Delta{Messages: []Message{AssistantMessage(e.fallbackText)}}
}

func (e *Executor) recordNode(node string, d time.Duration, failed bool) {
	if e.recorder != nil {
		e.recorder.RecordNode(node, d, failed)
	}
}

func (e *Executor) finishRun(runID string, started time.Time, steps int, err error) {
	elapsed := time.Since(started)
	if e.recorder != nil {
		e.recorder.RecordRun(elapsed, steps, err)
	}
	if err != nil {
		e.logger.Warn("run finished with error", "run_id", runID, "steps", steps, "duration", elapsed, "error", err)
		return
	}
	e.logger.Info("run finished", "run_id", runID, "steps", steps, "duration", elapsed)
}
