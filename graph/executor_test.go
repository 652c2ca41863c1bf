package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendingNode(name, text string) Node {
	return NewNode(name, func(_ context.Context, _ State) (Delta, error) {
		return Delta{Messages: []Message{AssistantMessage(text)}}, nil
	})
}

func TestExecutor_Run_Linear(t *testing.T) {
	g, err := NewBuilder().
		AddNode(appendingNode("first", "one")).
		AddNode(appendingNode("second", "two")).
		AddEdge("first", "second").
		AddEdge("second", End).
		SetEntryPoint("first").
		Compile()
	require.NoError(t, err)

	final, err := NewExecutor(g).Run(context.Background(), NewState())
	require.NoError(t, err)

	require.Len(t, final.Messages, 2)
	assert.Equal(t, "one", final.Messages[0].Text)
	assert.Equal(t, "two", final.Messages[1].Text)
}

func TestExecutor_Run_DoesNotMutateInitialState(t *testing.T) {
	g, err := NewBuilder().
		AddNode(appendingNode("only", "reply")).
		AddEdge("only", End).
		SetEntryPoint("only").
		Compile()
	require.NoError(t, err)

	initial := NewState().AppendUserMessage("hi")
	final, err := NewExecutor(g).Run(context.Background(), initial)
	require.NoError(t, err)

	assert.Len(t, initial.Messages, 1)
	assert.Len(t, final.Messages, 2)
}

func TestExecutor_Run_ConditionalBranching(t *testing.T) {
	route := func(target string) Node {
		return NewNode("router", func(context.Context, State) (Delta, error) {
			return Delta{Route: &target}, nil
		})
	}

	build := func(router Node) *Executor {
		g, err := NewBuilder().
			AddNode(router).
			AddNode(appendingNode("left", "went left")).
			AddNode(appendingNode("right", "went right")).
			AddConditionalEdges("router", []Branch{
				{When: func(s State) bool { return s.Route == "left" }, To: "left"},
			}, "right").
			AddEdge("left", End).
			AddEdge("right", End).
			SetEntryPoint("router").
			Compile()
		require.NoError(t, err)
		return NewExecutor(g)
	}

	final, err := build(route("left")).Run(context.Background(), NewState())
	require.NoError(t, err)
	text, _ := final.LastAssistantMessage()
	assert.Equal(t, "went left", text)

	final, err = build(route("elsewhere")).Run(context.Background(), NewState())
	require.NoError(t, err)
	text, _ = final.LastAssistantMessage()
	assert.Equal(t, "went right", text)
}

func TestExecutor_Run_RunawayDetection(t *testing.T) {
	// a <-> b never reaches End.
	g, err := NewBuilder().
		AddNode(appendingNode("a", "ping")).
		AddNode(appendingNode("b", "pong")).
		AddEdge("a", "b").
		AddEdge("b", "a").
		SetEntryPoint("a").
		Compile()
	require.NoError(t, err)

	exec := NewExecutor(g, func(o *ExecutorOptions) { o.MaxSteps = 6 })
	final, err := exec.Run(context.Background(), NewState())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunaway)
	// State accumulated before the runaway is preserved for diagnostics.
	assert.Len(t, final.Messages, 6)
}

func TestExecutor_Run_NodeErrorBecomesFallbackTurn(t *testing.T) {
	failing := NewNode("broken", func(context.Context, State) (Delta, error) {
		return Delta{}, errors.New("contract breach")
	})

	g, err := NewBuilder().
		AddNode(failing).
		AddEdge("broken", End).
		SetEntryPoint("broken").
		Compile()
	require.NoError(t, err)

	final, err := NewExecutor(g).Run(context.Background(), NewState())
	require.NoError(t, err)

	text, ok := final.LastAssistantMessage()
	require.True(t, ok)
	assert.Equal(t, DefaultFallbackText, text)
}

func TestExecutor_Run_NodeTimeoutBecomesFallbackTurn(t *testing.T) {
	slow := NewNode("slow", func(ctx context.Context, _ State) (Delta, error) {
		select {
		case <-time.After(5 * time.Second):
			return Delta{Messages: []Message{AssistantMessage("too late")}}, nil
		case <-ctx.Done():
			return Delta{}, ctx.Err()
		}
	})

	g, err := NewBuilder().
		AddNode(slow).
		AddNode(appendingNode("after", "still ran")).
		AddEdge("slow", "after").
		AddEdge("after", End).
		SetEntryPoint("slow").
		Compile()
	require.NoError(t, err)

	exec := NewExecutor(g, func(o *ExecutorOptions) { o.NodeTimeout = 20 * time.Millisecond })

	start := time.Now()
	final, err := exec.Run(context.Background(), NewState())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	// The timed-out node contributed a fallback turn and the run continued.
	require.Len(t, final.Messages, 2)
	assert.Equal(t, DefaultFallbackText, final.Messages[0].Text)
	assert.Equal(t, "still ran", final.Messages[1].Text)
}

func TestExecutor_Run_CancellationBetweenNodes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := NewNode("first", func(context.Context, State) (Delta, error) {
		cancel()
		return Delta{Messages: []Message{AssistantMessage("done")}}, nil
	})

	g, err := NewBuilder().
		AddNode(first).
		AddNode(appendingNode("second", "never")).
		AddEdge("first", "second").
		AddEdge("second", End).
		SetEntryPoint("first").
		Compile()
	require.NoError(t, err)

	final, err := NewExecutor(g).Run(ctx, NewState())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	// The second node never ran.
	for _, m := range final.Messages {
		assert.NotEqual(t, "never", m.Text)
	}
}

func TestExecutor_Run_CustomFallbackText(t *testing.T) {
	failing := NewNode("broken", func(context.Context, State) (Delta, error) {
		return Delta{}, errors.New("boom")
	})

	g, err := NewBuilder().
		AddNode(failing).
		AddEdge("broken", End).
		SetEntryPoint("broken").
		Compile()
	require.NoError(t, err)

	exec := NewExecutor(g, func(o *ExecutorOptions) { o.FallbackText = "custom apology" })
	final, err := exec.Run(context.Background(), NewState())
	require.NoError(t, err)

	text, _ := final.LastAssistantMessage()
	assert.Equal(t, "custom apology", text)
}

type recordingRecorder struct {
	nodes []string
	fails []bool
	runs  int
	steps int
	err   error
}

func (r *recordingRecorder) RecordNode(node string, _ time.Duration, failed bool) {
	r.nodes = append(r.nodes, node)
	r.fails = append(r.fails, failed)
}

func (r *recordingRecorder) RecordRun(_ time.Duration, steps int, err error) {
	r.runs++
	r.steps = steps
	r.err = err
}

func TestExecutor_Run_RecorderObservesNodesAndRun(t *testing.T) {
	g, err := NewBuilder().
		AddNode(appendingNode("first", "one")).
		AddNode(appendingNode("second", "two")).
		AddEdge("first", "second").
		AddEdge("second", End).
		SetEntryPoint("first").
		Compile()
	require.NoError(t, err)

	rec := &recordingRecorder{}
	exec := NewExecutor(g, func(o *ExecutorOptions) { o.Recorder = rec })

	_, err = exec.Run(context.Background(), NewState())
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, rec.nodes)
	assert.Equal(t, []bool{false, false}, rec.fails)
	assert.Equal(t, 1, rec.runs)
	assert.Equal(t, 2, rec.steps)
	assert.NoError(t, rec.err)
}
