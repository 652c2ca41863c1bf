package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopNode(name string) Node {
	return NewNode(name, func(context.Context, State) (Delta, error) {
		return Delta{}, nil
	})
}

func alwaysTrue(State) bool { return true }

func TestBuilder_Compile_Minimal(t *testing.T) {
	g, err := NewBuilder().
		AddNode(noopNode("a")).
		AddEdge("a", End).
		SetEntryPoint("a").
		Compile()

	require.NoError(t, err)
	assert.Equal(t, "a", g.Entry())
	assert.True(t, g.HasNode("a"))
	assert.False(t, g.HasNode("b"))
	assert.ElementsMatch(t, []string{"a"}, g.NodeNames())
}

func TestBuilder_Compile_MissingEntry(t *testing.T) {
	_, err := NewBuilder().
		AddNode(noopNode("a")).
		AddEdge("a", End).
		Compile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry point not set")
}

func TestBuilder_Compile_UnknownEntry(t *testing.T) {
	_, err := NewBuilder().
		AddNode(noopNode("a")).
		AddEdge("a", End).
		SetEntryPoint("missing").
		Compile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `entry point "missing"`)
}

func TestBuilder_Compile_DanglingSuccessor(t *testing.T) {
	_, err := NewBuilder().
		AddNode(noopNode("a")).
		AddEdge("a", "ghost").
		SetEntryPoint("a").
		Compile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown node "ghost"`)
}

func TestBuilder_Compile_DanglingBranchTarget(t *testing.T) {
	_, err := NewBuilder().
		AddNode(noopNode("a")).
		AddNode(noopNode("b")).
		AddConditionalEdges("a", []Branch{{When: alwaysTrue, To: "ghost"}}, "b").
		AddEdge("b", End).
		SetEntryPoint("a").
		Compile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown node "ghost"`)
}

func TestBuilder_Compile_NodeWithoutEdge(t *testing.T) {
	_, err := NewBuilder().
		AddNode(noopNode("a")).
		AddNode(noopNode("b")).
		AddEdge("a", "b").
		SetEntryPoint("a").
		Compile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `node "b" has no outgoing edge`)
}

func TestBuilder_Compile_DuplicateNode(t *testing.T) {
	_, err := NewBuilder().
		AddNode(noopNode("a")).
		AddNode(noopNode("a")).
		AddEdge("a", End).
		SetEntryPoint("a").
		Compile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate node "a"`)
}

func TestBuilder_Compile_DuplicateEdge(t *testing.T) {
	_, err := NewBuilder().
		AddNode(noopNode("a")).
		AddEdge("a", End).
		AddEdge("a", End).
		SetEntryPoint("a").
		Compile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `already has an outgoing edge`)
}

func TestBuilder_Compile_ConditionalRequiresFallback(t *testing.T) {
	_, err := NewBuilder().
		AddNode(noopNode("a")).
		AddNode(noopNode("b")).
		AddConditionalEdges("a", []Branch{{When: alwaysTrue, To: "b"}}, "").
		AddEdge("b", End).
		SetEntryPoint("a").
		Compile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "require a fallback")
}

func TestBuilder_Compile_ConditionalNilPredicate(t *testing.T) {
	_, err := NewBuilder().
		AddNode(noopNode("a")).
		AddNode(noopNode("b")).
		AddConditionalEdges("a", []Branch{{When: nil, To: "b"}}, "b").
		AddEdge("b", End).
		SetEntryPoint("a").
		Compile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil predicate")
}

func TestBuilder_Compile_EdgeForUnknownNode(t *testing.T) {
	_, err := NewBuilder().
		AddNode(noopNode("a")).
		AddEdge("a", End).
		AddEdge("phantom", End).
		SetEntryPoint("a").
		Compile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown node "phantom"`)
}

func TestBuilder_Compile_InvalidNodeName(t *testing.T) {
	_, err := NewBuilder().
		AddNode(noopNode(End)).
		SetEntryPoint(End).
		Compile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid node name")
}

func TestGraph_NextAfter_BranchOrder(t *testing.T) {
	g, err := NewBuilder().
		AddNode(noopNode("start")).
		AddNode(noopNode("first")).
		AddNode(noopNode("second")).
		AddNode(noopNode("fallback")).
		AddConditionalEdges("start", []Branch{
			{When: func(s State) bool { return s.Route == "x" }, To: "first"},
			{When: alwaysTrue, To: "second"},
		}, "fallback").
		AddEdge("first", End).
		AddEdge("second", End).
		AddEdge("fallback", End).
		SetEntryPoint("start").
		Compile()
	require.NoError(t, err)

	// First matching predicate wins even when later ones also match.
	assert.Equal(t, "first", g.nextAfter("start", State{Route: "x"}))
	assert.Equal(t, "second", g.nextAfter("start", State{Route: "y"}))
}

func TestGraph_NextAfter_Fallback(t *testing.T) {
	g, err := NewBuilder().
		AddNode(noopNode("start")).
		AddNode(noopNode("picked")).
		AddNode(noopNode("fallback")).
		AddConditionalEdges("start", []Branch{
			{When: func(s State) bool { return false }, To: "picked"},
		}, "fallback").
		AddEdge("picked", End).
		AddEdge("fallback", End).
		SetEntryPoint("start").
		Compile()
	require.NoError(t, err)

	assert.Equal(t, "fallback", g.nextAfter("start", State{}))
}
