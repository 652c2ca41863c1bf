package graph

import "context"

// Node is a named, asynchronous unit of work in a conversation graph.
//
// Implementations must not mutate the input state; they return a Delta
// describing only the fields they change. A node may perform external,
// latency-bearing calls but must not assume they succeed: failures are
// caught inside the node and folded into the returned Delta (for example
// as a fallback assistant message, or a safe default classification) so a
// run always reaches a terminal node. A returned error is reserved for
// contract breaches and is converted by the Executor into a fallback turn.
type Node interface {
	Name() string
	Run(ctx context.Context, state State) (Delta, error)
}

// NodeFunc adapts a plain function to the node contract.
type NodeFunc func(ctx context.Context, state State) (Delta, error)

// NewNode wraps fn as a Node with the given name.
func NewNode(name string, fn NodeFunc) Node {
	return &funcNode{name: name, fn: fn}
}

type funcNode struct {
	name string
	fn   NodeFunc
}

func (n *funcNode) Name() string { return n.name }

func (n *funcNode) Run(ctx context.Context, state State) (Delta, error) {
	return n.fn(ctx, state)
}
