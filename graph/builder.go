package graph

import (
	"errors"
	"fmt"
)

// End is the terminal marker. Routing a node to End finishes the run.
const End = "__end__"

// Predicate is a pure function of state used for conditional routing. It is
// evaluated against the post-merge state, exactly once per node visit, and
// must have no side effects.
type Predicate func(State) bool

// Branch pairs a predicate with its successor node. Branches are evaluated
// in declaration order; the first match wins.
type Branch struct {
	When Predicate
	To   string
}

// edgeRule is the compiled transition rule for one node: either a single
// unconditional successor or an ordered branch list with a mandatory
// fallback. The terminal marker is expressed as an unconditional edge to End.
type edgeRule struct {
	to       string
	branches []Branch
	fallback string
}

func (r edgeRule) conditional() bool { return len(r.branches) > 0 }

// Builder assembles nodes and edges into an immutable, validated Graph.
// Configuration mistakes (dangling successors, missing entry, conditional
// sets without a fallback) are reported by Compile before any run starts.
//
// All methods return the builder for chaining:
//
//	g, err := graph.NewBuilder().
//	    AddNode(router).
//	    AddConditionalEdges(router.Name(), branches, chat.Name()).
//	    AddEdge(chat.Name(), graph.End).
//	    SetEntryPoint(router.Name()).
//	    Compile()
type Builder struct {
	nodes map[string]Node
	order []string
	edges map[string]edgeRule
	entry string
	errs  []error
}

// NewBuilder returns an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[string]Node),
		edges: make(map[string]edgeRule),
	}
}

// AddNode registers a node under its own name. Registering two nodes with
// the same name is a configuration error.
func (b *Builder) AddNode(n Node) *Builder {
	name := n.Name()
	if name == "" || name == End {
		b.errs = append(b.errs, fmt.Errorf("invalid node name %q", name))
		return b
	}
	if _, exists := b.nodes[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("duplicate node %q", name))
		return b
	}
	b.nodes[name] = n
	b.order = append(b.order, name)
	return b
}

// AddNodeFunc registers a function node under the given name.
func (b *Builder) AddNodeFunc(name string, fn NodeFunc) *Builder {
	return b.AddNode(NewNode(name, fn))
}

// AddEdge declares a single unconditional successor for a node. Use End as
// the target to mark the node terminal.
func (b *Builder) AddEdge(from, to string) *Builder {
	if _, exists := b.edges[from]; exists {
		b.errs = append(b.errs, fmt.Errorf("node %q already has an outgoing edge", from))
		return b
	}
	b.edges[from] = edgeRule{to: to}
	return b
}

// AddConditionalEdges declares an ordered (predicate, successor) list for a
// node. The fallback target is mandatory and is taken when no predicate
// matches, guaranteeing full coverage at build time.
func (b *Builder) AddConditionalEdges(from string, branches []Branch, fallback string) *Builder {
	if _, exists := b.edges[from]; exists {
		b.errs = append(b.errs, fmt.Errorf("node %q already has an outgoing edge", from))
		return b
	}
	if len(branches) == 0 {
		b.errs = append(b.errs, fmt.Errorf("node %q: conditional edge set is empty", from))
		return b
	}
	if fallback == "" {
		b.errs = append(b.errs, fmt.Errorf("node %q: conditional edges require a fallback target", from))
		return b
	}
	for i, br := range branches {
		if br.When == nil {
			b.errs = append(b.errs, fmt.Errorf("node %q: branch %d has a nil predicate", from, i))
		}
	}
	b.edges[from] = edgeRule{branches: branches, fallback: fallback}
	return b
}

// SetEntryPoint names the node where every run starts.
func (b *Builder) SetEntryPoint(name string) *Builder {
	b.entry = name
	return b
}

// Compile validates the assembled definition and returns an immutable Graph.
// All configuration errors collected during building and validation are
// joined and returned together.
func (b *Builder) Compile() (*Graph, error) {
	errs := append([]error(nil), b.errs...)

	if len(b.nodes) == 0 {
		errs = append(errs, errors.New("graph has no nodes"))
	}
	if b.entry == "" {
		errs = append(errs, errors.New("entry point not set"))
	} else if _, ok := b.nodes[b.entry]; !ok {
		errs = append(errs, fmt.Errorf("entry point %q is not a registered node", b.entry))
	}

	for from, rule := range b.edges {
		if _, ok := b.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("edge declared for unknown node %q", from))
		}
		for _, target := range ruleTargets(rule) {
			if target == End {
				continue
			}
			if _, ok := b.nodes[target]; !ok {
				errs = append(errs, fmt.Errorf("node %q routes to unknown node %q", from, target))
			}
		}
	}

	for _, name := range b.order {
		if _, ok := b.edges[name]; !ok {
			errs = append(errs, fmt.Errorf("node %q has no outgoing edge; route it to graph.End to terminate", name))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("graph compile: %w", err)
	}

	nodes := make(map[string]Node, len(b.nodes))
	for name, n := range b.nodes {
		nodes[name] = n
	}
	edges := make(map[string]edgeRule, len(b.edges))
	for name, rule := range b.edges {
		edges[name] = rule
	}

	return &Graph{nodes: nodes, edges: edges, entry: b.entry}, nil
}

func ruleTargets(r edgeRule) []string {
	if !r.conditional() {
		return []string{r.to}
	}
	targets := make([]string, 0, len(r.branches)+1)
	for _, br := range r.branches {
		targets = append(targets, br.To)
	}
	return append(targets, r.fallback)
}

// Graph is a compiled, immutable graph definition. It is safe for concurrent
// use: any number of Executor runs may share one Graph as long as each run
// owns its own State.
type Graph struct {
	nodes map[string]Node
	edges map[string]edgeRule
	entry string
}

// Entry returns the name of the entry node.
func (g *Graph) Entry() string { return g.entry }

// HasNode reports whether a node with the given name is part of the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// NodeNames returns the names of all registered nodes in undefined order.
func (g *Graph) NodeNames() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	return names
}

// nextAfter resolves the successor of a node against the post-merge state.
// Compile guarantees an edge rule exists for every node and that conditional
// rules carry a fallback, so resolution cannot fail at run time.
func (g *Graph) nextAfter(name string, state State) string {
	rule := g.edges[name]
	if !rule.conditional() {
		return rule.to
	}
	for _, br := range rule.branches {
		if br.When(state) {
			return br.To
		}
	}
	return rule.fallback
}
