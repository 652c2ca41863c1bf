package node

import (
	"context"
	"regexp"
	"strings"

	"github.com/wasiiff/convograph/graph"
	"github.com/wasiiff/convograph/logging"
)

// Route labels written by the router and consumed by the edge table of the
// same step.
const (
	RouteCalculator = "calculator"
	RouteChat       = "chat"
)

// Default node names used when wiring the reference pipeline.
const (
	NameRouter     = "router"
	NameCalculator = "calculator"
	NameChat       = "chat"
	NameSentiment  = "sentiment"
	NameCalming    = "calming"
	NameSummarize  = "summarize"
)

// arithmeticExpr matches input consisting solely of digits, the four basic
// operators, decimal points, parentheses and whitespace. Input that matches
// exclusively (and is non-empty) is handed to the calculator; everything
// else goes to chat.
var arithmeticExpr = regexp.MustCompile(`^[0-9+\-*/().\s]+$`)

// IsArithmetic reports whether text should be routed to the calculator.
func IsArithmetic(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed != "" && arithmeticExpr.MatchString(trimmed)
}

// RouteIs builds a predicate matching the transient routing decision.
func RouteIs(route string) graph.Predicate {
	return func(s graph.State) bool { return s.Route == route }
}

// SentimentIs builds a predicate matching the current sentiment tag.
func SentimentIs(sentiment graph.Sentiment) graph.Predicate {
	return func(s graph.State) bool { return s.Sentiment == sentiment }
}

// RouterOptions configures a router node.
type RouterOptions struct {
	Name   string
	Logger logging.Logger
}

type routerNode struct {
	name   string
	logger logging.Logger
}

// NewRouter creates the routing node. It is a pure heuristic over the last
// user message and performs no external calls.
func NewRouter(optFns ...func(o *RouterOptions)) graph.Node {
	opts := RouterOptions{Name: NameRouter, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &routerNode{name: opts.Name, logger: opts.Logger}
}

func (n *routerNode) Name() string { return n.name }

func (n *routerNode) Run(_ context.Context, state graph.State) (graph.Delta, error) {
	route := RouteChat
	if text, ok := state.LastUserMessage(); ok && IsArithmetic(text) {
		route = RouteCalculator
	}
	n.logger.Debug("routing decision", "route", route)
	return graph.Delta{Route: &route}, nil
}
