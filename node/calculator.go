package node

import (
	"context"
	"errors"
	"strings"

	"github.com/wasiiff/convograph/graph"
	"github.com/wasiiff/convograph/internal/mathexpr"
	"github.com/wasiiff/convograph/logging"
)

// Messages produced by the calculator for inputs it cannot turn into a
// finite number.
const (
	calcInvalidText   = "I could not calculate that expression."
	calcNotFiniteText = "That expression has no finite result."
)

// CalculatorOptions configures a calculator node.
type CalculatorOptions struct {
	Name   string
	Logger logging.Logger
}

type calculatorNode struct {
	name   string
	logger logging.Logger
}

// NewCalculator creates the arithmetic evaluator node. The last user message
// is validated against the arithmetic allow-list before evaluation; the
// evaluator itself only understands numbers and the four basic operators, so
// untrusted text can never trigger anything beyond arithmetic. Input that is
// empty or outside the allow-list yields an empty delta, letting the run
// fall through to the node's successor unchanged.
func NewCalculator(optFns ...func(o *CalculatorOptions)) graph.Node {
	opts := CalculatorOptions{Name: NameCalculator, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &calculatorNode{name: opts.Name, logger: opts.Logger}
}

func (n *calculatorNode) Name() string { return n.name }

func (n *calculatorNode) Run(_ context.Context, state graph.State) (graph.Delta, error) {
	text, ok := state.LastUserMessage()
	if !ok {
		return graph.Delta{}, nil
	}
	expr := strings.TrimSpace(text)
	if !IsArithmetic(expr) {
		return graph.Delta{}, nil
	}

	v, err := mathexpr.Evaluate(expr)
	switch {
	case errors.Is(err, mathexpr.ErrNotFinite):
		n.logger.Debug("expression has no finite result", "expression", expr)
		return assistantDelta(calcNotFiniteText), nil
	case err != nil:
		n.logger.Debug("expression did not parse", "expression", expr, "error", err)
		return assistantDelta(calcInvalidText), nil
	}

	return assistantDelta("The result is " + mathexpr.Format(v) + "."), nil
}

func assistantDelta(text string) graph.Delta {
	return graph.Delta{Messages: []graph.Message{graph.AssistantMessage(text)}}
}
