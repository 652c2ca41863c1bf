package node

import (
	"context"
	"time"

	"github.com/wasiiff/convograph/graph"
	"github.com/wasiiff/convograph/logging"
	"github.com/wasiiff/convograph/model"
)

// DefaultCalmingPrompt instructs the model to produce a short empathetic
// response to a user who is doing badly.
const DefaultCalmingPrompt = "The user is upset or distressed. Write a short, warm, empathetic response that acknowledges their feelings and gently offers support. Do not give medical advice."

// DefaultCalmingFallback is used when the generation call fails, so a
// negative-sentiment turn still receives a supportive reply.
const DefaultCalmingFallback = "I'm sorry you're going through this. Take a deep breath - I'm here, and we can work through it together."

// CalmingOptions configures a calming node.
type CalmingOptions struct {
	Name     string
	Prompt   string
	Fallback string
	Logger   logging.Logger
}

type calmingNode struct {
	name     string
	llm      model.Model
	prompt   string
	fallback string
	logger   logging.Logger
}

// NewCalming creates the empathetic response node. It fires only on the
// negative-sentiment branch; its output is stored both as the
// CalmingResponse scalar and as a visible assistant turn.
func NewCalming(llm model.Model, optFns ...func(o *CalmingOptions)) graph.Node {
	opts := CalmingOptions{
		Name:     NameCalming,
		Prompt:   DefaultCalmingPrompt,
		Fallback: DefaultCalmingFallback,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &calmingNode{name: opts.Name, llm: llm, prompt: opts.Prompt, fallback: opts.Fallback, logger: opts.Logger}
}

func (n *calmingNode) Name() string { return n.name }

func (n *calmingNode) Run(ctx context.Context, state graph.State) (graph.Delta, error) {
	text, _ := state.LastUserMessage()

	started := time.Now()
	reply, err := n.llm.Invoke(ctx, []graph.Message{
		graph.SystemMessage(n.prompt),
		graph.UserMessage(text),
	})
	if err != nil {
		n.logger.Warn("calming generation failed, using fallback", "model", n.llm.Name(), "duration", time.Since(started), "error", err)
		reply = n.fallback
	}

	return graph.Delta{
		CalmingResponse: &reply,
		Messages:        []graph.Message{graph.AssistantMessage(reply)},
	}, nil
}
