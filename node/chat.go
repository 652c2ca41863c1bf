package node

import (
	"context"
	"time"

	"github.com/wasiiff/convograph/graph"
	"github.com/wasiiff/convograph/logging"
	"github.com/wasiiff/convograph/model"
)

// DefaultChatPrompt is the system instruction for the general chat node.
const DefaultChatPrompt = "You are a friendly, helpful assistant. Keep responses concise and conversational."

// DefaultChatFallback is appended as the assistant turn when the model call
// fails, so the user sees a normal reply instead of an internal error.
const DefaultChatFallback = "I'm having trouble responding right now. Please try again in a moment."

// DefaultHistoryWindow bounds how many prior conversation turns are sent to
// the model.
const DefaultHistoryWindow = 20

// ChatOptions configures a chat node.
type ChatOptions struct {
	Name          string
	SystemPrompt  string
	Fallback      string
	HistoryWindow int
	Logger        logging.Logger
}

type chatNode struct {
	name         string
	llm          model.Model
	systemPrompt string
	fallback     string
	window       int
	logger       logging.Logger
}

// NewChat creates the general conversation node backed by a model. A failed
// model call never escapes: it is converted into the configured fallback
// assistant turn.
func NewChat(llm model.Model, optFns ...func(o *ChatOptions)) graph.Node {
	opts := ChatOptions{
		Name:          NameChat,
		SystemPrompt:  DefaultChatPrompt,
		Fallback:      DefaultChatFallback,
		HistoryWindow: DefaultHistoryWindow,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &chatNode{
		name:         opts.Name,
		llm:          llm,
		systemPrompt: opts.SystemPrompt,
		fallback:     opts.Fallback,
		window:       opts.HistoryWindow,
		logger:       opts.Logger,
	}
}

func (n *chatNode) Name() string { return n.name }

func (n *chatNode) Run(ctx context.Context, state graph.State) (graph.Delta, error) {
	history := state.Messages
	if n.window > 0 && len(history) > n.window {
		history = history[len(history)-n.window:]
	}

	msgs := make([]graph.Message, 0, len(history)+1)
	msgs = append(msgs, graph.SystemMessage(n.systemPrompt))
	msgs = append(msgs, history...)

	started := time.Now()
	reply, err := n.llm.Invoke(ctx, msgs)
	if err != nil {
		n.logger.Warn("chat model call failed, using fallback", "model", n.llm.Name(), "duration", time.Since(started), "error", err)
		return assistantDelta(n.fallback), nil
	}
	n.logger.Debug("chat model call completed", "model", n.llm.Name(), "duration", time.Since(started))

	return assistantDelta(reply), nil
}
