package node

import (
	"context"
	"time"

	"github.com/wasiiff/convograph/graph"
	"github.com/wasiiff/convograph/logging"
	"github.com/wasiiff/convograph/model"
)

// DefaultSentimentPrompt instructs the classifier to answer with exactly one
// of the three allowed tags. The output is normalized regardless, so a
// chattier model cannot leak raw text into state.
const DefaultSentimentPrompt = "Classify the sentiment of the user's message. Respond with exactly one word: positive, neutral, or negative."

// SentimentOptions configures a sentiment node.
type SentimentOptions struct {
	Name   string
	Prompt string
	Logger logging.Logger
}

type sentimentNode struct {
	name   string
	llm    model.Model
	prompt string
	logger logging.Logger
}

// NewSentiment creates the sentiment classification node. Classification
// failures fall back to neutral, never to an error.
func NewSentiment(llm model.Model, optFns ...func(o *SentimentOptions)) graph.Node {
	opts := SentimentOptions{Name: NameSentiment, Prompt: DefaultSentimentPrompt, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &sentimentNode{name: opts.Name, llm: llm, prompt: opts.Prompt, logger: opts.Logger}
}

func (n *sentimentNode) Name() string { return n.name }

func (n *sentimentNode) Run(ctx context.Context, state graph.State) (graph.Delta, error) {
	text, ok := state.LastUserMessage()
	if !ok {
		return graph.Delta{}, nil
	}

	sentiment := graph.SentimentNeutral
	started := time.Now()
	reply, err := n.llm.Invoke(ctx, []graph.Message{
		graph.SystemMessage(n.prompt),
		graph.UserMessage(text),
	})
	if err != nil {
		n.logger.Warn("sentiment classification failed, defaulting to neutral", "model", n.llm.Name(), "duration", time.Since(started), "error", err)
	} else {
		sentiment = graph.NormalizeSentiment(reply)
		n.logger.Debug("sentiment classified", "sentiment", sentiment, "duration", time.Since(started))
	}

	return graph.Delta{Sentiment: &sentiment}, nil
}
