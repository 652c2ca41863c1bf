package node

import (
	"context"
	"strings"
	"time"

	"github.com/wasiiff/convograph/graph"
	"github.com/wasiiff/convograph/logging"
	"github.com/wasiiff/convograph/model"
)

// DefaultSummarizeThreshold is the message count a conversation must exceed
// before a summary is taken. Deployments that want earlier summaries (the
// observed variant uses 5) override it via SummarizeOptions.
const DefaultSummarizeThreshold = 10

// DefaultSummarizePrompt instructs the model to condense a transcript.
const DefaultSummarizePrompt = "Summarize the following conversation in two or three sentences, focusing on what the user asked for and how they seem to be feeling."

// SummarizeOptions configures a summarize node.
type SummarizeOptions struct {
	Name string

	// Threshold is the message count the conversation must exceed for a
	// summary to be taken. Zero or negative selects the default.
	Threshold int

	// Window limits summarization to the most recent N messages.
	// Zero summarizes the whole history.
	Window int

	Prompt string
	Logger logging.Logger
}

type summarizeNode struct {
	name      string
	llm       model.Model
	threshold int
	window    int
	prompt    string
	logger    logging.Logger
}

// NewSummarize creates the accumulating summarizer node. When the
// conversation has not yet exceeded the threshold (or the summarization call
// fails) it returns an empty delta, leaving Summaries untouched; otherwise
// it appends exactly one new summary.
func NewSummarize(llm model.Model, optFns ...func(o *SummarizeOptions)) graph.Node {
	opts := SummarizeOptions{
		Name:      NameSummarize,
		Threshold: DefaultSummarizeThreshold,
		Prompt:    DefaultSummarizePrompt,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultSummarizeThreshold
	}
	return &summarizeNode{
		name:      opts.Name,
		llm:       llm,
		threshold: opts.Threshold,
		window:    opts.Window,
		prompt:    opts.Prompt,
		logger:    opts.Logger,
	}
}

func (n *summarizeNode) Name() string { return n.name }

func (n *summarizeNode) Run(ctx context.Context, state graph.State) (graph.Delta, error) {
	if len(state.Messages) <= n.threshold {
		return graph.Delta{}, nil
	}

	window := state.Messages
	if n.window > 0 && len(window) > n.window {
		window = window[len(window)-n.window:]
	}

	started := time.Now()
	reply, err := n.llm.Invoke(ctx, []graph.Message{
		graph.SystemMessage(n.prompt),
		graph.UserMessage(renderTranscript(window)),
	})
	if err != nil {
		n.logger.Warn("summarization failed, skipping", "model", n.llm.Name(), "duration", time.Since(started), "error", err)
		return graph.Delta{}, nil
	}
	n.logger.Debug("summary taken", "messages", len(window), "duration", time.Since(started))

	return graph.Delta{Summaries: []string{strings.TrimSpace(reply)}}, nil
}

func renderTranscript(messages []graph.Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		sb.WriteString(string(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(msg.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}
