// Package convograph provides a high-level façade over the graph execution
// engine for the reference conversational pipeline. Most applications
// interact with this package by:
//  1. Creating a model collaborator (model/openai, model/anthropic or a mock)
//  2. Building the pipeline via NewChatGraph (optionally tuning thresholds,
//     prompts, step limits and observability hooks)
//  3. Running turns with Executor.Run, threading the returned state into the
//     next run
//
// The pipeline routes arithmetic input straight to a calculator node and
// everything else through chat, sentiment classification, an optional
// calming response for negative sentiment, and an accumulating summarizer.
// Applications with different topologies use the graph package directly.
package convograph

import (
	"time"

	"github.com/wasiiff/convograph/graph"
	"github.com/wasiiff/convograph/logging"
	"github.com/wasiiff/convograph/model"
	"github.com/wasiiff/convograph/node"
)

// Options configures the reference pipeline.
type Options struct {
	// SummarizeThreshold is the message count a conversation must exceed
	// before the summarizer fires. Zero selects the default (10).
	SummarizeThreshold int

	// SummarizeWindow limits summarization to the most recent N messages.
	// Zero summarizes the whole history.
	SummarizeWindow int

	// MaxSteps caps node visits per run. Zero selects the engine default.
	MaxSteps int

	// NodeTimeout bounds each node invocation. Zero disables the bound.
	NodeTimeout time.Duration

	// Prompt overrides; empty strings keep the node defaults.
	ChatPrompt      string
	SentimentPrompt string
	CalmingPrompt   string
	SummarizePrompt string

	// Logger receives structured diagnostics. Defaults to NoOp.
	Logger logging.Logger

	// Recorder receives execution measurements (see the metrics package).
	Recorder graph.Recorder
}

// NewChatGraph wires the reference pipeline around the given model and
// returns a ready executor:
//
//	router ──(arithmetic)──> calculator ──> End
//	   └──(otherwise)──> chat ──> sentiment ──(negative)──> calming ──┐
//	                                  └──(otherwise)──────────────────┴──> summarize ──> End
func NewChatGraph(llm model.Model, optFns ...func(o *Options)) (*graph.Executor, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	router := node.NewRouter(func(o *node.RouterOptions) {
		o.Logger = opts.Logger
	})
	calculator := node.NewCalculator(func(o *node.CalculatorOptions) {
		o.Logger = opts.Logger
	})
	chat := node.NewChat(llm, func(o *node.ChatOptions) {
		o.Logger = opts.Logger
		if opts.ChatPrompt != "" {
			o.SystemPrompt = opts.ChatPrompt
		}
	})
	sentiment := node.NewSentiment(llm, func(o *node.SentimentOptions) {
		o.Logger = opts.Logger
		if opts.SentimentPrompt != "" {
			o.Prompt = opts.SentimentPrompt
		}
	})
	calming := node.NewCalming(llm, func(o *node.CalmingOptions) {
		o.Logger = opts.Logger
		if opts.CalmingPrompt != "" {
			o.Prompt = opts.CalmingPrompt
		}
	})
	summarize := node.NewSummarize(llm, func(o *node.SummarizeOptions) {
		o.Logger = opts.Logger
		o.Threshold = opts.SummarizeThreshold
		o.Window = opts.SummarizeWindow
		if opts.SummarizePrompt != "" {
			o.Prompt = opts.SummarizePrompt
		}
	})

	g, err := graph.NewBuilder().
		AddNode(router).
		AddNode(calculator).
		AddNode(chat).
		AddNode(sentiment).
		AddNode(calming).
		AddNode(summarize).
		SetEntryPoint(router.Name()).
		AddConditionalEdges(router.Name(), []graph.Branch{
			{When: node.RouteIs(node.RouteCalculator), To: calculator.Name()},
		}, chat.Name()).
		AddEdge(calculator.Name(), graph.End).
		AddEdge(chat.Name(), sentiment.Name()).
		AddConditionalEdges(sentiment.Name(), []graph.Branch{
			{When: node.SentimentIs(graph.SentimentNegative), To: calming.Name()},
		}, summarize.Name()).
		AddEdge(calming.Name(), summarize.Name()).
		AddEdge(summarize.Name(), graph.End).
		Compile()
	if err != nil {
		return nil, err
	}

	return graph.NewExecutor(g, func(o *graph.ExecutorOptions) {
		o.MaxSteps = opts.MaxSteps
		o.NodeTimeout = opts.NodeTimeout
		o.Logger = opts.Logger
		o.Recorder = opts.Recorder
	}), nil
}
