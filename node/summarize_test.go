package node

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasiiff/convograph/graph"
	"github.com/wasiiff/convograph/model"
)

func conversationOf(n int) graph.State {
	state := graph.NewState()
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			state = state.AppendUserMessage("user turn")
		} else {
			state = state.Apply(graph.Delta{Messages: []graph.Message{graph.AssistantMessage("assistant turn")}})
		}
	}
	return state
}

func TestSummarize_BelowThresholdLeavesSummariesUnchanged(t *testing.T) {
	llm := model.NewMock("summarizer")
	summarize := NewSummarize(llm, func(o *SummarizeOptions) { o.Threshold = 5 })

	delta, err := summarize.Run(context.Background(), conversationOf(5))
	require.NoError(t, err)
	assert.True(t, delta.IsZero())
	assert.Empty(t, llm.Calls())
}

func TestSummarize_AboveThresholdAppendsExactlyOneSummary(t *testing.T) {
	llm := model.NewMock("summarizer")
	summarize := NewSummarize(llm, func(o *SummarizeOptions) { o.Threshold = 5 })

	delta, err := summarize.Run(context.Background(), conversationOf(6))
	require.NoError(t, err)
	require.Len(t, delta.Summaries, 1)
	assert.NotEmpty(t, delta.Summaries[0])
	assert.Empty(t, delta.Messages)
}

func TestSummarize_WindowLimitsTranscript(t *testing.T) {
	llm := model.NewMock("summarizer")
	summarize := NewSummarize(llm, func(o *SummarizeOptions) {
		o.Threshold = 5
		o.Window = 2
	})

	_, err := summarize.Run(context.Background(), conversationOf(8))
	require.NoError(t, err)

	calls := llm.Calls()
	require.Len(t, calls, 1)
	// Only the last two turns appear in the transcript.
	assert.Equal(t, 2, strings.Count(calls[0], "\n"))
}

func TestSummarize_WholeHistoryByDefault(t *testing.T) {
	llm := model.NewMock("summarizer")
	summarize := NewSummarize(llm, func(o *SummarizeOptions) { o.Threshold = 5 })

	_, err := summarize.Run(context.Background(), conversationOf(8))
	require.NoError(t, err)

	calls := llm.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 8, strings.Count(calls[0], "\n"))
}

func TestSummarize_ModelFailureSkipsSummary(t *testing.T) {
	llm := model.NewMock("summarizer")
	llm.FailWith(errors.New("api down"))

	summarize := NewSummarize(llm, func(o *SummarizeOptions) { o.Threshold = 5 })

	delta, err := summarize.Run(context.Background(), conversationOf(10))
	require.NoError(t, err, "summarization failure must not escape the node")
	assert.True(t, delta.IsZero())
}

func TestSummarize_DefaultThreshold(t *testing.T) {
	llm := model.NewMock("summarizer")
	summarize := NewSummarize(llm)

	delta, err := summarize.Run(context.Background(), conversationOf(DefaultSummarizeThreshold))
	require.NoError(t, err)
	assert.True(t, delta.IsZero())

	delta, err = summarize.Run(context.Background(), conversationOf(DefaultSummarizeThreshold+1))
	require.NoError(t, err)
	assert.Len(t, delta.Summaries, 1)
}
