package node

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasiiff/convograph/graph"
	"github.com/wasiiff/convograph/model"
)

func TestSentiment_Classification(t *testing.T) {
	tests := []struct {
		name      string
		modelSays string
		want      graph.Sentiment
	}{
		{"positive", "positive", graph.SentimentPositive},
		{"negative", "negative", graph.SentimentNegative},
		{"neutral", "neutral", graph.SentimentNeutral},
		{"uppercase", "NEGATIVE", graph.SentimentNegative},
		{"trailing punctuation", "positive.", graph.SentimentPositive},
		{"chatty output coerced", "The user seems quite upset about this.", graph.SentimentNeutral},
		{"garbage coerced", "lorem ipsum", graph.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := model.NewMock("classifier")
			llm.AddResponse("I feel something", tt.modelSays)

			sentiment := NewSentiment(llm)
			state := graph.NewState().AppendUserMessage("I feel something")

			delta, err := sentiment.Run(context.Background(), state)
			require.NoError(t, err)
			require.NotNil(t, delta.Sentiment)
			assert.Equal(t, tt.want, *delta.Sentiment)
		})
	}
}

func TestSentiment_ModelFailureDefaultsToNeutral(t *testing.T) {
	llm := model.NewMock("classifier")
	llm.FailWith(errors.New("api down"))

	sentiment := NewSentiment(llm)
	state := graph.NewState().AppendUserMessage("I feel terrible today")

	delta, err := sentiment.Run(context.Background(), state)
	require.NoError(t, err, "classifier failure must not escape the node")
	require.NotNil(t, delta.Sentiment)
	assert.Equal(t, graph.SentimentNeutral, *delta.Sentiment)
}

func TestSentiment_NoUserMessage(t *testing.T) {
	llm := model.NewMock("classifier")
	sentiment := NewSentiment(llm)

	delta, err := sentiment.Run(context.Background(), graph.NewState())
	require.NoError(t, err)
	assert.True(t, delta.IsZero())
	assert.Empty(t, llm.Calls())
}
