package graph

import (
	"fmt"
	"strings"
)

// Role identifies the author of a conversational message. The set is closed:
// values outside the three constants are rejected at ingestion via ParseRole
// rather than carried around as free-form strings.
type Role string

const (
	// RoleUser marks a message written by the human user.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by a node or model.
	RoleAssistant Role = "assistant"
	// RoleSystem marks an instruction message supplied by the application.
	RoleSystem Role = "system"
)

// ParseRole validates a raw role string against the closed role set.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleUser, RoleAssistant, RoleSystem:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Message is a single conversational turn.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UserMessage constructs a user-authored message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Text: text} }

// AssistantMessage constructs an assistant-authored message.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Text: text} }

// SystemMessage constructs a system instruction message.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Text: text} }

// Sentiment is the closed classification tag produced by the sentiment node.
type Sentiment string

const (
	// SentimentPositive indicates a positive user mood.
	SentimentPositive Sentiment = "positive"
	// SentimentNeutral is the default until a classification runs.
	SentimentNeutral Sentiment = "neutral"
	// SentimentNegative indicates a negative user mood.
	SentimentNegative Sentiment = "negative"
)

// NormalizeSentiment coerces arbitrary classifier output into the closed
// sentiment set. Anything that is not recognizably positive or negative maps
// to neutral so raw, unvalidated model text never ends up in state.
func NormalizeSentiment(raw string) Sentiment {
	switch s := strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), ".!\"'"))); s {
	case string(SentimentPositive):
		return SentimentPositive
	case string(SentimentNegative):
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// State is the cumulative conversation record threaded through a graph run.
// It is immutable by convention: nodes receive a value and describe changes
// via a Delta; the executor produces the successor state with Apply. Messages
// and Summaries are append-only, scalar fields are replaced wholesale.
type State struct {
	Messages        []Message `json:"messages"`
	Sentiment       Sentiment `json:"sentiment"`
	CalmingResponse string    `json:"calming_response,omitempty"`
	Summaries       []string  `json:"summaries,omitempty"`

	// Route is the transient decision written by a router node and consumed
	// by the edge table of the same step. It carries no meaning afterwards.
	Route string `json:"route,omitempty"`
}

// NewState returns an empty conversation state with a neutral sentiment.
func NewState() State {
	return State{Sentiment: SentimentNeutral}
}

// Clone returns a deep copy safe for independent mutation.
func (s State) Clone() State {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	out.Summaries = make([]string, len(s.Summaries))
	copy(out.Summaries, s.Summaries)
	return out
}

// LastUserMessage returns the text of the most recent user-authored message.
func (s State) LastUserMessage() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Text, true
		}
	}
	return "", false
}

// LastAssistantMessage returns the text of the most recent assistant message.
func (s State) LastAssistantMessage() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Text, true
		}
	}
	return "", false
}

// AppendUserMessage returns a copy of the state with one additional user turn.
// Callers use this to feed new input into a run without touching Apply.
func (s State) AppendUserMessage(text string) State {
	out := s.Clone()
	out.Messages = append(out.Messages, UserMessage(text))
	return out
}

// Delta is the partial state update returned by a node. Sequence fields are
// appended to the current state, pointer fields replace the corresponding
// scalar when non-nil. A Delta can never remove or reorder prior messages.
type Delta struct {
	Messages        []Message
	Summaries       []string
	Sentiment       *Sentiment
	CalmingResponse *string
	Route           *string
}

// IsZero reports whether the delta carries no changes at all.
func (d Delta) IsZero() bool {
	return len(d.Messages) == 0 && len(d.Summaries) == 0 &&
		d.Sentiment == nil && d.CalmingResponse == nil && d.Route == nil
}

// Apply merges a node's partial update into the state, returning the new
// state. The receiver is left untouched.
func (s State) Apply(d Delta) State {
	out := s.Clone()
	out.Messages = append(out.Messages, d.Messages...)
	out.Summaries = append(out.Summaries, d.Summaries...)
	if d.Sentiment != nil {
		out.Sentiment = NormalizeSentiment(string(*d.Sentiment))
	}
	if d.CalmingResponse != nil {
		out.CalmingResponse = *d.CalmingResponse
	}
	if d.Route != nil {
		out.Route = *d.Route
	}
	return out
}
