// Package model defines the narrow collaborator interface the graph nodes
// use for text generation and classification, plus a deterministic Mock for
// tests. Vendor adapters live in the openai and anthropic subpackages;
// retries, auth and rate limiting are their concern, not the engine's.
package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wasiiff/convograph/graph"
)

// Model is the single interface through which nodes reach an external
// text-generation or classification service: an ordered list of role-tagged
// messages in, one text completion out.
type Model interface {
	Invoke(ctx context.Context, messages []graph.Message) (string, error)

	// Name identifies the underlying model for logging and metrics.
	Name() string
}

// Mock is a lightweight in-memory Model for tests and examples. Responses
// are keyed by the text of the last non-system message; unmatched prompts
// get a generic echo. A forced error can be injected with FailWith.
type Mock struct {
	mu        sync.Mutex
	name      string
	responses map[string]string
	err       error
	calls     []string
}

// NewMock constructs a Mock with no canned responses.
func NewMock(name string) *Mock {
	return &Mock{name: name, responses: make(map[string]string)}
}

// AddResponse registers a deterministic completion for a prompt.
func (m *Mock) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailWith makes every subsequent Invoke return err. Pass nil to clear.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the prompts Invoke has been called with, in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Invoke implements Model.
func (m *Mock) Invoke(ctx context.Context, messages []graph.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}

	var prompt string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != graph.RoleSystem {
			prompt = messages[i].Text
			break
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, prompt)
	if m.err != nil {
		return "", m.err
	}
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return "Mock response to: " + strings.TrimSpace(prompt), nil
}

// Name implements Model.
func (m *Mock) Name() string { return m.name }
