package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wasiiff/convograph/graph"
)

// ErrStateRegression is returned when an update would shrink the message
// history. Messages are append-only across runs sharing a session; only
// Reset may discard them.
var ErrStateRegression = errors.New("session update would drop messages")

// Snapshot is a point-in-time copy of a session. The embedded state is
// cloned, so callers may mutate it freely.
type Snapshot struct {
	ID      string
	State   graph.State
	Created time.Time
	Updated time.Time
	Runs    int
}

// Store persists conversation state between graph runs.
type Store interface {
	// Get returns a snapshot of the session, lazily creating an empty one.
	Get(id string) (Snapshot, error)

	// Update replaces the session state after a run and bumps the run
	// counter. Updates that shrink the message history are rejected with
	// ErrStateRegression.
	Update(id string, state graph.State) error

	// Reset discards the session state, starting over empty.
	Reset(id string) error
}

// NewID generates a fresh session identifier.
func NewID() string { return uuid.NewString() }

type entry struct {
	state   graph.State
	created time.Time
	updated time.Time
	runs    int
}

// InMemoryStore is a volatile Store keeping sessions in a process-local map.
// It is safe for concurrent access.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*entry)}
}

// Get implements Store.
func (s *InMemoryStore) Get(id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		e = s.createLocked(id)
	}
	return Snapshot{ID: id, State: e.state.Clone(), Created: e.created, Updated: e.updated, Runs: e.runs}, nil
}

// Update implements Store.
func (s *InMemoryStore) Update(id string, state graph.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		e = s.createLocked(id)
	}
	if len(state.Messages) < len(e.state.Messages) {
		return fmt.Errorf("%w: session %q has %d messages, update carries %d",
			ErrStateRegression, id, len(e.state.Messages), len(state.Messages))
	}
	e.state = state.Clone()
	e.updated = time.Now()
	e.runs++
	return nil
}

// Reset implements Store.
func (s *InMemoryStore) Reset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createLocked(id)
	return nil
}

// createLocked allocates and stores an empty session; caller must hold the
// write lock.
func (s *InMemoryStore) createLocked(id string) *entry {
	now := time.Now()
	e := &entry{state: graph.NewState(), created: now, updated: now}
	s.sessions[id] = e
	return e
}
