// Package memory keeps a bounded per-session window of past
// question/answer turns for prompt assembly.
package memory

import (
	"sync"

	"finsight/internal/rag/schema"
)

// Window is a FIFO buffer of the most recent turns of one session.
// Appending beyond the capacity evicts the oldest turn.
type Window struct {
	capacity int
	turns    []schema.Turn
}

// NewWindow creates a window holding at most capacity turns. A capacity
// of zero keeps no history.
func NewWindow(capacity int) *Window {
	return &Window{capacity: capacity}
}

// Append records a completed turn, evicting the oldest if full.
func (w *Window) Append(turn schema.Turn) {
	if w.capacity <= 0 {
		return
	}
	w.turns = append(w.turns, turn)
	if len(w.turns) > w.capacity {
		w.turns = w.turns[len(w.turns)-w.capacity:]
	}
}

// Turns returns the retained turns, oldest first.
func (w *Window) Turns() []schema.Turn {
	out := make([]schema.Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Len reports the number of retained turns.
func (w *Window) Len() int {
	return len(w.turns)
}

// Store holds the conversation windows of all active sessions. It is
// safe for concurrent use; each session's window is independent.
type Store struct {
	mu       sync.Mutex
	capacity int
	sessions map[string]*Window
}

// NewStore creates a session store whose windows hold at most capacity
// turns each.
func NewStore(capacity int) *Store {
	return &Store{
		capacity: capacity,
		sessions: make(map[string]*Window),
	}
}

// Append records a completed turn for the session, creating its window
// on first use.
func (s *Store) Append(sessionID string, turn schema.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.sessions[sessionID]
	if !ok {
		w = NewWindow(s.capacity)
		s.sessions[sessionID] = w
	}
	w.Append(turn)
}

// Turns returns the session's retained turns, oldest first. An unknown
// session has no history.
func (s *Store) Turns(sessionID string) []schema.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	return w.Turns()
}

// Clear drops the session's history.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
