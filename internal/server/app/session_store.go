package app

import (
	"context"
	"sync"
	"time"

	"tradingagents/internal/server/ports"
)

// InMemorySessionStore implements ports.SessionStore with a mutex-guarded map.
//
// Sessions do not survive a process restart by design. During a run only the
// session's consumer goroutine mutates it (through Mutate); HTTP read and
// delete paths only ever see clones.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*ports.Session
}

// NewInMemorySessionStore creates a new in-memory session store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]*ports.Session),
	}
}

// Put stores or replaces a session snapshot.
func (s *InMemorySessionStore) Put(ctx context.Context, session *ports.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.SessionID] = session
	return nil
}

// Get returns a deep copy of the session.
func (s *InMemorySessionStore) Get(ctx context.Context, id string) (*ports.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, ports.ErrSessionNotFound
	}

	return session.Clone(), nil
}

// Mutate applies fn to the live session under the store lock.
func (s *InMemorySessionStore) Mutate(ctx context.Context, id string, fn func(*ports.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return ports.ErrSessionNotFound
	}

	fn(session)
	session.UpdatedAt = time.Now()
	return nil
}

// Delete removes a session.
func (s *InMemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return ports.ErrSessionNotFound
	}

	delete(s.sessions, id)
	return nil
}

// List returns deep copies of all sessions.
func (s *InMemorySessionStore) List(ctx context.Context) ([]*ports.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*ports.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session.Clone())
	}

	return sessions, nil
}

// Sweep removes completed sessions whose last update is older than maxAge.
// Best-effort: a session may be read after it became eligible but before a
// sweep ran.
func (s *InMemorySessionStore) Sweep(ctx context.Context, maxAge time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := make([]string, 0)
	for id, session := range s.sessions {
		if session.IsComplete && session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}

	return removed
}
