package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Values are copied on the way
// in and out so callers never share a *Session with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Load(_ context.Context, identity string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[identity]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.put(s.Identity, s.Clone())
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, identity string) error {
	m.put(identity, nil)
	return nil
}

func (m *MemoryStore) SweepExpired(_ context.Context, cutoff time.Time) (int, error) {
	return len(m.sweep(cutoff)), nil
}

func (m *MemoryStore) Close() error { return nil }

// put stores s under identity, or removes the entry when s is nil, and
// returns the previous value.
func (m *MemoryStore) put(identity string, s *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.sessions[identity]
	if s == nil {
		delete(m.sessions, identity)
	} else {
		m.sessions[identity] = s
	}
	return prev
}

// sweep removes sessions last updated before cutoff and returns them.
func (m *MemoryStore) sweep(cutoff time.Time) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []*Session
	for id, s := range m.sessions {
		if s.LastUpdate.Before(cutoff) {
			delete(m.sessions, id)
			removed = append(removed, s)
		}
	}
	return removed
}

func (m *MemoryStore) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	return out
}
