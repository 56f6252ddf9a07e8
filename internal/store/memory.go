package store

import (
	"context"
	"sync"
	"time"

	"github.com/studyai/studyai/internal/schema"
)

// MemoryStore is the process-local fallback backend. It has no automatic
// expiry; a janitor must call Sweep periodically. Sessions are deep-copied
// on both Put and Get so no two callers ever share a mutable record.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*schema.Session
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*schema.Session)}
}

// Get returns a copy of the stored session or ErrSessionNotFound.
func (m *MemoryStore) Get(_ context.Context, id string) (*schema.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

// Put stores a copy of s. The ttl parameter is ignored here; expiry for
// this backend is handled by Sweep using each session's LastActivity.
func (m *MemoryStore) Put(_ context.Context, s *schema.Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = s.Clone()
	return nil
}

// Delete removes a session; removing a missing id is a no-op.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Sweep removes sessions whose LastActivity is older than ttl and returns
// how many were removed.
func (m *MemoryStore) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
