package session

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryRow
}

type memoryRow struct {
	sess      Session
	expiresAt time.Time
}

// NewMemoryStore constructs an in-memory durable backend for tests and
// cache-less development.
func NewMemoryStore() DurableStore {
	return &memoryStore{sessions: make(map[string]memoryRow)}
}

func (s *memoryStore) Get(_ context.Context, userID string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.sessions[userID]
	if !ok || time.Now().After(row.expiresAt) {
		return Session{}, ErrNotFound
	}
	return row.sess, nil
}

func (s *memoryStore) Put(_ context.Context, userID string, sess Session, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = memoryRow{sess: sess, expiresAt: expiresAt}
	return nil
}

func (s *memoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}
