// Package memory provides an in-memory ports.SessionStore, used by tests and
// single-process development setups.
package memory

import (
	"context"
	"sync"

	"github.com/dialgraph/callflow/pkg/domain"
)

// Store implements ports.SessionStore with a mutex-guarded map. Sessions are
// deep-copied on both Save and Load so callers can never mutate the stored
// record in place.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.CallSession
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*domain.CallSession),
	}
}

// Save stores a copy of the session.
func (s *Store) Save(ctx context.Context, callID string, session *domain.CallSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[callID] = session.Clone()
	return nil
}

// Load returns a copy of the stored session.
func (s *Store) Load(ctx context.Context, callID string) (*domain.CallSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[callID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Delete removes the session. Deleting an unknown call is a no-op.
func (s *Store) Delete(ctx context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, callID)
	return nil
}

// Len reports the number of stored sessions. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
