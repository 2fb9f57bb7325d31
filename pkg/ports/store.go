package ports

import (
	"context"

	"github.com/dialgraph/callflow/pkg/domain"
)

// SessionStore defines the interface for persisting call sessions. Each Save
// should be durable enough to survive a process restart mid-call; reads
// prefer the in-memory copy when a backend keeps one.
type SessionStore interface {
	// Save persists the session for a given call ID. Last write wins.
	Save(ctx context.Context, callID string, session *domain.CallSession) error

	// Load retrieves the session for a given call ID.
	// Returns domain.ErrSessionNotFound if the call is unknown.
	Load(ctx context.Context, callID string) (*domain.CallSession, error)

	// Delete removes the session for a given call ID.
	Delete(ctx context.Context, callID string) error
}
