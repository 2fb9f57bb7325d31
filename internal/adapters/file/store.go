// Package file provides a filesystem-backed ports.SessionStore. Each call
// session is one JSON file, written through on every Put so a mid-call
// process restart can pick the conversation back up.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dialgraph/callflow/pkg/domain"
)

// Store implements ports.SessionStore using the local filesystem.
type Store struct {
	BasePath string
}

// New creates a Store with the given base path. If basePath is empty, it
// defaults to ".callflow/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".callflow", "sessions")
	}
	return &Store{BasePath: basePath}
}

// Save persists the session to a JSON file atomically: write to a temp file
// in the same directory, fsync, then rename over the destination.
func (s *Store) Save(ctx context.Context, callID string, session *domain.CallSession) error {
	if callID == "" {
		return fmt.Errorf("callID cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	destPath := filepath.Join(s.BasePath, callID+".json")

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Temp file in the same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+callID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename fails on Windows when the destination exists; remove first.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing session file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Load retrieves the session from its JSON file.
func (s *Store) Load(ctx context.Context, callID string) (*domain.CallSession, error) {
	if callID == "" {
		return nil, fmt.Errorf("callID cannot be empty")
	}

	data, err := os.ReadFile(filepath.Join(s.BasePath, callID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session domain.CallSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes the session file. A missing file is not an error.
func (s *Store) Delete(ctx context.Context, callID string) error {
	if callID == "" {
		return fmt.Errorf("callID cannot be empty")
	}

	err := os.Remove(filepath.Join(s.BasePath, callID+".json"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns all persisted call IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var calls []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			name := entry.Name()
			calls = append(calls, name[:len(name)-len(".json")])
		}
	}
	return calls, nil
}
