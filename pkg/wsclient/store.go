package wsclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SessionStore keeps the server-issued session id across reconnects.
type SessionStore interface {
	Load() (string, error)
	Save(sessionID string) error
	Clear() error
}

type MemorySessionStore struct {
	mu        sync.Mutex
	sessionID string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID, nil
}

func (s *MemorySessionStore) Save(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = sessionID
	return nil
}

func (s *MemorySessionStore) Clear() error {
	return s.Save("")
}

// FileSessionStore persists the session id as a small JSON file readable only
// by the current user.
type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

type sessionFile struct {
	SessionID string `json:"sessionId"`
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

func (s *FileSessionStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read session file: %w", err)
	}

	var f sessionFile
	if err := json.Unmarshal(b, &f); err != nil {
		return "", fmt.Errorf("failed to decode session file: %w", err)
	}
	return f.SessionID, nil
}

func (s *FileSessionStore) Save(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	b, err := json.Marshal(sessionFile{SessionID: sessionID})
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileSessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
