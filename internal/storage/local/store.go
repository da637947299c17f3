package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/etltrainer/internal/trainer"
)

// SessionStore keeps live sessions as one JSON file per session
type SessionStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewSessionStore creates the store directory when missing
func NewSessionStore(basePath string) (*SessionStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &SessionStore{basePath: basePath}, nil
}

// path maps a session ID to its file. Only UUIDs are accepted so an ID can
// never name a file outside the store.
func (s *SessionStore) path(id string) (string, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return filepath.Join(s.basePath, id+".json"), true
}

// Put writes the session through a temp file and rename
func (s *SessionStore) Put(_ context.Context, sc trainer.SessionContext) error {
	path, ok := s.path(sc.ID)
	if !ok {
		return fmt.Errorf("invalid session id %q", sc.ID)
	}

	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Get loads a session
func (s *SessionStore) Get(_ context.Context, id string) (trainer.SessionContext, error) {
	path, ok := s.path(id)
	if !ok {
		return trainer.SessionContext{}, trainer.ErrSessionNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return readSession(path)
}

// Delete removes a session file
func (s *SessionStore) Delete(_ context.Context, id string) error {
	path, ok := s.path(id)
	if !ok {
		return trainer.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return trainer.ErrSessionNotFound
		}
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// List returns all stored sessions, most recently updated first
func (s *SessionStore) List(_ context.Context) ([]trainer.SessionContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []trainer.SessionContext{}, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	out := make([]trainer.SessionContext, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		sc, err := readSession(filepath.Join(s.basePath, name))
		if errors.Is(err, trainer.ErrSessionNotFound) {
			continue // removed concurrently
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func readSession(path string) (trainer.SessionContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return trainer.SessionContext{}, trainer.ErrSessionNotFound
		}
		return trainer.SessionContext{}, fmt.Errorf("read session: %w", err)
	}

	var sc trainer.SessionContext
	if err := json.Unmarshal(data, &sc); err != nil {
		return trainer.SessionContext{}, fmt.Errorf("decode json %s: %w", filepath.Base(path), err)
	}
	return sc, nil
}

var _ trainer.SessionStore = (*SessionStore)(nil)
