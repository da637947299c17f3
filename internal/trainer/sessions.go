package trainer

import (
	"context"
	"sort"
	"sync"
)

// Sessions is the in-memory SessionStore
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]SessionContext
}

// NewSessions creates an empty session registry
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]SessionContext)}
}

// Put stores sc as the current state of its session
func (r *Sessions) Put(_ context.Context, sc SessionContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sc.ID] = sc
	return nil
}

// Get returns the current state of a session
func (r *Sessions) Get(_ context.Context, id string) (SessionContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sc, ok := r.sessions[id]
	if !ok {
		return SessionContext{}, ErrSessionNotFound
	}
	return sc, nil
}

// Delete removes a session
func (r *Sessions) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// List returns the live sessions, most recently updated first
func (r *Sessions) List(_ context.Context) ([]SessionContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SessionContext, 0, len(r.sessions))
	for _, sc := range r.sessions {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

var _ SessionStore = (*Sessions)(nil)
