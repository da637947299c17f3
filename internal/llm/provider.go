package llm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrProviderNotFound  = errors.New("provider not found")
	ErrNoDefaultProvider = errors.New("no default provider configured")
)

// Provider is a text-generation service reachable with a caller-held credential
type Provider interface {
	Name() string

	// Generate performs a single completion request
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Role is the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat request
type Message struct {
	Role    Role
	Content string
}

// Request is a provider-neutral completion request. Model overrides the
// provider's configured model when set.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Response is a completion with its token accounting
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Usage counts the tokens of one request
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// UserPrompt builds the single-turn request used for question generation
// and answer review
func UserPrompt(system, prompt string, maxTokens int) *Request {
	return &Request{
		System:    system,
		MaxTokens: maxTokens,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
	}
}

// Registry holds the configured providers and which one generative mode uses
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	preferred string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds or replaces a provider
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// SetDefault prefers a registered provider for generative mode
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	r.preferred = name
	return nil
}

// Default returns the preferred provider, falling back to the first
// registered name in sort order
func (r *Registry) Default() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.providers[r.preferred]; ok {
		return p, nil
	}
	names := r.names()
	if len(names) == 0 {
		return nil, ErrNoDefaultProvider
	}
	return r.providers[names[0]], nil
}

// List returns the registered provider names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

// Len returns the number of registered providers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
