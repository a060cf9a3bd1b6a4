// Package provider queries third-party uptime monitor services.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
)

var (
	// ErrProviderFailed covers transport failures, non-2xx answers, stat=fail
	// payloads and malformed bodies. All of them are retried on the next poll.
	ErrProviderFailed = errors.New("provider request failed")

	ErrUnknownProvider = errors.New("unknown monitor provider")
)

// Query selects what to fetch. An empty MonitorIDs asks for every monitor of the account.
type Query struct {
	APIKey     string
	MonitorIDs []domain.MonitorRef
}

// Client fetches monitor state from one provider.
type Client interface {
	GetMonitors(ctx context.Context, q Query) ([]domain.MonitorData, error)
}

// Registry resolves clients by provider name.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds or replaces the client for name.
func (r *Registry) Register(name string, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = c
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// Fetch runs q against the client registered under name.
func (r *Registry) Fetch(ctx context.Context, name string, q Query) ([]domain.MonitorData, error) {
	r.mu.RLock()
	c, ok := r.clients[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return c.GetMonitors(ctx, q)
}
