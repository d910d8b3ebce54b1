// Package tokenstore keeps the bearer token used for protected storefront calls.
// Every store implements shopcache.TokenSource and reports a signed-out user as an empty token.
package tokenstore

import (
	"context"
	"strings"
	"sync"
)

// Memory keeps the token for the life of the process.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory creates a store holding token.
func NewMemory(token string) *Memory {
	return &Memory{token: strings.TrimSpace(token)}
}

// Token returns the current token.
func (m *Memory) Token(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.token, nil
}

// SetToken replaces the token.
func (m *Memory) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = strings.TrimSpace(token)

	return nil
}

// Clear forgets the token.
func (m *Memory) Clear(ctx context.Context) error {
	return m.SetToken(ctx, "")
}
