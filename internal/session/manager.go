// Package session resolves the opaque auth tokens sent by clients to the alias
// of the logged-in user. Tokens are issued by the login flow, which writes the
// session record into the shared Redis store; this package only reads them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session has expired
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidSession is returned when session data is invalid
	ErrInvalidSession = errors.New("invalid session")
)

// Manager defines the interface for session lookups
type Manager interface {
	Get(ctx context.Context, token string) (*Session, error)
}

// manager implements Manager interface
type manager struct {
	store Store
	now   func() time.Time
}

// NewManager creates a new session manager
func NewManager(store Store) Manager {
	return &manager{
		store: store,
		now:   time.Now,
	}
}

// Key returns the store key a token's session lives under
func Key(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Get retrieves the session for a token
func (m *manager) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	key := Key(token)

	data, err := m.store.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil || sess.Alias == "" {
		return nil, ErrInvalidSession
	}

	if !sess.ExpiresAt.IsZero() && m.now().After(sess.ExpiresAt) {
		// Best effort; the key TTL removes it anyway.
		_ = m.store.Delete(ctx, key)
		return nil, ErrSessionExpired
	}

	return &sess, nil
}
