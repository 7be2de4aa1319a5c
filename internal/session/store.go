// Package session persists the backend session token pair between runs.
package session

import (
	"context"
	"errors"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// ErrNoSession is returned by Load when no token is stored.
var ErrNoSession = errors.New("no active session")

// Store reads, writes and clears the session token pair.
type Store interface {
	Load(ctx context.Context) (models.Token, error)
	Save(ctx context.Context, token models.Token) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the token in memory. Used by the watcher when a token is
// passed on the command line, and by tests.
type MemoryStore struct {
	token models.Token
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding token.
func NewMemoryStore(token models.Token) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Load(_ context.Context) (models.Token, error) {
	if m.token.IsZero() {
		return models.Token{}, ErrNoSession
	}
	return m.token, nil
}

func (m *MemoryStore) Save(_ context.Context, token models.Token) error {
	m.token = token
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.token = models.Token{}
	return nil
}
