package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/db"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// Schema creates the table backing PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS client_sessions (
	profile      TEXT PRIMARY KEY,
	access_token TEXT NOT NULL,
	token_type   TEXT NOT NULL DEFAULT 'Bearer',
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps one token pair per profile, letting several watcher
// hosts share a client session.
type PostgresStore struct {
	db      db.Querier
	profile string
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store for profile.
func NewPostgresStore(q db.Querier, profile string) *PostgresStore {
	if profile == "" {
		profile = "default"
	}
	return &PostgresStore{db: q, profile: profile}
}

func (s *PostgresStore) Load(ctx context.Context) (models.Token, error) {
	var token models.Token
	err := s.db.QueryRow(ctx, `
		SELECT access_token, token_type
		FROM client_sessions
		WHERE profile = $1
	`, s.profile).Scan(&token.AccessToken, &token.TokenType)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Token{}, ErrNoSession
	}
	if err != nil {
		return models.Token{}, fmt.Errorf("failed to load session: %w", err)
	}
	return token, nil
}

func (s *PostgresStore) Save(ctx context.Context, token models.Token) error {
	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = models.DefaultTokenType
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO client_sessions (profile, access_token, token_type, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (profile) DO UPDATE
		SET access_token = EXCLUDED.access_token, token_type = EXCLUDED.token_type, updated_at = NOW()
	`, s.profile, token.AccessToken, tokenType)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DELETE FROM client_sessions WHERE profile = $1`, s.profile)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
