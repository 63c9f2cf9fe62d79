package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

// SessionStore holds the OAuth token set for the household's single linked
// account. Background jobs read it directly; there is no per-request user.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

const tokenCols = `id, provider, access_token, refresh_token, expires_at, created_at, updated_at`

func scanTokens(scanner interface{ Scan(...any) error }) (*model.OAuthTokens, error) {
	var t model.OAuthTokens
	err := scanner.Scan(&t.ID, &t.Provider, &t.AccessToken, &t.RefreshToken, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveTokens stores a fresh token set for the provider, replacing any
// previous rows for it.
func (s *SessionStore) SaveTokens(provider, accessToken, refreshToken string, expiresAt time.Time) (*model.OAuthTokens, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM oauth_tokens WHERE provider = ?`, provider); err != nil {
		return nil, fmt.Errorf("delete old tokens: %w", err)
	}
	result, err := tx.Exec(
		`INSERT INTO oauth_tokens (provider, access_token, refresh_token, expires_at) VALUES (?, ?, ?, ?)`,
		provider, accessToken, refreshToken, expiresAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert tokens: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+tokenCols+` FROM oauth_tokens WHERE id = ?`, id)
	return scanTokens(row)
}

// CurrentTokens returns the newest non-expired token set, or nil when no
// account is linked or the tokens have expired.
func (s *SessionStore) CurrentTokens() (*model.OAuthTokens, error) {
	row := s.db.QueryRow(
		`SELECT `+tokenCols+` FROM oauth_tokens WHERE expires_at > ? ORDER BY updated_at DESC LIMIT 1`,
		time.Now().UTC(),
	)
	t, err := scanTokens(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current tokens: %w", err)
	}
	return t, nil
}
