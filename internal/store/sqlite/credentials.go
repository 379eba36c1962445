package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
)

// GetCredential returns the stored OAuth credential. The table holds at
// most one row; errors.ErrUnauthenticated means none is stored.
func (s *Store) GetCredential(ctx context.Context) (*domain.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, expires_at, scope, user_id, username, updated_at
		FROM oauth_tokens WHERE id = 1`)

	var c domain.Credential
	var expiresAt, updatedAt string
	var scope, userID, username sql.NullString
	err := row.Scan(&c.AccessToken, &c.RefreshToken, &expiresAt, &scope, &userID, &username, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.Unauthenticated("no stored credential")
	}
	if err != nil {
		return nil, fmt.Errorf("query credential: %w", err)
	}

	if c.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	c.Scope = scope.String
	c.UserID = userID.String
	c.Username = username.String
	return &c, nil
}

// StoreCredential writes the single credential row, replacing any
// previous one.
func (s *Store) StoreCredential(ctx context.Context, c *domain.Credential) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oauth_tokens (id, access_token, refresh_token, expires_at, scope, user_id, username, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			scope = excluded.scope,
			user_id = excluded.user_id,
			username = excluded.username,
			updated_at = excluded.updated_at`,
		c.AccessToken,
		c.RefreshToken,
		formatTime(c.ExpiresAt),
		nullString(c.Scope),
		nullString(c.UserID),
		nullString(c.Username),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// DeleteCredential removes the stored credential. Deleting when none is
// stored is a no-op.
func (s *Store) DeleteCredential(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM oauth_tokens WHERE id = 1`); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
