package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
)

// AddWatchlistEntry adds a username to the watchlist. The leading @ is
// stripped and the handle lowercased before storing.
func (s *Store) AddWatchlistEntry(ctx context.Context, username, notes string) (*domain.WatchlistEntry, error) {
	username = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
	if username == "" {
		return nil, errors.Validation("username must not be empty")
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO watchlist (username, notes, created_at) VALUES (?, ?, ?)`,
		username, notes, formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Conflictf("@%s is already on the watchlist", username)
		}
		return nil, fmt.Errorf("add watchlist entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("watchlist id: %w", err)
	}
	return &domain.WatchlistEntry{ID: id, Username: username, Notes: notes, CreatedAt: now}, nil
}

// ListWatchlist returns all watched accounts, newest first, each with the
// count of stored bookmarks by that author.
func (s *Store) ListWatchlist(ctx context.Context) ([]*domain.WatchlistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id, w.username, w.notes, w.created_at,
			(SELECT COUNT(*) FROM bookmarks b WHERE b.author_username = w.username) as count
		FROM watchlist w
		ORDER BY w.created_at DESC, w.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	entries := []*domain.WatchlistEntry{}
	for rows.Next() {
		var e domain.WatchlistEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Username, &e.Notes, &createdAt, &e.BookmarkCount); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// RemoveWatchlistEntry deletes a watchlist entry by id.
func (s *Store) RemoveWatchlistEntry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove watchlist entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("watchlist entry not found")
	}
	return nil
}
