package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deadlymenace/x-personal/internal/domain"
)

// GetSyncState returns the singleton sync state row. The schema seeds it,
// so a missing row only happens against an empty database and reads as
// the zero state.
func (s *Store) GetSyncState(ctx context.Context) (*domain.SyncState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT last_sync_at, total_synced, last_cursor FROM sync_state WHERE id = 1`)

	var state domain.SyncState
	var lastSyncAt, lastCursor sql.NullString
	err := row.Scan(&lastSyncAt, &state.TotalSynced, &lastCursor)
	if err == sql.ErrNoRows {
		return &state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sync state: %w", err)
	}

	if state.LastSyncAt, err = parseNullableTime(lastSyncAt); err != nil {
		return nil, err
	}
	state.LastCursor = lastCursor.String
	return &state, nil
}

// UpdateSyncState overwrites the singleton sync state row.
func (s *Store) UpdateSyncState(ctx context.Context, state *domain.SyncState) error {
	var lastSyncAt any
	if state.LastSyncAt != nil {
		lastSyncAt = formatTime(*state.LastSyncAt)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (id, last_sync_at, total_synced, last_cursor)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_sync_at = excluded.last_sync_at,
			total_synced = excluded.total_synced,
			last_cursor = excluded.last_cursor`,
		lastSyncAt, state.TotalSynced, nullString(state.LastCursor))
	if err != nil {
		return fmt.Errorf("update sync state: %w", err)
	}
	return nil
}
