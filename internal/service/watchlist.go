package service

import (
	"context"
	"log/slog"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/store/sqlite"
)

// WatchlistService tracks accounts followed for research.
type WatchlistService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewWatchlistService creates a WatchlistService.
func NewWatchlistService(store *sqlite.Store, logger *slog.Logger) *WatchlistService {
	return &WatchlistService{store: store, logger: logger}
}

// List returns all watched accounts.
func (s *WatchlistService) List(ctx context.Context) ([]*domain.WatchlistEntry, error) {
	return s.store.ListWatchlist(ctx)
}

// Add puts a username on the watchlist.
func (s *WatchlistService) Add(ctx context.Context, username, notes string) (*domain.WatchlistEntry, error) {
	return s.store.AddWatchlistEntry(ctx, username, notes)
}

// Remove deletes a watchlist entry.
func (s *WatchlistService) Remove(ctx context.Context, id int64) error {
	return s.store.RemoveWatchlistEntry(ctx, id)
}
