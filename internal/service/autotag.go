package service

import (
	"context"
	"log/slog"

	"github.com/deadlymenace/x-personal/internal/store/sqlite"
)

// AutoTagService evaluates tag rules against stored bookmarks.
type AutoTagService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewAutoTagService creates an AutoTagService.
func NewAutoTagService(store *sqlite.Store, logger *slog.Logger) *AutoTagService {
	return &AutoTagService{store: store, logger: logger}
}

// ApplyRules runs every rule against one bookmark and attaches the tags
// of those that match. Re-running is harmless: attach is idempotent, and
// tags a rule applied earlier stay even if the bookmark was edited.
// Returns the number of rules that matched.
func (s *AutoTagService) ApplyRules(ctx context.Context, bookmarkID string) (int, error) {
	b, err := s.store.GetBookmark(ctx, bookmarkID)
	if err != nil {
		return 0, err
	}
	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return 0, err
	}

	matched := 0
	for _, rule := range rules {
		if !rule.Matches(b) {
			continue
		}
		if err := s.store.AttachTag(ctx, b.ID, rule.TagID); err != nil {
			return matched, err
		}
		matched++
	}
	return matched, nil
}

// ApplyAll runs every rule against every stored bookmark. Returns the
// number of bookmarks processed.
func (s *AutoTagService) ApplyAll(ctx context.Context) (int, error) {
	ids, err := s.store.ListBookmarkIDs(ctx)
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		if _, err := s.ApplyRules(ctx, id); err != nil {
			return 0, err
		}
	}

	s.logger.Info("auto-tag rules applied", "bookmarks", len(ids))
	return len(ids), nil
}
