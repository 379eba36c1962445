package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/store/sqlite"
)

// TagService orchestrates tag CRUD, bookmark associations, and the
// auto-tag rules that feed the sync pipeline.
type TagService struct {
	store   *sqlite.Store
	autotag *AutoTagService
	logger  *slog.Logger
}

// NewTagService creates a TagService.
func NewTagService(store *sqlite.Store, autotag *AutoTagService, logger *slog.Logger) *TagService {
	return &TagService{store: store, autotag: autotag, logger: logger}
}

// List returns all tags with bookmark counts.
func (s *TagService) List(ctx context.Context) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx)
}

// Create adds a tag. Name is trimmed; duplicates conflict.
func (s *TagService) Create(ctx context.Context, name, color string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("tag name must not be empty")
	}
	return s.store.CreateTag(ctx, name, color)
}

// Update renames or recolors a tag.
func (s *TagService) Update(ctx context.Context, id int64, name, color string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("tag name must not be empty")
	}
	if color == "" {
		color = domain.DefaultTagColor
	}
	return s.store.UpdateTag(ctx, id, name, color)
}

// Delete removes a tag, its associations, and its rules.
func (s *TagService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteTag(ctx, id)
}

// Attach tags a bookmark. Both sides must exist.
func (s *TagService) Attach(ctx context.Context, bookmarkID string, tagID int64) error {
	if _, err := s.store.GetBookmark(ctx, bookmarkID); err != nil {
		return err
	}
	if _, err := s.store.GetTag(ctx, tagID); err != nil {
		return err
	}
	return s.store.AttachTag(ctx, bookmarkID, tagID)
}

// Detach removes a tag from a bookmark.
func (s *TagService) Detach(ctx context.Context, bookmarkID string, tagID int64) error {
	return s.store.DetachTag(ctx, bookmarkID, tagID)
}

// ListRules returns all auto-tag rules.
func (s *TagService) ListRules(ctx context.Context) ([]*domain.AutoTagRule, error) {
	return s.store.ListRules(ctx)
}

// CreateRule adds an auto-tag rule. It applies to future syncs; existing
// bookmarks are only touched by ApplyRules.
func (s *TagService) CreateRule(ctx context.Context, tagID int64, ruleType domain.RuleType, pattern string) (*domain.AutoTagRule, error) {
	return s.store.CreateRule(ctx, tagID, ruleType, strings.TrimSpace(pattern))
}

// DeleteRule removes a rule, leaving previously-applied tags in place.
func (s *TagService) DeleteRule(ctx context.Context, id int64) error {
	return s.store.DeleteRule(ctx, id)
}

// ApplyRules runs every rule against every stored bookmark. Returns the
// number of bookmarks processed.
func (s *TagService) ApplyRules(ctx context.Context) (int, error) {
	return s.autotag.ApplyAll(ctx)
}
