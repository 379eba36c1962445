package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/store/sqlite"
)

// CategoryService orchestrates category CRUD.
type CategoryService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(store *sqlite.Store, logger *slog.Logger) *CategoryService {
	return &CategoryService{store: store, logger: logger}
}

// List returns all categories with bookmark counts.
func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.store.ListCategories(ctx)
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, name, icon string, sortOrder int) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("category name must not be empty")
	}
	return s.store.CreateCategory(ctx, name, icon, sortOrder)
}

// Update changes a category's name, icon, or sort order.
func (s *CategoryService) Update(ctx context.Context, id int64, name, icon string, sortOrder int) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("category name must not be empty")
	}
	if icon == "" {
		icon = domain.DefaultCategoryIcon
	}
	return s.store.UpdateCategory(ctx, id, name, icon, sortOrder)
}

// Delete removes a category. Bookmarks in it become uncategorized.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteCategory(ctx, id)
}
