package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
)

// CreateCategory inserts a category. An empty icon gets the default.
func (s *Store) CreateCategory(ctx context.Context, name, icon string, sortOrder int) (*domain.Category, error) {
	if icon == "" {
		icon = domain.DefaultCategoryIcon
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, icon, sort_order, created_at) VALUES (?, ?, ?, ?)`,
		name, icon, sortOrder, formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Conflictf("category %q already exists", name)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("category id: %w", err)
	}
	return &domain.Category{ID: id, Name: name, Icon: icon, SortOrder: sortOrder, CreatedAt: now}, nil
}

// GetCategory retrieves a category by ID.
func (s *Store) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, icon, sort_order, created_at FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

// FindCategoryByName retrieves a category by its unique name.
func (s *Store) FindCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, icon, sort_order, created_at FROM categories WHERE name = ?`, name)
	return scanCategory(row)
}

func scanCategory(row *sql.Row) (*domain.Category, error) {
	var c domain.Category
	var createdAt string
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.SortOrder, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("category not found")
	}
	if err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns all categories ordered by sort_order then name,
// each with its bookmark count.
func (s *Store) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.icon, c.sort_order, c.created_at, COUNT(b.id) as count
		FROM categories c
		LEFT JOIN bookmarks b ON b.category_id = c.id
		GROUP BY c.id
		ORDER BY c.sort_order ASC, c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		var c domain.Category
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.SortOrder, &createdAt, &c.BookmarkCount); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// UpdateCategory changes a category's name, icon, or sort order.
func (s *Store) UpdateCategory(ctx context.Context, id int64, name, icon string, sortOrder int) (*domain.Category, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, icon = ?, sort_order = ? WHERE id = ?`,
		name, icon, sortOrder, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Conflictf("category %q already exists", name)
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errors.NotFound("category not found")
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes a category. Bookmarks referencing it have their
// category cleared, not deleted.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("category not found")
	}
	return nil
}
