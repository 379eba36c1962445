package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
)

// CreateTag inserts a tag. An empty color gets the default. Duplicate
// names map to errors.ErrConflict.
func (s *Store) CreateTag(ctx context.Context, name, color string) (*domain.Tag, error) {
	if color == "" {
		color = domain.DefaultTagColor
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (name, color, created_at) VALUES (?, ?, ?)`,
		name, color, formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Conflictf("tag %q already exists", name)
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("tag id: %w", err)
	}
	return &domain.Tag{ID: id, Name: name, Color: color, CreatedAt: now}, nil
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, color, created_at FROM tags WHERE id = ?`, id)
	return scanTag(row)
}

// FindTagByName retrieves a tag by its unique name.
func (s *Store) FindTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, color, created_at FROM tags WHERE name = ?`, name)
	return scanTag(row)
}

// CreateTagIfAbsent returns the tag with the given name, creating it
// with the default color when it does not exist yet.
func (s *Store) CreateTagIfAbsent(ctx context.Context, name string) (*domain.Tag, error) {
	tag, err := s.FindTagByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	tag, err = s.CreateTag(ctx, name, "")
	if err == nil {
		return tag, nil
	}
	// Lost a create race; the row exists now.
	if errors.Is(err, errors.ErrConflict) {
		return s.FindTagByName(ctx, name)
	}
	return nil, err
}

func scanTag(row *sql.Row) (*domain.Tag, error) {
	var t domain.Tag
	var createdAt string
	err := row.Scan(&t.ID, &t.Name, &t.Color, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("tag not found")
	}
	if err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTags returns all tags with their bookmark counts, most used first,
// then alphabetical.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.created_at, COUNT(bt.bookmark_id) as count
		FROM tags t
		LEFT JOIN bookmark_tags bt ON bt.tag_id = t.id
		GROUP BY t.id
		ORDER BY count DESC, t.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &createdAt, &t.BookmarkCount); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

// UpdateTag renames or recolors a tag.
func (s *Store) UpdateTag(ctx context.Context, id int64, name, color string) (*domain.Tag, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, color = ? WHERE id = ?`, name, color, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Conflictf("tag %q already exists", name)
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errors.NotFound("tag not found")
	}
	return s.GetTag(ctx, id)
}

// DeleteTag removes a tag. Join rows and auto-tag rules cascade.
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("tag not found")
	}
	return nil
}

// AttachTag associates a tag with a bookmark. Attaching an existing pair
// is a no-op.
func (s *Store) AttachTag(ctx context.Context, bookmarkID string, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO bookmark_tags (bookmark_id, tag_id) VALUES (?, ?)`,
		bookmarkID, tagID)
	if err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}
	return nil
}

// DetachTag removes a tag association. Detaching an absent pair is a
// no-op.
func (s *Store) DetachTag(ctx context.Context, bookmarkID string, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmark_tags WHERE bookmark_id = ? AND tag_id = ?`,
		bookmarkID, tagID)
	if err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}
	return nil
}

// TagsForBookmark returns the tags attached to a bookmark, alphabetical.
func (s *Store) TagsForBookmark(ctx context.Context, bookmarkID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.created_at
		FROM tags t
		JOIN bookmark_tags bt ON bt.tag_id = t.id
		WHERE bt.bookmark_id = ?
		ORDER BY t.name ASC`, bookmarkID)
	if err != nil {
		return nil, fmt.Errorf("query bookmark tags: %w", err)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &createdAt); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}
