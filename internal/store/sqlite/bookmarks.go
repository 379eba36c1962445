package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
)

// bookmarkColumns is the ordered list of columns selected in bookmark
// queries. Must match the scan order in scanBookmark.
const bookmarkColumns = `id, text, author_id, author_username, author_name, post_url,
	created_at, conversation_id, likes, retweets, replies, quotes,
	impressions, bookmark_count, urls, mentions, hashtags,
	category_id, notes, is_pinned, bookmarked_at, synced_at, created_locally`

// allowedSortColumns is the allow-list for dynamic sort keys. Anything
// else falls back to bookmarked_at.
var allowedSortColumns = map[string]bool{
	"bookmarked_at": true,
	"created_at":    true,
	"likes":         true,
	"impressions":   true,
	"retweets":      true,
}

// BookmarkFilter enumerates the supported filter dimensions for listing
// bookmarks. Zero values mean "no constraint".
type BookmarkFilter struct {
	Tags       []string // OR semantics across tag names
	CategoryID *int64
	Author     string
	Pinned     bool   // only surfaces pinned rows when true
	Query      string // full-text match against the FTS index
	Sort       string // one of the allow-listed columns
	Order      string // "asc" or "desc" (default desc)
	Page       int
	Limit      int
}

// scanBookmark scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Bookmark.
func scanBookmark(scanner interface{ Scan(dest ...any) error }) (*domain.Bookmark, error) {
	var b domain.Bookmark

	var (
		createdAt      string
		conversationID sql.NullString
		urls           string
		mentions       string
		hashtags       string
		categoryID     sql.NullInt64
		isPinned       int
		bookmarkedAt   string
		syncedAt       string
		createdLocally string
	)

	err := scanner.Scan(
		&b.ID,
		&b.Text,
		&b.AuthorID,
		&b.AuthorUsername,
		&b.AuthorName,
		&b.PostURL,
		&createdAt,
		&conversationID,
		&b.Likes,
		&b.Retweets,
		&b.Replies,
		&b.Quotes,
		&b.Impressions,
		&b.BookmarkCount,
		&urls,
		&mentions,
		&hashtags,
		&categoryID,
		&b.Notes,
		&isPinned,
		&bookmarkedAt,
		&syncedAt,
		&createdLocally,
	)
	if err != nil {
		return nil, err
	}

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	b.ConversationID = conversationID.String
	b.URLs = unmarshalStrings(urls)
	b.Mentions = unmarshalStrings(mentions)
	b.Hashtags = unmarshalStrings(hashtags)
	if categoryID.Valid {
		b.CategoryID = &categoryID.Int64
	}
	b.IsPinned = isPinned != 0
	if b.BookmarkedAt, err = parseTime(bookmarkedAt); err != nil {
		return nil, err
	}
	if b.SyncedAt, err = parseTime(syncedAt); err != nil {
		return nil, err
	}
	if b.CreatedLocally, err = parseTime(createdLocally); err != nil {
		return nil, err
	}

	return &b, nil
}

// UpsertBookmark inserts a bookmark or refreshes the remotely-sourced
// fields of an existing one. Returns true if a new row was inserted.
//
// The update path overwrites only text, engagement metrics, and
// synced_at; notes, category_id, is_pinned, and created_locally survive
// re-sync unchanged. The existence check and the write happen in one
// transaction so the insert-vs-update outcome is authoritative.
func (s *Store) UpsertBookmark(ctx context.Context, b *domain.Bookmark) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM bookmarks WHERE id = ?`, b.ID).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("check bookmark: %w", err)
	}
	inserted := err == sql.ErrNoRows

	now := time.Now().UTC()
	if b.SyncedAt.IsZero() {
		b.SyncedAt = now
	}
	if b.BookmarkedAt.IsZero() {
		b.BookmarkedAt = now
	}
	if b.CreatedLocally.IsZero() {
		b.CreatedLocally = now
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookmarks (
			id, text, author_id, author_username, author_name, post_url,
			created_at, conversation_id, likes, retweets, replies, quotes,
			impressions, bookmark_count, urls, mentions, hashtags,
			category_id, notes, is_pinned, bookmarked_at, synced_at, created_locally
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			likes = excluded.likes,
			retweets = excluded.retweets,
			replies = excluded.replies,
			quotes = excluded.quotes,
			impressions = excluded.impressions,
			bookmark_count = excluded.bookmark_count,
			synced_at = excluded.synced_at`,
		b.ID,
		b.Text,
		b.AuthorID,
		b.AuthorUsername,
		b.AuthorName,
		b.PostURL,
		formatTime(b.CreatedAt),
		nullString(b.ConversationID),
		b.Likes,
		b.Retweets,
		b.Replies,
		b.Quotes,
		b.Impressions,
		b.BookmarkCount,
		marshalStrings(b.URLs),
		marshalStrings(b.Mentions),
		marshalStrings(b.Hashtags),
		nullInt64Ptr(b.CategoryID),
		b.Notes,
		boolToInt(b.IsPinned),
		formatTime(b.BookmarkedAt),
		formatTime(b.SyncedAt),
		formatTime(b.CreatedLocally),
	)
	if err != nil {
		return false, fmt.Errorf("upsert bookmark: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// GetBookmark retrieves a bookmark by ID with its tags attached.
// Returns errors.ErrNotFound if absent.
func (s *Store) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ?`, id)

	b, err := scanBookmark(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("bookmark %s not found", id)
	}
	if err != nil {
		return nil, err
	}

	if b.Tags, err = s.TagsForBookmark(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookmarks returns a filtered, sorted page of bookmarks. Pinned
// bookmarks always sort first; the requested sort applies after that.
// Unrecognized sort keys fall back to bookmarked_at.
func (s *Store) ListBookmarks(ctx context.Context, f BookmarkFilter) (*domain.BookmarkPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	sortCol := f.Sort
	if !allowedSortColumns[sortCol] {
		sortCol = "bookmarked_at"
	}
	order := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		order = "ASC"
	}

	where, args := buildBookmarkWhere(f)

	var total int
	countQuery := `SELECT COUNT(*) FROM bookmarks b ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count bookmarks: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM bookmarks b %s ORDER BY b.is_pinned DESC, b.%s %s LIMIT ? OFFSET ?`,
		prefixColumns(bookmarkColumns, "b"), where, sortCol, order)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []*domain.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range bookmarks {
		if b.Tags, err = s.TagsForBookmark(ctx, b.ID); err != nil {
			return nil, err
		}
	}

	return &domain.BookmarkPage{
		Bookmarks:  bookmarks,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}, nil
}

// buildBookmarkWhere assembles the WHERE clause for the enumerated filter
// dimensions. Each dimension contributes a parameterized predicate; there
// is no caller-supplied SQL.
func buildBookmarkWhere(f BookmarkFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any

	if len(f.Tags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Tags)), ",")
		clauses = append(clauses, `b.id IN (
			SELECT bt.bookmark_id FROM bookmark_tags bt
			JOIN tags t ON t.id = bt.tag_id
			WHERE t.name IN (`+placeholders+`))`)
		for _, tag := range f.Tags {
			args = append(args, tag)
		}
	}
	if f.CategoryID != nil {
		clauses = append(clauses, "b.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.Author != "" {
		clauses = append(clauses, "b.author_username = ?")
		args = append(args, f.Author)
	}
	if f.Pinned {
		clauses = append(clauses, "b.is_pinned = 1")
	}
	if f.Query != "" {
		clauses = append(clauses, `b.rowid IN (
			SELECT rowid FROM bookmarks_fts WHERE bookmarks_fts MATCH ?)`)
		args = append(args, f.Query)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

// prefixColumns prefixes each column in a comma-separated list with a
// table alias.
func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// UpdateBookmark patches the user-editable fields of a bookmark.
// Returns the updated bookmark, or errors.ErrNotFound.
func (s *Store) UpdateBookmark(ctx context.Context, id string, patch domain.BookmarkPatch) (*domain.Bookmark, error) {
	if patch.Empty() {
		return nil, errors.Validation("no fields to update")
	}

	var sets []string
	var args []any
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}
	if patch.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, nullInt64Ptr(patch.CategoryID))
	}
	if patch.IsPinned != nil {
		sets = append(sets, "is_pinned = ?")
		args = append(args, boolToInt(*patch.IsPinned))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookmarks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update bookmark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errors.NotFoundf("bookmark %s not found", id)
	}

	return s.GetBookmark(ctx, id)
}

// ClearBookmarkCategory removes the category from a bookmark if set.
func (s *Store) ClearBookmarkCategory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bookmarks SET category_id = NULL WHERE id = ?`, id)
	return err
}

// SetBookmarkCategory assigns a category to a bookmark.
func (s *Store) SetBookmarkCategory(ctx context.Context, id string, categoryID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bookmarks SET category_id = ? WHERE id = ?`, categoryID, id)
	return err
}

// DeleteBookmark removes a bookmark. Join rows cascade.
func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFoundf("bookmark %s not found", id)
	}
	return nil
}

// BulkDelete removes the given bookmarks. Returns the number deleted.
func (s *Store) BulkDelete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// BulkTag attaches each tag to each bookmark, skipping pairs that already
// exist. Returns the number of new associations.
func (s *Store) BulkTag(ctx context.Context, ids []string, tagIDs []int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, id := range ids {
		for _, tagID := range tagIDs {
			res, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO bookmark_tags (bookmark_id, tag_id) VALUES (?, ?)`,
				id, tagID)
			if err != nil {
				return 0, fmt.Errorf("bulk tag: %w", err)
			}
			n, _ := res.RowsAffected()
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

// BulkUntag removes the given tag associations. Absent pairs are a no-op.
// Returns the number removed.
func (s *Store) BulkUntag(ctx context.Context, ids []string, tagIDs []int64) (int, error) {
	if len(ids) == 0 || len(tagIDs) == 0 {
		return 0, nil
	}
	idPlaceholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	tagPlaceholders := strings.TrimSuffix(strings.Repeat("?,", len(tagIDs)), ",")

	args := make([]any, 0, len(ids)+len(tagIDs))
	for _, id := range ids {
		args = append(args, id)
	}
	for _, tagID := range tagIDs {
		args = append(args, tagID)
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmark_tags WHERE bookmark_id IN (`+idPlaceholders+`)
		 AND tag_id IN (`+tagPlaceholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk untag: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ImportBookmarks applies an import batch as a single transaction.
// Records missing id or text are skipped, as are records whose id already
// exists — import never overwrites. Tags referenced by name are created
// if absent and attached, but only for newly inserted records.
func (s *Store) ImportBookmarks(ctx context.Context, bookmarks []*domain.Bookmark, tagNames map[string][]string) (*domain.ImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result := &domain.ImportResult{Total: len(bookmarks)}
	now := time.Now().UTC()

	for _, b := range bookmarks {
		if b.ID == "" || b.Text == "" {
			result.Skipped++
			continue
		}

		if b.BookmarkedAt.IsZero() {
			b.BookmarkedAt = now
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO bookmarks (
				id, text, author_id, author_username, author_name, post_url,
				created_at, conversation_id, likes, retweets, replies, quotes,
				impressions, bookmark_count, urls, mentions, hashtags,
				category_id, notes, is_pinned, bookmarked_at, synced_at, created_locally
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			b.ID,
			b.Text,
			b.AuthorID,
			b.AuthorUsername,
			b.AuthorName,
			b.PostURL,
			formatTime(b.CreatedAt),
			nullString(b.ConversationID),
			b.Likes,
			b.Retweets,
			b.Replies,
			b.Quotes,
			b.Impressions,
			b.BookmarkCount,
			marshalStrings(b.URLs),
			marshalStrings(b.Mentions),
			marshalStrings(b.Hashtags),
			nullInt64Ptr(b.CategoryID),
			b.Notes,
			boolToInt(b.IsPinned),
			formatTime(b.BookmarkedAt),
			formatTime(now),
			formatTime(now),
		)
		if err != nil {
			return nil, fmt.Errorf("import bookmark %s: %w", b.ID, err)
		}

		n, _ := res.RowsAffected()
		if n == 0 {
			result.Skipped++
			continue
		}
		result.Imported++

		for _, name := range tagNames[b.ID] {
			if name == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO tags (name, color, created_at) VALUES (?, ?, ?)`,
				name, domain.DefaultTagColor, formatTime(now)); err != nil {
				return nil, fmt.Errorf("import tag %q: %w", name, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO bookmark_tags (bookmark_id, tag_id)
				SELECT ?, id FROM tags WHERE name = ?`,
				b.ID, name); err != nil {
				return nil, fmt.Errorf("attach import tag %q: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return result, nil
}

// CountBookmarks returns the total number of stored bookmarks.
func (s *Store) CountBookmarks(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks`).Scan(&count)
	return count, err
}

// ListBookmarkIDs returns every bookmark id in the store.
func (s *Store) ListBookmarkIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM bookmarks`)
	if err != nil {
		return nil, fmt.Errorf("query bookmark ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListUncategorized returns bookmarks with no category, newest first,
// capped at limit (0 means no cap).
func (s *Store) ListUncategorized(ctx context.Context, limit int) ([]*domain.Bookmark, error) {
	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE category_id IS NULL ORDER BY bookmarked_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query uncategorized: %w", err)
	}
	defer rows.Close()

	var bookmarks []*domain.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// ListAllBookmarks returns every bookmark ordered by bookmarked_at
// descending, with tags attached. Used by export.
func (s *Store) ListAllBookmarks(ctx context.Context) ([]*domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks ORDER BY bookmarked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []*domain.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range bookmarks {
		if b.Tags, err = s.TagsForBookmark(ctx, b.ID); err != nil {
			return nil, err
		}
	}
	return bookmarks, nil
}

// Stats computes the dashboard summary: totals, last sync, top tags and
// authors.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks`).Scan(&stats.Total); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&stats.TagCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&stats.CategoryCount); err != nil {
		return nil, err
	}

	state, err := s.GetSyncState(ctx)
	if err != nil {
		return nil, err
	}
	stats.LastSyncAt = state.LastSyncAt
	stats.TotalSynced = state.TotalSynced

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, t.color, COUNT(bt.bookmark_id) as count
		FROM tags t
		LEFT JOIN bookmark_tags bt ON bt.tag_id = t.id
		GROUP BY t.id
		ORDER BY count DESC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("query top tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.Name, &tc.Color, &tc.Count); err != nil {
			return nil, err
		}
		stats.TopTags = append(stats.TopTags, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	authorRows, err := s.db.QueryContext(ctx, `
		SELECT author_username, COUNT(*) as count
		FROM bookmarks
		GROUP BY author_username
		ORDER BY count DESC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("query top authors: %w", err)
	}
	defer authorRows.Close()
	for authorRows.Next() {
		var nc domain.NameCount
		if err := authorRows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		stats.TopAuthors = append(stats.TopAuthors, nc)
	}
	return stats, authorRows.Err()
}

// boolToInt converts a bool to its sqlite integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
