package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json/v2"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/store/sqlite"
)

// BookmarkService orchestrates bookmark reads, local edits, bulk
// operations, import/export, and the dashboard stats.
type BookmarkService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewBookmarkService creates a BookmarkService.
func NewBookmarkService(store *sqlite.Store, logger *slog.Logger) *BookmarkService {
	return &BookmarkService{store: store, logger: logger}
}

// List returns a filtered, sorted page of bookmarks.
func (s *BookmarkService) List(ctx context.Context, filter sqlite.BookmarkFilter) (*domain.BookmarkPage, error) {
	return s.store.ListBookmarks(ctx, filter)
}

// Get returns one bookmark with its tags.
func (s *BookmarkService) Get(ctx context.Context, id string) (*domain.Bookmark, error) {
	return s.store.GetBookmark(ctx, id)
}

// Update patches the user-editable fields of a bookmark.
func (s *BookmarkService) Update(ctx context.Context, id string, patch domain.BookmarkPatch) (*domain.Bookmark, error) {
	return s.store.UpdateBookmark(ctx, id, patch)
}

// Delete removes a bookmark locally. The remote bookmark on X is not
// touched.
func (s *BookmarkService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteBookmark(ctx, id)
}

// BulkDelete removes the given bookmarks, returning the number deleted.
func (s *BookmarkService) BulkDelete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, errors.Validation("ids must be a non-empty array")
	}
	return s.store.BulkDelete(ctx, ids)
}

// BulkTag attaches tags to bookmarks, returning the number of new
// associations.
func (s *BookmarkService) BulkTag(ctx context.Context, ids []string, tagIDs []int64) (int, error) {
	if len(ids) == 0 || len(tagIDs) == 0 {
		return 0, errors.Validation("ids and tag_ids must be non-empty arrays")
	}
	return s.store.BulkTag(ctx, ids, tagIDs)
}

// BulkUntag removes tag associations, returning the number removed.
func (s *BookmarkService) BulkUntag(ctx context.Context, ids []string, tagIDs []int64) (int, error) {
	if len(ids) == 0 || len(tagIDs) == 0 {
		return 0, errors.Validation("ids and tag_ids must be non-empty arrays")
	}
	return s.store.BulkUntag(ctx, ids, tagIDs)
}

// Import applies a batch of externally-sourced bookmarks. Existing
// records are never overwritten.
func (s *BookmarkService) Import(ctx context.Context, records []*domain.Bookmark, tagNames map[string][]string) (*domain.ImportResult, error) {
	for _, b := range records {
		if b.AuthorUsername == "" {
			b.AuthorUsername = "unknown"
		}
		if b.AuthorName == "" {
			b.AuthorName = "Unknown"
		}
		if b.PostURL == "" && b.ID != "" {
			b.PostURL = "https://x.com/" + b.AuthorUsername + "/status/" + b.ID
		}
	}

	result, err := s.store.ImportBookmarks(ctx, records, tagNames)
	if err != nil {
		return nil, err
	}
	s.logger.Info("import complete", "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

// Stats returns the dashboard summary.
func (s *BookmarkService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.store.Stats(ctx)
}

// Export is a portable snapshot of the whole collection.
type Export struct {
	ExportedAt time.Time          `json:"exported_at"`
	Count      int                `json:"count"`
	Bookmarks  []*domain.Bookmark `json:"bookmarks"`
}

// ExportJSON returns every bookmark with tags as a JSON document.
func (s *BookmarkService) ExportJSON(ctx context.Context) ([]byte, error) {
	bookmarks, err := s.store.ListAllBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Export{
		ExportedAt: time.Now().UTC(),
		Count:      len(bookmarks),
		Bookmarks:  bookmarks,
	})
}

// ExportCSV returns every bookmark as CSV with a fixed header row. Tags
// are joined into one comma-separated column.
func (s *BookmarkService) ExportCSV(ctx context.Context) ([]byte, error) {
	bookmarks, err := s.store.ListAllBookmarks(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"id", "text", "author_username", "author_name", "post_url",
		"created_at", "likes", "retweets", "impressions", "bookmarked_at",
		"notes", "is_pinned", "tags",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, b := range bookmarks {
		names := make([]string, len(b.Tags))
		for i, t := range b.Tags {
			names[i] = t.Name
		}
		row := []string{
			b.ID,
			b.Text,
			b.AuthorUsername,
			b.AuthorName,
			b.PostURL,
			b.CreatedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(b.Likes),
			strconv.Itoa(b.Retweets),
			strconv.Itoa(b.Impressions),
			b.BookmarkedAt.UTC().Format(time.RFC3339),
			b.Notes,
			strconv.FormatBool(b.IsPinned),
			strings.Join(names, ", "),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
