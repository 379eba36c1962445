package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
)

// makeTestBookmark creates a domain.Bookmark with sensible defaults.
func makeTestBookmark(id string) *domain.Bookmark {
	now := time.Now().UTC()
	return &domain.Bookmark{
		ID:             id,
		Text:           "test post " + id,
		AuthorID:       "author-" + id,
		AuthorUsername: "testuser",
		AuthorName:     "Test User",
		PostURL:        "https://x.com/testuser/status/" + id,
		CreatedAt:      now.Add(-time.Hour),
		Likes:          10,
		Retweets:       2,
		Hashtags:       []string{"golang"},
		BookmarkedAt:   now,
	}
}

func TestUpsertBookmark_Insert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := makeTestBookmark("111")
	inserted, err := s.UpsertBookmark(ctx, b)
	if err != nil {
		t.Fatalf("UpsertBookmark: %v", err)
	}
	if !inserted {
		t.Error("expected inserted=true for new bookmark")
	}

	got, err := s.GetBookmark(ctx, "111")
	if err != nil {
		t.Fatalf("GetBookmark: %v", err)
	}
	if got.Text != b.Text {
		t.Errorf("Text: got %q, want %q", got.Text, b.Text)
	}
	if got.Likes != 10 {
		t.Errorf("Likes: got %d, want 10", got.Likes)
	}
	if len(got.Hashtags) != 1 || got.Hashtags[0] != "golang" {
		t.Errorf("Hashtags: got %v, want [golang]", got.Hashtags)
	}
	if got.BookmarkedAt.Unix() != b.BookmarkedAt.Unix() {
		t.Errorf("BookmarkedAt: got %v, want %v", got.BookmarkedAt, b.BookmarkedAt)
	}
}

func TestUpsertBookmark_PreservesLocalEdits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := makeTestBookmark("222")
	if _, err := s.UpsertBookmark(ctx, b); err != nil {
		t.Fatalf("UpsertBookmark: %v", err)
	}

	// Make local edits: notes, category, pinned.
	cat, err := s.CreateCategory(ctx, "Reading", "", 0)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	notes := "my notes"
	pinned := true
	if _, err := s.UpdateBookmark(ctx, "222", domain.BookmarkPatch{
		Notes:      &notes,
		CategoryID: &cat.ID,
		IsPinned:   &pinned,
	}); err != nil {
		t.Fatalf("UpdateBookmark: %v", err)
	}

	// Re-sync the same bookmark with updated remote fields.
	again := makeTestBookmark("222")
	again.Text = "edited upstream"
	again.Likes = 99
	inserted, err := s.UpsertBookmark(ctx, again)
	if err != nil {
		t.Fatalf("UpsertBookmark (resync): %v", err)
	}
	if inserted {
		t.Error("expected inserted=false for existing bookmark")
	}

	got, err := s.GetBookmark(ctx, "222")
	if err != nil {
		t.Fatalf("GetBookmark: %v", err)
	}
	// Remote fields refreshed.
	if got.Text != "edited upstream" {
		t.Errorf("Text: got %q, want refreshed text", got.Text)
	}
	if got.Likes != 99 {
		t.Errorf("Likes: got %d, want 99", got.Likes)
	}
	// Local edits preserved.
	if got.Notes != "my notes" {
		t.Errorf("Notes: got %q, want preserved", got.Notes)
	}
	if got.CategoryID == nil || *got.CategoryID != cat.ID {
		t.Errorf("CategoryID: got %v, want %d", got.CategoryID, cat.ID)
	}
	if !got.IsPinned {
		t.Error("IsPinned: expected preserved true")
	}
}

func TestGetBookmark_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBookmark(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListBookmarks_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		b := makeTestBookmark(fmt.Sprintf("p%d", i))
		b.BookmarkedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		if _, err := s.UpsertBookmark(ctx, b); err != nil {
			t.Fatalf("UpsertBookmark: %v", err)
		}
	}

	page, err := s.ListBookmarks(ctx, BookmarkFilter{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListBookmarks: %v", err)
	}
	if page.Total != 5 {
		t.Errorf("Total: got %d, want 5", page.Total)
	}
	if page.TotalPages != 3 {
		t.Errorf("TotalPages: got %d, want 3", page.TotalPages)
	}
	if len(page.Bookmarks) != 2 {
		t.Fatalf("expected 2 bookmarks, got %d", len(page.Bookmarks))
	}
	// Default sort is bookmarked_at DESC.
	if page.Bookmarks[0].ID != "p4" {
		t.Errorf("first item: got %s, want p4", page.Bookmarks[0].ID)
	}
}

func TestListBookmarks_PinnedFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := makeTestBookmark("old")
	old.BookmarkedAt = time.Now().UTC().Add(-24 * time.Hour)
	recent := makeTestBookmark("recent")
	for _, b := range []*domain.Bookmark{old, recent} {
		if _, err := s.UpsertBookmark(ctx, b); err != nil {
			t.Fatalf("UpsertBookmark: %v", err)
		}
	}

	pinned := true
	if _, err := s.UpdateBookmark(ctx, "old", domain.BookmarkPatch{IsPinned: &pinned}); err != nil {
		t.Fatalf("UpdateBookmark: %v", err)
	}

	page, err := s.ListBookmarks(ctx, BookmarkFilter{})
	if err != nil {
		t.Fatalf("ListBookmarks: %v", err)
	}
	// Pinned sorts first despite being older.
	if page.Bookmarks[0].ID != "old" {
		t.Errorf("first item: got %s, want pinned old", page.Bookmarks[0].ID)
	}
}

func TestListBookmarks_SortAllowList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	low := makeTestBookmark("low")
	low.Likes = 1
	high := makeTestBookmark("high")
	high.Likes = 500
	for _, b := range []*domain.Bookmark{low, high} {
		if _, err := s.UpsertBookmark(ctx, b); err != nil {
			t.Fatalf("UpsertBookmark: %v", err)
		}
	}

	page, err := s.ListBookmarks(ctx, BookmarkFilter{Sort: "likes"})
	if err != nil {
		t.Fatalf("ListBookmarks: %v", err)
	}
	if page.Bookmarks[0].ID != "high" {
		t.Errorf("likes sort: got %s first, want high", page.Bookmarks[0].ID)
	}

	// Unknown sort keys fall back to bookmarked_at rather than erroring.
	if _, err := s.ListBookmarks(ctx, BookmarkFilter{Sort: "likes; DROP TABLE bookmarks"}); err != nil {
		t.Fatalf("ListBookmarks with bogus sort: %v", err)
	}
	if _, err := s.GetBookmark(ctx, "high"); err != nil {
		t.Fatalf("bookmarks table should survive bogus sort: %v", err)
	}
}

func TestListBookmarks_TagFilterOR(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.UpsertBookmark(ctx, makeTestBookmark(id)); err != nil {
			t.Fatalf("UpsertBookmark: %v", err)
		}
	}

	tagGo, err := s.CreateTag(ctx, "go", "")
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	tagAI, err := s.CreateTag(ctx, "ai", "")
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := s.AttachTag(ctx, "a", tagGo.ID); err != nil {
		t.Fatalf("AttachTag: %v", err)
	}
	if err := s.AttachTag(ctx, "b", tagAI.ID); err != nil {
		t.Fatalf("AttachTag: %v", err)
	}

	// OR semantics: either tag matches; "c" has neither.
	page, err := s.ListBookmarks(ctx, BookmarkFilter{Tags: []string{"go", "ai"}})
	if err != nil {
		t.Fatalf("ListBookmarks: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Total: got %d, want 2", page.Total)
	}
	for _, b := range page.Bookmarks {
		if b.ID == "c" {
			t.Error("untagged bookmark should be excluded")
		}
	}
}

func TestListBookmarks_FullText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	match := makeTestBookmark("ft1")
	match.Text = "deep dive into sqlite internals"
	miss := makeTestBookmark("ft2")
	miss.Text = "weekend cooking thread"
	for _, b := range []*domain.Bookmark{match, miss} {
		if _, err := s.UpsertBookmark(ctx, b); err != nil {
			t.Fatalf("UpsertBookmark: %v", err)
		}
	}

	page, err := s.ListBookmarks(ctx, BookmarkFilter{Query: "sqlite"})
	if err != nil {
		t.Fatalf("ListBookmarks: %v", err)
	}
	if page.Total != 1 || page.Bookmarks[0].ID != "ft1" {
		t.Errorf("full-text match: got total=%d, want the sqlite post only", page.Total)
	}

	// Notes are indexed too.
	notes := "sqlite tuning tips"
	if _, err := s.UpdateBookmark(ctx, "ft2", domain.BookmarkPatch{Notes: &notes}); err != nil {
		t.Fatalf("UpdateBookmark: %v", err)
	}
	page, err = s.ListBookmarks(ctx, BookmarkFilter{Query: "sqlite"})
	if err != nil {
		t.Fatalf("ListBookmarks after notes update: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("full-text over notes: got total=%d, want 2", page.Total)
	}
}

func TestDeleteBookmark(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.UpsertBookmark(ctx, makeTestBookmark("del")); err != nil {
		t.Fatalf("UpsertBookmark: %v", err)
	}
	tag, err := s.CreateTag(ctx, "temp", "")
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := s.AttachTag(ctx, "del", tag.ID); err != nil {
		t.Fatalf("AttachTag: %v", err)
	}

	if err := s.DeleteBookmark(ctx, "del"); err != nil {
		t.Fatalf("DeleteBookmark: %v", err)
	}
	if _, err := s.GetBookmark(ctx, "del"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Join rows cascade; the tag itself survives.
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM bookmark_tags").Scan(&n); err != nil {
		t.Fatalf("count join rows: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 join rows after cascade, got %d", n)
	}
	if _, err := s.GetTag(ctx, tag.ID); err != nil {
		t.Errorf("tag should survive bookmark deletion: %v", err)
	}

	if err := s.DeleteBookmark(ctx, "del"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestBulkTagAndUntag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"b1", "b2"} {
		if _, err := s.UpsertBookmark(ctx, makeTestBookmark(id)); err != nil {
			t.Fatalf("UpsertBookmark: %v", err)
		}
	}
	tag, err := s.CreateTag(ctx, "bulk", "")
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	added, err := s.BulkTag(ctx, []string{"b1", "b2"}, []int64{tag.ID})
	if err != nil {
		t.Fatalf("BulkTag: %v", err)
	}
	if added != 2 {
		t.Errorf("added: got %d, want 2", added)
	}

	// Re-tagging existing pairs adds nothing.
	added, err = s.BulkTag(ctx, []string{"b1", "b2"}, []int64{tag.ID})
	if err != nil {
		t.Fatalf("BulkTag (repeat): %v", err)
	}
	if added != 0 {
		t.Errorf("repeat added: got %d, want 0", added)
	}

	removed, err := s.BulkUntag(ctx, []string{"b1"}, []int64{tag.ID})
	if err != nil {
		t.Fatalf("BulkUntag: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed: got %d, want 1", removed)
	}
}

func TestImportBookmarks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Pre-existing bookmark with local edits; import must not touch it.
	existing := makeTestBookmark("keep")
	if _, err := s.UpsertBookmark(ctx, existing); err != nil {
		t.Fatalf("UpsertBookmark: %v", err)
	}
	notes := "do not overwrite"
	if _, err := s.UpdateBookmark(ctx, "keep", domain.BookmarkPatch{Notes: &notes}); err != nil {
		t.Fatalf("UpdateBookmark: %v", err)
	}

	batch := []*domain.Bookmark{
		makeTestBookmark("keep"), // already exists
		makeTestBookmark("new1"),
		{ID: "no-text"}, // invalid: missing text
		makeTestBookmark("new2"),
	}
	tagNames := map[string][]string{
		"new1": {"imported", "go"},
		"keep": {"should-not-attach"},
	}

	result, err := s.ImportBookmarks(ctx, batch, tagNames)
	if err != nil {
		t.Fatalf("ImportBookmarks: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("Imported: got %d, want 2", result.Imported)
	}
	if result.Skipped != 2 {
		t.Errorf("Skipped: got %d, want 2", result.Skipped)
	}
	if result.Total != 4 {
		t.Errorf("Total: got %d, want 4", result.Total)
	}

	// Existing record untouched, including tags.
	got, err := s.GetBookmark(ctx, "keep")
	if err != nil {
		t.Fatalf("GetBookmark keep: %v", err)
	}
	if got.Notes != "do not overwrite" {
		t.Errorf("Notes: got %q, want preserved", got.Notes)
	}
	if len(got.Tags) != 0 {
		t.Errorf("tags attached to skipped record: %v", got.Tags)
	}

	// Imported record got its tags, created on demand.
	got, err = s.GetBookmark(ctx, "new1")
	if err != nil {
		t.Fatalf("GetBookmark new1: %v", err)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("expected 2 tags on new1, got %d", len(got.Tags))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := makeTestBookmark("s1")
	alice.AuthorUsername = "alice"
	bob1 := makeTestBookmark("s2")
	bob1.AuthorUsername = "bob"
	bob2 := makeTestBookmark("s3")
	bob2.AuthorUsername = "bob"
	for _, b := range []*domain.Bookmark{alice, bob1, bob2} {
		if _, err := s.UpsertBookmark(ctx, b); err != nil {
			t.Fatalf("UpsertBookmark: %v", err)
		}
	}

	tag, err := s.CreateTag(ctx, "stats", "")
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := s.AttachTag(ctx, "s1", tag.ID); err != nil {
		t.Fatalf("AttachTag: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total: got %d, want 3", stats.Total)
	}
	if stats.TagCount != 1 {
		t.Errorf("TagCount: got %d, want 1", stats.TagCount)
	}
	if len(stats.TopAuthors) == 0 || stats.TopAuthors[0].Name != "bob" {
		t.Errorf("TopAuthors: got %v, want bob first", stats.TopAuthors)
	}
}
