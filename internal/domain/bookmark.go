package domain

import "time"

// Bookmark is a locally stored copy of a post saved on X, enriched with
// user organization metadata. ID is the remote post ID and is stable
// across re-syncs.
type Bookmark struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	AuthorName     string    `json:"author_name"`
	PostURL        string    `json:"post_url"`
	CreatedAt      time.Time `json:"created_at"`      // When the post was published
	ConversationID string    `json:"conversation_id"` // Thread root, empty if standalone

	// Engagement metrics, refreshed on every sync.
	Likes         int `json:"likes"`
	Retweets      int `json:"retweets"`
	Replies       int `json:"replies"`
	Quotes        int `json:"quotes"`
	Impressions   int `json:"impressions"`
	BookmarkCount int `json:"bookmark_count"`

	// Entities extracted from the post text, in order of appearance.
	URLs     []string `json:"urls"`
	Mentions []string `json:"mentions"`
	Hashtags []string `json:"hashtags"`

	// User-editable fields. Sync never touches these.
	CategoryID *int64 `json:"category_id"`
	Notes      string `json:"notes"`
	IsPinned   bool   `json:"is_pinned"`

	BookmarkedAt   time.Time `json:"bookmarked_at"`
	SyncedAt       time.Time `json:"synced_at"`
	CreatedLocally time.Time `json:"created_locally"`

	// Tags is populated by list/get queries, not stored on the row.
	Tags []*Tag `json:"tags,omitempty"`
}

// BookmarkPage is one page of a filtered bookmark listing.
type BookmarkPage struct {
	Bookmarks  []*Bookmark `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// BookmarkPatch carries the user-editable fields of a bookmark.
// Nil fields are left unchanged.
type BookmarkPatch struct {
	Notes      *string `json:"notes,omitempty"`
	CategoryID *int64  `json:"category_id,omitempty"`
	IsPinned   *bool   `json:"is_pinned,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p BookmarkPatch) Empty() bool {
	return p.Notes == nil && p.CategoryID == nil && p.IsPinned == nil
}

// ImportResult summarizes an import batch.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// Stats is the dashboard summary.
type Stats struct {
	Total         int         `json:"total"`
	TagCount      int         `json:"tag_count"`
	CategoryCount int         `json:"category_count"`
	LastSyncAt    *time.Time  `json:"last_sync_at"`
	TotalSynced   int         `json:"total_synced"`
	TopTags       []TagCount  `json:"top_tags"`
	TopAuthors    []NameCount `json:"top_authors"`
}

// TagCount pairs a tag with its bookmark count.
type TagCount struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// NameCount pairs a name with an occurrence count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
