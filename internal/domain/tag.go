package domain

import "time"

// DefaultTagColor is assigned when a tag is created without one.
const DefaultTagColor = "#6366f1"

// Tag labels bookmarks. Names are unique; many-to-many with Bookmark.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`

	// BookmarkCount is denormalized by list queries.
	BookmarkCount int `json:"bookmark_count,omitempty"`
}

// Category groups bookmarks. A bookmark has at most one category.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`

	BookmarkCount int `json:"bookmark_count,omitempty"`
}

// DefaultCategoryIcon is assigned when a category is created without one.
const DefaultCategoryIcon = "folder"

// WatchlistEntry is an account the user follows for research, independent
// of any bookmark.
type WatchlistEntry struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`

	BookmarkCount int `json:"bookmark_count,omitempty"`
}
