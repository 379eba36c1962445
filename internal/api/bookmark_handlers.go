package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/store/sqlite"
)

func (s *Server) registerBookmarkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBookmarks",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookmarks",
		Summary:     "List bookmarks",
		Description: "Returns a filtered, sorted page of bookmarks",
		Tags:        []string{"Bookmarks"},
	}, s.handleListBookmarks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookmarkStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookmarks/stats",
		Summary:     "Dashboard stats",
		Tags:        []string{"Bookmarks"},
	}, s.handleBookmarkStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportBookmarks",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookmarks/export",
		Summary:     "Export bookmarks",
		Description: "Exports the whole collection as JSON or CSV",
		Tags:        []string{"Bookmarks"},
	}, s.handleExportBookmarks)

	huma.Register(s.api, huma.Operation{
		OperationID: "importBookmarks",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookmarks/import",
		Summary:     "Import bookmarks",
		Description: "Imports externally-sourced bookmarks, skipping existing IDs",
		Tags:        []string{"Bookmarks"},
	}, s.handleImportBookmarks)

	huma.Register(s.api, huma.Operation{
		OperationID: "syncBookmarks",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookmarks/sync",
		Summary:     "Sync from X",
		Description: "Pulls the remote bookmark timeline into the local store",
		Tags:        []string{"Bookmarks"},
	}, s.handleSyncBookmarks)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkDeleteBookmarks",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookmarks/bulk/delete",
		Summary:     "Bulk delete",
		Tags:        []string{"Bookmarks"},
	}, s.handleBulkDelete)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkTagBookmarks",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookmarks/bulk/tag",
		Summary:     "Bulk tag",
		Tags:        []string{"Bookmarks"},
	}, s.handleBulkTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkUntagBookmarks",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookmarks/bulk/untag",
		Summary:     "Bulk untag",
		Tags:        []string{"Bookmarks"},
	}, s.handleBulkUntag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookmark",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookmarks/{id}",
		Summary:     "Get bookmark",
		Tags:        []string{"Bookmarks"},
	}, s.handleGetBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBookmark",
		Method:      http.MethodPatch,
		Path:        "/api/v1/bookmarks/{id}",
		Summary:     "Update bookmark",
		Description: "Updates the user-editable fields: notes, category, pinned",
		Tags:        []string{"Bookmarks"},
	}, s.handleUpdateBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBookmark",
		Method:      http.MethodDelete,
		Path:        "/api/v1/bookmarks/{id}",
		Summary:     "Delete bookmark",
		Tags:        []string{"Bookmarks"},
	}, s.handleDeleteBookmark)
}

// === DTOs ===

// ListBookmarksInput carries the list filters as query parameters.
type ListBookmarksInput struct {
	Tags       string `query:"tags" doc:"Comma-separated tag names, OR semantics"`
	CategoryID int64  `query:"category_id" doc:"Filter by category ID"`
	Author     string `query:"author" doc:"Filter by author username"`
	Pinned     bool   `query:"pinned" doc:"Only pinned bookmarks"`
	Query      string `query:"q" doc:"Full-text search over text and notes"`
	Sort       string `query:"sort" enum:"bookmarked_at,created_at,likes,impressions,retweets" doc:"Sort column"`
	Order      string `query:"order" enum:"asc,desc" doc:"Sort direction"`
	Page       int    `query:"page" minimum:"1" doc:"Page number, 1-based"`
	Limit      int    `query:"limit" minimum:"1" maximum:"100" doc:"Page size"`
}

// BookmarkPageOutput wraps a bookmark listing for Huma.
type BookmarkPageOutput struct {
	Body domain.BookmarkPage
}

// BookmarkOutput wraps a single bookmark for Huma.
type BookmarkOutput struct {
	Body domain.Bookmark
}

// GetBookmarkInput identifies a bookmark by post ID.
type GetBookmarkInput struct {
	ID string `path:"id" doc:"Post ID"`
}

// UpdateBookmarkInput carries a bookmark patch.
type UpdateBookmarkInput struct {
	ID   string `path:"id" doc:"Post ID"`
	Body domain.BookmarkPatch
}

// ExportBookmarksInput selects the export format.
type ExportBookmarksInput struct {
	Format string `query:"format" enum:"json,csv" doc:"Export format, default json"`
}

// ExportBookmarksOutput is the raw export document.
type ExportBookmarksOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// ImportRecord is one bookmark in an import payload.
type ImportRecord struct {
	ID             string    `json:"id" doc:"Post ID"`
	Text           string    `json:"text" doc:"Post text"`
	AuthorUsername string    `json:"author_username,omitempty"`
	AuthorName     string    `json:"author_name,omitempty"`
	PostURL        string    `json:"post_url,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Tags           []string  `json:"tags,omitempty" doc:"Tag names to create and attach"`
}

// ImportBookmarksInput carries an import payload.
type ImportBookmarksInput struct {
	Body struct {
		Bookmarks []ImportRecord `json:"bookmarks" doc:"Records to import"`
	}
}

// ImportResultOutput wraps an import summary for Huma.
type ImportResultOutput struct {
	Body domain.ImportResult
}

// SyncResultOutput wraps a sync summary for Huma.
type SyncResultOutput struct {
	Body domain.SyncResult
}

// StatsOutput wraps the dashboard summary for Huma.
type StatsOutput struct {
	Body domain.Stats
}

// BulkIDsRequest selects bookmarks by ID.
type BulkIDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1" doc:"Post IDs"`
}

// BulkDeleteInput carries a bulk delete request.
type BulkDeleteInput struct {
	Body BulkIDsRequest
}

// BulkTagRequest pairs bookmark IDs with tag IDs.
type BulkTagRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1" doc:"Post IDs"`
	TagIDs []int64  `json:"tag_ids" validate:"required,min=1" doc:"Tag IDs"`
}

// BulkTagInput carries a bulk tag request.
type BulkTagInput struct {
	Body BulkTagRequest
}

// AffectedResponse reports how many rows an operation touched.
type AffectedResponse struct {
	Affected int `json:"affected" doc:"Number of rows changed"`
}

// AffectedOutput wraps an affected-count response for Huma.
type AffectedOutput struct {
	Body AffectedResponse
}

// === Handlers ===

func (s *Server) handleListBookmarks(ctx context.Context, input *ListBookmarksInput) (*BookmarkPageOutput, error) {
	filter := sqlite.BookmarkFilter{
		Author: input.Author,
		Pinned: input.Pinned,
		Query:  input.Query,
		Sort:   input.Sort,
		Order:  input.Order,
		Page:   input.Page,
		Limit:  input.Limit,
	}
	if input.Tags != "" {
		for _, name := range strings.Split(input.Tags, ",") {
			if name = strings.TrimSpace(name); name != "" {
				filter.Tags = append(filter.Tags, name)
			}
		}
	}
	if input.CategoryID > 0 {
		filter.CategoryID = &input.CategoryID
	}

	page, err := s.services.Bookmark.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &BookmarkPageOutput{Body: *page}, nil
}

func (s *Server) handleGetBookmark(ctx context.Context, input *GetBookmarkInput) (*BookmarkOutput, error) {
	b, err := s.services.Bookmark.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookmarkOutput{Body: *b}, nil
}

func (s *Server) handleUpdateBookmark(ctx context.Context, input *UpdateBookmarkInput) (*BookmarkOutput, error) {
	b, err := s.services.Bookmark.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookmarkOutput{Body: *b}, nil
}

func (s *Server) handleDeleteBookmark(ctx context.Context, input *GetBookmarkInput) (*struct{}, error) {
	if err := s.services.Bookmark.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleSyncBookmarks(ctx context.Context, _ *struct{}) (*SyncResultOutput, error) {
	result, err := s.services.Sync.Sync(ctx)
	if err != nil {
		return nil, err
	}
	return &SyncResultOutput{Body: *result}, nil
}

func (s *Server) handleImportBookmarks(ctx context.Context, input *ImportBookmarksInput) (*ImportResultOutput, error) {
	if len(input.Body.Bookmarks) == 0 {
		return nil, errors.Validation("bookmarks must be a non-empty array")
	}

	records := make([]*domain.Bookmark, len(input.Body.Bookmarks))
	tagNames := make(map[string][]string)
	for i, r := range input.Body.Bookmarks {
		records[i] = &domain.Bookmark{
			ID:             r.ID,
			Text:           r.Text,
			AuthorUsername: r.AuthorUsername,
			AuthorName:     r.AuthorName,
			PostURL:        r.PostURL,
			CreatedAt:      r.CreatedAt,
			Notes:          r.Notes,
		}
		if len(r.Tags) > 0 {
			tagNames[r.ID] = r.Tags
		}
	}

	result, err := s.services.Bookmark.Import(ctx, records, tagNames)
	if err != nil {
		return nil, err
	}
	return &ImportResultOutput{Body: *result}, nil
}

func (s *Server) handleExportBookmarks(ctx context.Context, input *ExportBookmarksInput) (*ExportBookmarksOutput, error) {
	if input.Format == "csv" {
		data, err := s.services.Bookmark.ExportCSV(ctx)
		if err != nil {
			return nil, err
		}
		return &ExportBookmarksOutput{ContentType: "text/csv", Body: data}, nil
	}

	data, err := s.services.Bookmark.ExportJSON(ctx)
	if err != nil {
		return nil, err
	}
	return &ExportBookmarksOutput{ContentType: "application/json", Body: data}, nil
}

func (s *Server) handleBookmarkStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	stats, err := s.services.Bookmark.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: *stats}, nil
}

func (s *Server) handleBulkDelete(ctx context.Context, input *BulkDeleteInput) (*AffectedOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	n, err := s.services.Bookmark.BulkDelete(ctx, input.Body.IDs)
	if err != nil {
		return nil, err
	}
	return &AffectedOutput{Body: AffectedResponse{Affected: n}}, nil
}

func (s *Server) handleBulkTag(ctx context.Context, input *BulkTagInput) (*AffectedOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	n, err := s.services.Bookmark.BulkTag(ctx, input.Body.IDs, input.Body.TagIDs)
	if err != nil {
		return nil, err
	}
	return &AffectedOutput{Body: AffectedResponse{Affected: n}}, nil
}

func (s *Server) handleBulkUntag(ctx context.Context, input *BulkTagInput) (*AffectedOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	n, err := s.services.Bookmark.BulkUntag(ctx, input.Body.IDs, input.Body.TagIDs)
	if err != nil {
		return nil, err
	}
	return &AffectedOutput{Body: AffectedResponse{Affected: n}}, nil
}
