package api

import (
	"github.com/deadlymenace/x-personal/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Credential  *service.CredentialService
	Sync        *service.SyncService
	Bookmark    *service.BookmarkService
	Tag         *service.TagService
	Category    *service.CategoryService
	Categorizer *service.CategorizerService
	Research    *service.ResearchService
	Watchlist   *service.WatchlistService
}
