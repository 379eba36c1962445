package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/service"
)

func (s *Server) registerResearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "researchSearch",
		Method:      http.MethodGet,
		Path:        "/api/v1/research/search",
		Summary:     "Search recent posts",
		Description: "Searches the recent-post index with the app bearer token; results are cached for 15 minutes",
		Tags:        []string{"Research"},
	}, s.handleResearchSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "listWatchlist",
		Method:      http.MethodGet,
		Path:        "/api/v1/research/watchlist",
		Summary:     "List watchlist",
		Tags:        []string{"Research"},
	}, s.handleListWatchlist)

	huma.Register(s.api, huma.Operation{
		OperationID: "addWatchlistEntry",
		Method:      http.MethodPost,
		Path:        "/api/v1/research/watchlist",
		Summary:     "Add account to watchlist",
		Tags:        []string{"Research"},
	}, s.handleAddWatchlistEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeWatchlistEntry",
		Method:      http.MethodDelete,
		Path:        "/api/v1/research/watchlist/{id}",
		Summary:     "Remove account from watchlist",
		Tags:        []string{"Research"},
	}, s.handleRemoveWatchlistEntry)
}

// === DTOs ===

// SearchInput carries the research search parameters.
type SearchInput struct {
	Query          string `query:"q" required:"true" doc:"Search query in X syntax"`
	Sort           string `query:"sort" enum:"recent,likes,impressions,retweets" doc:"Result ordering"`
	Pages          int    `query:"pages" minimum:"1" maximum:"5" doc:"Remote pages to fetch"`
	Since          string `query:"since" doc:"Window like 30m, 24h, 7d, or an ISO date"`
	MinLikes       int    `query:"min_likes" minimum:"0" doc:"Minimum like count"`
	MinImpressions int    `query:"min_impressions" minimum:"0" doc:"Minimum impression count"`
	Limit          int    `query:"limit" minimum:"1" maximum:"100" doc:"Max results returned"`
}

// SearchOutput wraps research search results for Huma.
type SearchOutput struct {
	Body service.SearchResult
}

// WatchlistOutput wraps a watchlist listing for Huma.
type WatchlistOutput struct {
	Body struct {
		Entries []*domain.WatchlistEntry `json:"entries" doc:"Watched accounts, newest first"`
	}
}

// AddWatchlistRequest is the request body for watching an account.
type AddWatchlistRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50" doc:"Account handle, with or without @"`
	Notes    string `json:"notes,omitempty" validate:"omitempty,max=500" doc:"Why this account is watched"`
}

// AddWatchlistInput wraps the add request for Huma.
type AddWatchlistInput struct {
	Body AddWatchlistRequest
}

// WatchlistEntryOutput wraps a single watchlist entry for Huma.
type WatchlistEntryOutput struct {
	Body domain.WatchlistEntry
}

// WatchlistIDInput identifies a watchlist entry.
type WatchlistIDInput struct {
	ID int64 `path:"id" doc:"Watchlist entry ID"`
}

// === Handlers ===

func (s *Server) handleResearchSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	result, err := s.services.Research.Search(ctx, input.Query, service.SearchParams{
		Sort:           input.Sort,
		Pages:          input.Pages,
		Since:          input.Since,
		MinLikes:       input.MinLikes,
		MinImpressions: input.MinImpressions,
		Limit:          input.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: *result}, nil
}

func (s *Server) handleListWatchlist(ctx context.Context, _ *struct{}) (*WatchlistOutput, error) {
	entries, err := s.services.Watchlist.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &WatchlistOutput{}
	out.Body.Entries = entries
	return out, nil
}

func (s *Server) handleAddWatchlistEntry(ctx context.Context, input *AddWatchlistInput) (*WatchlistEntryOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	entry, err := s.services.Watchlist.Add(ctx, input.Body.Username, input.Body.Notes)
	if err != nil {
		return nil, err
	}
	return &WatchlistEntryOutput{Body: *entry}, nil
}

func (s *Server) handleRemoveWatchlistEntry(ctx context.Context, input *WatchlistIDInput) (*struct{}, error) {
	if err := s.services.Watchlist.Remove(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
