package service

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/deadlymenace/x-personal/internal/cache"
	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/xapi"
)

// searchTTL is how long raw search results stay fresh in the cache.
const searchTTL = 15 * time.Minute

// defaultSearchLimit caps returned results when the caller doesn't.
const defaultSearchLimit = 30

// searchAPI is the slice of the X client the research service needs.
type searchAPI interface {
	Search(ctx context.Context, bearer, query string, opts xapi.SearchOpts) (*xapi.Page, error)
}

// SearchParams tunes a research search.
type SearchParams struct {
	Sort           string `json:"sort,omitempty"`  // recent | likes | impressions | retweets
	Pages          int    `json:"pages,omitempty"` // remote pages to fetch, default 1
	Since          string `json:"since,omitempty"` // 30m | 24h | 7d | ISO date
	MinLikes       int    `json:"min_likes,omitempty"`
	MinImpressions int    `json:"min_impressions,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

// SearchResult is a post-processed page of search hits.
type SearchResult struct {
	Posts     []*xapi.Post `json:"data"`
	Total     int          `json:"total"`
	FromCache bool         `json:"cached"`
}

// ResearchService runs recent searches against X with the app-only bearer
// token, caching raw results so repeated queries inside the TTL cost
// nothing. Filters and sorting apply after the cache, so the same cached
// result set serves different views.
type ResearchService struct {
	cache  *cache.Cache
	api    searchAPI
	bearer string
	logger *slog.Logger
}

// NewResearchService creates a ResearchService.
func NewResearchService(c *cache.Cache, api searchAPI, bearer string, logger *slog.Logger) *ResearchService {
	return &ResearchService{cache: c, api: api, bearer: bearer, logger: logger}
}

// Search returns posts matching the query. Raw pages are cached per
// (query, sort, pages, since); engagement filters, post-sort, dedupe, and
// the limit are applied on the way out.
func (s *ResearchService) Search(ctx context.Context, query string, params SearchParams) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Validation("query is required")
	}
	if s.bearer == "" {
		return nil, errors.Validation("X_BEARER_TOKEN not configured")
	}
	if params.Pages < 1 {
		params.Pages = 1
	}

	key := cache.Key(query, map[string]any{
		"sort":  params.Sort,
		"pages": params.Pages,
		"since": params.Since,
	})

	var posts []*xapi.Post
	fromCache := s.cache.Get(key, searchTTL, &posts)
	if !fromCache {
		fetched, err := s.fetch(ctx, query, params)
		if err != nil {
			return nil, err
		}
		posts = fetched
		if err := s.cache.Set(key, posts); err != nil {
			// Cache trouble must not fail the search.
			s.logger.Warn("failed to cache search results", "error", err)
		}
	}

	posts = filterEngagement(posts, params.MinLikes, params.MinImpressions)
	if params.Sort != "" && params.Sort != "recent" {
		posts = sortPosts(posts, params.Sort)
	}
	posts = dedupe(posts)

	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	total := len(posts)
	if len(posts) > limit {
		posts = posts[:limit]
	}

	return &SearchResult{Posts: posts, Total: total, FromCache: fromCache}, nil
}

// fetch pulls up to params.Pages pages from the recent-search endpoint.
func (s *ResearchService) fetch(ctx context.Context, query string, params SearchParams) ([]*xapi.Post, error) {
	opts := xapi.SearchOpts{SortOrder: "relevancy"}
	if params.Sort == "recent" {
		opts.SortOrder = "recency"
	}
	if since := parseSince(params.Since); !since.IsZero() {
		opts.StartTime = since
	}

	var posts []*xapi.Post
	for page := 0; page < params.Pages; page++ {
		result, err := s.api.Search(ctx, s.bearer, query, opts)
		if err != nil {
			// Keep what earlier pages returned.
			if len(posts) > 0 {
				s.logger.Warn("search page failed, returning partial results", "page", page+1, "error", err)
				break
			}
			return nil, err
		}
		posts = append(posts, result.Posts...)
		if result.NextCursor == "" {
			break
		}
		opts.Cursor = result.NextCursor
	}
	return posts, nil
}

// ClearCache drops all cached search results. Returns the number
// removed.
func (s *ResearchService) ClearCache() (int, error) {
	return s.cache.Clear()
}

// PruneCache removes cached results older than the TTL. Returns the
// number removed.
func (s *ResearchService) PruneCache() (int, error) {
	return s.cache.Prune(searchTTL)
}

var relativeSince = regexp.MustCompile(`^(\d+)([mhd])$`)

// parseSince interprets a since parameter: a relative window like "30m",
// "24h", or "7d", or an absolute RFC3339 / date-only timestamp. Returns
// the zero time for anything unparseable.
func parseSince(since string) time.Time {
	since = strings.TrimSpace(since)
	if since == "" {
		return time.Time{}
	}

	if m := relativeSince.FindStringSubmatch(since); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}
		}
		var unit time.Duration
		switch m[2] {
		case "m":
			unit = time.Minute
		case "h":
			unit = time.Hour
		case "d":
			unit = 24 * time.Hour
		}
		return time.Now().Add(-time.Duration(n) * unit)
	}

	if t, err := time.Parse(time.RFC3339, since); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", since); err == nil {
		return t
	}
	return time.Time{}
}

// filterEngagement keeps posts meeting the minimum like and impression
// thresholds. Zero thresholds pass everything.
func filterEngagement(posts []*xapi.Post, minLikes, minImpressions int) []*xapi.Post {
	if minLikes <= 0 && minImpressions <= 0 {
		return posts
	}
	kept := make([]*xapi.Post, 0, len(posts))
	for _, p := range posts {
		if p.Likes >= minLikes && p.Impressions >= minImpressions {
			kept = append(kept, p)
		}
	}
	return kept
}

// sortPosts returns a copy sorted descending by the named metric.
// Unknown metrics leave the order unchanged.
func sortPosts(posts []*xapi.Post, metric string) []*xapi.Post {
	key := func(p *xapi.Post) int {
		switch metric {
		case "likes":
			return p.Likes
		case "impressions":
			return p.Impressions
		case "retweets":
			return p.Retweets
		}
		return 0
	}

	sorted := make([]*xapi.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) > key(sorted[j])
	})
	return sorted
}

// dedupe removes duplicate posts by id, keeping the first occurrence.
func dedupe(posts []*xapi.Post) []*xapi.Post {
	seen := make(map[string]bool, len(posts))
	kept := make([]*xapi.Post, 0, len(posts))
	for _, p := range posts {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		kept = append(kept, p)
	}
	return kept
}
