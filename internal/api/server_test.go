package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadlymenace/x-personal/internal/cache"
	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/service"
	"github.com/deadlymenace/x-personal/internal/store/sqlite"
	"github.com/deadlymenace/x-personal/internal/xapi"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// fakeXClient serves canned responses for every upstream call the
// services make.
type fakeXClient struct {
	token *xapi.Token
	user  *xapi.User
	pages []*xapi.Page
	calls int
}

func (f *fakeXClient) AuthorizeURL(state, challenge string) string {
	return "https://x.test/authorize?state=" + state
}

func (f *fakeXClient) ExchangeCode(ctx context.Context, code, verifier string) (*xapi.Token, error) {
	return f.token, nil
}

func (f *fakeXClient) RefreshToken(ctx context.Context, refreshToken string) (*xapi.Token, error) {
	return f.token, nil
}

func (f *fakeXClient) Me(ctx context.Context, accessToken string) (*xapi.User, error) {
	return f.user, nil
}

func (f *fakeXClient) BookmarksPage(ctx context.Context, token, userID, cursor string) (*xapi.Page, error) {
	if f.calls >= len(f.pages) {
		return &xapi.Page{}, nil
	}
	p := f.pages[f.calls]
	f.calls++
	return p, nil
}

func (f *fakeXClient) Search(ctx context.Context, bearer, query string, opts xapi.SearchOpts) (*xapi.Page, error) {
	if f.calls >= len(f.pages) {
		return &xapi.Page{}, nil
	}
	p := f.pages[f.calls]
	f.calls++
	return p, nil
}

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api   humatest.TestAPI
	store *sqlite.Store
	x     *fakeXClient
}

// setupTestServer creates a server backed by a temp store and fake
// upstream client.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	dir := t.TempDir()

	store, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	searchCache, err := cache.Open(filepath.Join(dir, "cache"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { searchCache.Close() })

	x := &fakeXClient{
		token: &xapi.Token{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 7200},
		user:  &xapi.User{ID: "42", Username: "tester", Name: "Tester"},
	}

	autotag := service.NewAutoTagService(store, logger)
	creds := service.NewCredentialService(store, x, "client-id", logger)
	services := &Services{
		Credential:  creds,
		Sync:        service.NewSyncService(store, creds, x, autotag, logger),
		Bookmark:    service.NewBookmarkService(store, logger),
		Tag:         service.NewTagService(store, autotag, logger),
		Category:    service.NewCategoryService(store, logger),
		Categorizer: service.NewCategorizerService(store, nil, logger),
		Research:    service.NewResearchService(searchCache, x, "bearer", logger),
		Watchlist:   service.NewWatchlistService(store, logger),
	}

	s := NewServer(services, Options{}, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		store:  store,
		x:      x,
	}
}

// seedBookmark inserts a bookmark directly into the store.
func (ts *testServer) seedBookmark(t *testing.T, id, text string) {
	t.Helper()
	_, err := ts.store.UpsertBookmark(context.Background(), &domain.Bookmark{
		ID:             id,
		Text:           text,
		AuthorID:       "a1",
		AuthorUsername: "author",
		AuthorName:     "Author",
		PostURL:        "https://x.com/author/status/" + id,
		CreatedAt:      time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"healthy"`)
	assert.Contains(t, resp.Body.String(), `"v":`)
}

func TestNotFoundRouteEnvelope(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/bookmarks/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
