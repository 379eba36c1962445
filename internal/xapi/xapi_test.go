package xapi

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/ratelimit"
)

// doerFunc adapts a function to the Doer interface.
type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(doer Doer) *Client {
	return New(doer, ratelimit.New(1000, 1000), "client-id", "client-secret", "http://localhost/callback", nil)
}

func TestAuthorizeURL(t *testing.T) {
	c := newTestClient(nil)
	u := c.AuthorizeURL("state-1", "challenge-1")

	for _, want := range []string{
		"client_id=client-id",
		"state=state-1",
		"code_challenge=challenge-1",
		"code_challenge_method=S256",
		"response_type=code",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("authorize URL missing %q: %s", want, u)
		}
	}
}

func TestExchangeCode(t *testing.T) {
	var gotForm string
	var gotAuth string
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		gotForm = string(body)
		gotAuth = req.Header.Get("Authorization")
		return jsonResponse(200, `{"access_token":"at","refresh_token":"rt","expires_in":7200,"scope":"bookmark.read"}`), nil
	})

	c := newTestClient(doer)
	token, err := c.ExchangeCode(context.Background(), "the-code", "the-verifier")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if token.AccessToken != "at" || token.RefreshToken != "rt" {
		t.Errorf("token: got %+v", token)
	}
	if !strings.Contains(gotForm, "grant_type=authorization_code") {
		t.Errorf("form missing grant type: %s", gotForm)
	}
	if !strings.Contains(gotForm, "code_verifier=the-verifier") {
		t.Errorf("form missing verifier: %s", gotForm)
	}
	if !strings.HasPrefix(gotAuth, "Basic ") {
		t.Errorf("expected basic auth, got %q", gotAuth)
	}
}

func TestToken_ExpiresAt(t *testing.T) {
	now := time.Now()

	token := &Token{ExpiresIn: 3600}
	if got := token.ExpiresAt(now); got.Sub(now) != time.Hour {
		t.Errorf("ExpiresAt: got %v offset", got.Sub(now))
	}

	// Missing expiry falls back to the API default of two hours.
	token = &Token{}
	if got := token.ExpiresAt(now); got.Sub(now) != 2*time.Hour {
		t.Errorf("default ExpiresAt: got %v offset", got.Sub(now))
	}
}

func TestBookmarksPage(t *testing.T) {
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/users/42/bookmarks") {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		if got := req.URL.Query().Get("pagination_token"); got != "cursor-1" {
			t.Errorf("pagination_token: got %q", got)
		}
		return jsonResponse(200, `{
			"data": [
				{
					"id": "100",
					"text": "hello #Go",
					"author_id": "a1",
					"created_at": "2025-06-01T12:00:00Z",
					"conversation_id": "100",
					"public_metrics": {"like_count": 5, "impression_count": 1000},
					"entities": {
						"urls": [{"expanded_url": "https://go.dev"}],
						"hashtags": [{"tag": "Go"}]
					}
				},
				{"id": "101", "text": "orphan author", "author_id": "missing"}
			],
			"includes": {"users": [{"id": "a1", "username": "gopher", "name": "The Gopher"}]},
			"meta": {"next_token": "cursor-2"}
		}`), nil
	})

	c := newTestClient(doer)
	page, err := c.BookmarksPage(context.Background(), "token", "42", "cursor-1")
	if err != nil {
		t.Fatalf("BookmarksPage: %v", err)
	}
	if page.NextCursor != "cursor-2" {
		t.Errorf("NextCursor: got %q, want cursor-2", page.NextCursor)
	}
	if len(page.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(page.Posts))
	}

	p := page.Posts[0]
	if p.AuthorUsername != "gopher" || p.AuthorName != "The Gopher" {
		t.Errorf("author: got %s / %s", p.AuthorUsername, p.AuthorName)
	}
	if p.PostURL != "https://x.com/gopher/status/100" {
		t.Errorf("PostURL: got %s", p.PostURL)
	}
	if p.Likes != 5 || p.Impressions != 1000 {
		t.Errorf("metrics: got likes=%d impressions=%d", p.Likes, p.Impressions)
	}
	if len(p.Hashtags) != 1 || p.Hashtags[0] != "Go" {
		t.Errorf("hashtags: got %v", p.Hashtags)
	}

	// Missing author metadata gets placeholders, not a dropped post.
	orphan := page.Posts[1]
	if orphan.AuthorUsername != "unknown" || orphan.AuthorName != "Unknown" {
		t.Errorf("orphan author: got %s / %s", orphan.AuthorUsername, orphan.AuthorName)
	}
}

func TestRemoteError_RateLimited(t *testing.T) {
	reset := time.Now().Add(90 * time.Second).Unix()
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		resp := jsonResponse(429, `{"title":"Too Many Requests"}`)
		resp.Header.Set("x-rate-limit-reset", strconv.FormatInt(reset, 10))
		return resp, nil
	})

	c := newTestClient(doer)
	_, err := c.BookmarksPage(context.Background(), "token", "42", "")
	if !errors.Is(err, errors.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	retryAfter := errors.RetryAfter(err)
	if retryAfter < 80*time.Second || retryAfter > 91*time.Second {
		t.Errorf("retry after: got %v, want ~90s", retryAfter)
	}
}

func TestRemoteError_RateLimitedFallback(t *testing.T) {
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		// No x-rate-limit-reset header.
		return jsonResponse(429, ``), nil
	})

	c := newTestClient(doer)
	_, err := c.BookmarksPage(context.Background(), "token", "42", "")
	if !errors.Is(err, errors.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if got := errors.RetryAfter(err); got != 60*time.Second {
		t.Errorf("fallback retry after: got %v, want 60s", got)
	}
}

func TestRemoteError_BodyExcerpt(t *testing.T) {
	long := strings.Repeat("x", 500)
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(503, long), nil
	})

	c := newTestClient(doer)
	_, err := c.BookmarksPage(context.Background(), "token", "42", "")
	if !errors.Is(err, errors.ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
	// The error message carries at most a 200-byte excerpt, not the
	// whole body.
	if len(err.Error()) > 300 {
		t.Errorf("error message too long: %d bytes", len(err.Error()))
	}
}

func TestSearch(t *testing.T) {
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/tweets/search/recent") {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		q := req.URL.Query()
		if q.Get("query") != "golang" {
			t.Errorf("query: got %q", q.Get("query"))
		}
		if q.Get("sort_order") != "relevancy" {
			t.Errorf("sort_order: got %q", q.Get("sort_order"))
		}
		if q.Get("start_time") == "" {
			t.Error("start_time missing")
		}
		return jsonResponse(200, `{
			"data": [{"id": "1", "text": "go go go", "author_id": "a1"}],
			"includes": {"users": [{"id": "a1", "username": "u", "name": "U"}]},
			"meta": {}
		}`), nil
	})

	c := newTestClient(doer)
	page, err := c.Search(context.Background(), "bearer", "golang", SearchOpts{
		SortOrder: "relevancy",
		StartTime: time.Now().Add(-24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Posts) != 1 || page.Posts[0].ID != "1" {
		t.Errorf("posts: got %v", page.Posts)
	}
	if page.NextCursor != "" {
		t.Errorf("NextCursor: got %q, want empty", page.NextCursor)
	}
}

func TestNewPKCE(t *testing.T) {
	p1, err := NewPKCE()
	if err != nil {
		t.Fatalf("NewPKCE: %v", err)
	}
	if p1.Verifier == "" || p1.Challenge == "" {
		t.Fatal("expected non-empty verifier and challenge")
	}
	if p1.Verifier == p1.Challenge {
		t.Error("challenge must differ from verifier")
	}

	p2, err := NewPKCE()
	if err != nil {
		t.Fatalf("NewPKCE: %v", err)
	}
	if p1.Verifier == p2.Verifier {
		t.Error("verifiers must be unique")
	}
}
