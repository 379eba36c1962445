// Package xapi is a minimal client for the X API v2: the OAuth2 token
// endpoints, the authenticated user's bookmarks timeline, and recent
// search. Outbound calls go through a keyed rate limiter so bookmark
// pagination and search draw from separate buckets.
package xapi

import (
	"context"
	"encoding/base64"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/ratelimit"
)

const (
	authorizeURL = "https://twitter.com/i/oauth2/authorize"
	tokenURL     = "https://api.twitter.com/2/oauth2/token"
	apiBaseURL   = "https://api.x.com/2"

	// OAuthScope is requested during the authorize redirect.
	OAuthScope = "tweet.read users.read bookmark.read bookmark.write offline.access"

	// Rate limiter keys, one bucket per endpoint class.
	keyBookmarks = "bookmarks"
	keySearch    = "search"
	keyOAuth     = "oauth"

	maxBodyExcerpt = 200
)

// Doer issues HTTP requests. *http.Client satisfies it; tests inject a
// fake transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the X API.
type Client struct {
	http         Doer
	limiter      *ratelimit.KeyedRateLimiter
	clientID     string
	clientSecret string
	callbackURL  string
	logger       *slog.Logger
}

// New creates a Client. The limiter paces outbound calls per endpoint
// class; the bookmarks bucket doubles as the inter-page sync throttle.
func New(httpClient Doer, limiter *ratelimit.KeyedRateLimiter, clientID, clientSecret, callbackURL string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		http:         httpClient,
		limiter:      limiter,
		clientID:     clientID,
		clientSecret: clientSecret,
		callbackURL:  callbackURL,
		logger:       logger,
	}
}

// AuthorizeURL builds the user-facing OAuth2 authorize redirect.
func (c *Client) AuthorizeURL(state, codeChallenge string) string {
	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {c.clientID},
		"redirect_uri":          {c.callbackURL},
		"scope":                 {OAuthScope},
		"state":                 {state},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	return authorizeURL + "?" + params.Encode()
}

// Token is the OAuth2 token endpoint response.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// ExpiresAt converts the relative expiry to an absolute time. The API
// default of two hours applies when the field is missing.
func (t *Token) ExpiresAt(now time.Time) time.Time {
	expiresIn := t.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 7200
	}
	return now.Add(time.Duration(expiresIn) * time.Second)
}

// ExchangeCode trades an authorization code and its PKCE verifier for
// tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*Token, error) {
	form := url.Values{
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"client_id":     {c.clientID},
		"redirect_uri":  {c.callbackURL},
		"code_verifier": {verifier},
	}
	return c.tokenRequest(ctx, form)
}

// RefreshToken obtains a fresh access token from a refresh token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
	}
	return c.tokenRequest(ctx, form)
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (*Token, error) {
	if err := c.limiter.Wait(ctx, keyOAuth); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRemote, "token endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(resp)
	}

	var token Token
	if err := json.UnmarshalRead(resp.Body, &token); err != nil {
		return nil, errors.Wrap(err, errors.CodeRemote, "decode token response")
	}
	if token.AccessToken == "" {
		return nil, errors.Remote(resp.StatusCode, "token response missing access_token")
	}
	return &token, nil
}

// User is the authenticated account's identity.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Me fetches the identity behind an access token.
func (c *Client) Me(ctx context.Context, accessToken string) (*User, error) {
	if err := c.limiter.Wait(ctx, keyOAuth); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBaseURL+"/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build me request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRemote, "users/me unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(resp)
	}

	var body struct {
		Data User `json:"data"`
	}
	if err := json.UnmarshalRead(resp.Body, &body); err != nil {
		return nil, errors.Wrap(err, errors.CodeRemote, "decode users/me response")
	}
	return &body.Data, nil
}

// Page is one page of the bookmarks timeline.
type Page struct {
	Posts      []*Post
	NextCursor string
}

// BookmarksPage fetches one page of the user's bookmarks, newest first.
// An empty cursor requests the first page; NextCursor is empty on the
// last one.
func (c *Client) BookmarksPage(ctx context.Context, accessToken, userID, cursor string) (*Page, error) {
	if err := c.limiter.Wait(ctx, keyBookmarks); err != nil {
		return nil, err
	}

	params := url.Values{
		"tweet.fields": {"created_at,public_metrics,author_id,conversation_id,entities"},
		"expansions":   {"author_id"},
		"user.fields":  {"username,name"},
		"max_results":  {"100"},
	}
	if cursor != "" {
		params.Set("pagination_token", cursor)
	}

	endpoint := fmt.Sprintf("%s/users/%s/bookmarks?%s", apiBaseURL, userID, params.Encode())
	body, err := c.getJSON(ctx, endpoint, accessToken)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Posts:      mapPosts(body.Data, body.Includes.Users),
		NextCursor: body.Meta.NextToken,
	}
	return page, nil
}

// SearchOpts tunes a recent-search request.
type SearchOpts struct {
	// MaxResults per page, clamped to the API's 10..100 range.
	MaxResults int
	// SortOrder is "recency" or "relevancy".
	SortOrder string
	// StartTime bounds results to posts after it, when non-zero.
	StartTime time.Time
	// Cursor continues a previous page.
	Cursor string
}

// Search runs a recent search with the app-only bearer token.
func (c *Client) Search(ctx context.Context, bearer, query string, opts SearchOpts) (*Page, error) {
	if err := c.limiter.Wait(ctx, keySearch); err != nil {
		return nil, err
	}

	maxResults := opts.MaxResults
	if maxResults < 10 {
		maxResults = 50
	}
	if maxResults > 100 {
		maxResults = 100
	}

	params := url.Values{
		"query":        {query},
		"tweet.fields": {"created_at,public_metrics,author_id,conversation_id,entities"},
		"expansions":   {"author_id"},
		"user.fields":  {"username,name"},
		"max_results":  {strconv.Itoa(maxResults)},
	}
	if opts.SortOrder != "" {
		params.Set("sort_order", opts.SortOrder)
	}
	if !opts.StartTime.IsZero() {
		params.Set("start_time", opts.StartTime.UTC().Format(time.RFC3339))
	}
	if opts.Cursor != "" {
		params.Set("next_token", opts.Cursor)
	}

	endpoint := apiBaseURL + "/tweets/search/recent?" + params.Encode()
	body, err := c.getJSON(ctx, endpoint, bearer)
	if err != nil {
		return nil, err
	}

	return &Page{
		Posts:      mapPosts(body.Data, body.Includes.Users),
		NextCursor: body.Meta.NextToken,
	}, nil
}

// timelineBody is the shared shape of bookmark and search responses.
type timelineBody struct {
	Data     []rawPost `json:"data"`
	Includes struct {
		Users []User `json:"users"`
	} `json:"includes"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
}

func (c *Client) getJSON(ctx context.Context, endpoint, bearer string) (*timelineBody, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRemote, "api unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(resp)
	}

	var body timelineBody
	if err := json.UnmarshalRead(resp.Body, &body); err != nil {
		return nil, errors.Wrap(err, errors.CodeRemote, "decode response")
	}
	return &body, nil
}

// remoteError maps a non-2xx response to a typed error. 429 carries the
// retry-after duration derived from x-rate-limit-reset; everything else
// carries the status and a short body excerpt.
func (c *Client) remoteError(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if reset := resp.Header.Get("x-rate-limit-reset"); reset != "" {
			if epoch, err := strconv.ParseInt(reset, 10, 64); err == nil {
				until := time.Until(time.Unix(epoch, 0))
				if until < time.Second {
					until = time.Second
				}
				retryAfter = until
			}
		}
		if c.logger != nil {
			c.logger.Warn("rate limited by remote", "retry_after", retryAfter)
		}
		return errors.RateLimited(retryAfter)
	}

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyExcerpt))
	return errors.Remote(resp.StatusCode, string(excerpt))
}
