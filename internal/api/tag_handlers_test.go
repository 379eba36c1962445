package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListTags(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", map[string]any{
		"name":  "golang",
		"color": "#00add8",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var created testEnvelope[TagOutputBody]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, "golang", created.Data.Name)
	assert.Equal(t, "#00add8", created.Data.Color)
	assert.NotZero(t, created.Data.ID)

	resp = ts.api.Get("/api/v1/tags")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"golang"`)
}

// TagOutputBody mirrors the tag response shape for decoding.
type TagOutputBody struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func TestCreateTag_ValidationError(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), `"VALIDATION"`)
}

func TestCreateTag_DuplicateConflict(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": "golang"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/tags", map[string]any{"name": "golang"})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), `"CONFLICT"`)
}

func TestAttachDetachTag(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedBookmark(t, "100", "a bookmarked post")

	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": "golang"})
	require.Equal(t, http.StatusOK, resp.Code)
	var created testEnvelope[TagOutputBody]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = ts.api.Post("/api/v1/bookmarks/100/tags/1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/bookmarks/100")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"golang"`)

	resp = ts.api.Delete("/api/v1/bookmarks/100/tags/1")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/bookmarks/100")
	assert.NotContains(t, resp.Body.String(), `"golang"`)
}

func TestAttachTag_UnknownBookmark(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": "golang"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/bookmarks/999/tags/1")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), `"NOT_FOUND"`)
}

func TestRuleLifecycle(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": "golang"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/tags/rules", map[string]any{
		"tag_id":    1,
		"rule_type": "keyword",
		"pattern":   "golang",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/tags/rules")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"keyword"`)

	// Unknown rule type is rejected before reaching the store.
	resp = ts.api.Post("/api/v1/tags/rules", map[string]any{
		"tag_id":    1,
		"rule_type": "regex",
		"pattern":   ".*",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Delete("/api/v1/tags/rules/1")
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestApplyRulesEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedBookmark(t, "1", "a post about golang")
	ts.seedBookmark(t, "2", "unrelated")

	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": "golang"})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = ts.api.Post("/api/v1/tags/rules", map[string]any{
		"tag_id":    1,
		"rule_type": "keyword",
		"pattern":   "golang",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/tags/rules/apply")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"processed":2`)

	resp = ts.api.Get("/api/v1/bookmarks/1")
	assert.Contains(t, resp.Body.String(), `"golang"`)
	resp = ts.api.Get("/api/v1/bookmarks/2")
	assert.NotContains(t, resp.Body.String(), `"golang"`)
}
