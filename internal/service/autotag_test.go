package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/store/sqlite"
)

func seedBookmark(t *testing.T, store *sqlite.Store, b *domain.Bookmark) {
	t.Helper()
	if b.AuthorID == "" {
		b.AuthorID = "a1"
	}
	if b.AuthorUsername == "" {
		b.AuthorUsername = "author"
	}
	if b.AuthorName == "" {
		b.AuthorName = "Author"
	}
	if b.PostURL == "" {
		b.PostURL = "https://x.com/author/status/" + b.ID
	}
	_, err := store.UpsertBookmark(context.Background(), b)
	require.NoError(t, err)
}

func TestApplyRules_MatchesAllRuleTypes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tagGo, err := store.CreateTag(ctx, "go", "")
	require.NoError(t, err)
	tagNews, err := store.CreateTag(ctx, "news", "")
	require.NoError(t, err)

	_, err = store.CreateRule(ctx, tagGo.ID, domain.RuleKeyword, "golang")
	require.NoError(t, err)
	_, err = store.CreateRule(ctx, tagGo.ID, domain.RuleHashtag, "gopher")
	require.NoError(t, err)
	_, err = store.CreateRule(ctx, tagNews.ID, domain.RuleAuthor, "reporter")
	require.NoError(t, err)

	seedBookmark(t, store, &domain.Bookmark{
		ID: "1", Text: "Golang generics explained",
		AuthorUsername: "reporter",
		Hashtags:       []string{"Gopher"},
	})

	svc := NewAutoTagService(store, testLogger())
	applied, err := svc.ApplyRules(ctx, "1")
	require.NoError(t, err)
	// keyword + hashtag hit the same tag; author adds a second.
	assert.Equal(t, 3, applied)

	tags, err := store.TagsForBookmark(ctx, "1")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "go", tags[0].Name)
	assert.Equal(t, "news", tags[1].Name)
}

func TestApplyRules_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tag, err := store.CreateTag(ctx, "go", "")
	require.NoError(t, err)
	_, err = store.CreateRule(ctx, tag.ID, domain.RuleKeyword, "golang")
	require.NoError(t, err)

	seedBookmark(t, store, &domain.Bookmark{ID: "1", Text: "golang again"})

	svc := NewAutoTagService(store, testLogger())
	_, err = svc.ApplyRules(ctx, "1")
	require.NoError(t, err)
	_, err = svc.ApplyRules(ctx, "1")
	require.NoError(t, err)

	tags, err := store.TagsForBookmark(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestApplyRules_UnknownBookmark(t *testing.T) {
	svc := NewAutoTagService(newTestStore(t), testLogger())

	_, err := svc.ApplyRules(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestApplyAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tag, err := store.CreateTag(ctx, "go", "")
	require.NoError(t, err)
	_, err = store.CreateRule(ctx, tag.ID, domain.RuleKeyword, "golang")
	require.NoError(t, err)

	seedBookmark(t, store, &domain.Bookmark{ID: "1", Text: "golang tips"})
	seedBookmark(t, store, &domain.Bookmark{ID: "2", Text: "unrelated"})
	seedBookmark(t, store, &domain.Bookmark{ID: "3", Text: "more golang"})

	svc := NewAutoTagService(store, testLogger())
	processed, err := svc.ApplyAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, processed)

	for id, want := range map[string]int{"1": 1, "2": 0, "3": 1} {
		tags, err := store.TagsForBookmark(ctx, id)
		require.NoError(t, err)
		assert.Len(t, tags, want, "bookmark %s", id)
	}
}
