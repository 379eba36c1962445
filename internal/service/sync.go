package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/store/sqlite"
	"github.com/deadlymenace/x-personal/internal/xapi"
)

// credentialSource yields a credential with a currently-valid access
// token. Implemented by CredentialService.
type credentialSource interface {
	GetValidToken(ctx context.Context) (*domain.Credential, error)
}

// bookmarksAPI is the slice of the X client the sync service needs.
type bookmarksAPI interface {
	BookmarksPage(ctx context.Context, accessToken, userID, cursor string) (*xapi.Page, error)
}

// SyncService pulls the account's bookmarks timeline into the local
// store, page by page.
type SyncService struct {
	store   *sqlite.Store
	creds   credentialSource
	api     bookmarksAPI
	autotag *AutoTagService
	logger  *slog.Logger

	// inFlight is an advisory guard: at most one sync runs at a time.
	inFlight atomic.Bool
}

// NewSyncService creates a SyncService.
func NewSyncService(store *sqlite.Store, creds credentialSource, api bookmarksAPI, autotag *AutoTagService, logger *slog.Logger) *SyncService {
	return &SyncService{
		store:   store,
		creds:   creds,
		api:     api,
		autotag: autotag,
		logger:  logger,
	}
}

// Running reports whether a sync is currently in flight.
func (s *SyncService) Running() bool {
	return s.inFlight.Load()
}

// Sync walks the bookmarks timeline from the newest page, upserting every
// record. New records get auto-tag rules applied; existing ones keep their
// local edits. On success the sync-state timestamp and recomputed total
// are stored. On failure, already-upserted pages remain but the timestamp
// is withheld so the run doesn't read as complete.
//
// Only one sync may run at a time; a second call returns a conflict.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, errors.Conflict("a sync is already running")
	}
	defer s.inFlight.Store(false)

	cred, err := s.creds.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.SyncResult{}
	cursor := ""
	pages := 0

	for {
		page, err := s.api.BookmarksPage(ctx, cred.AccessToken, cred.UserID, cursor)
		if err != nil {
			s.logger.Error("sync aborted", "pages_done", pages, "new", result.NewCount, "updated", result.UpdatedCount, "error", err)
			s.recordCursor(ctx, cursor)
			return nil, err
		}
		pages++

		for _, post := range page.Posts {
			b := bookmarkFromPost(post)
			inserted, err := s.store.UpsertBookmark(ctx, b)
			if err != nil {
				s.recordCursor(ctx, cursor)
				return nil, err
			}
			if inserted {
				result.NewCount++
				if _, err := s.autotag.ApplyRules(ctx, b.ID); err != nil {
					// Tag rules are best-effort during sync.
					s.logger.Warn("auto-tag failed", "bookmark_id", b.ID, "error", err)
				}
			} else {
				result.UpdatedCount++
			}
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	total, err := s.store.CountBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	result.TotalSynced = total

	now := time.Now().UTC()
	if err := s.store.UpdateSyncState(ctx, &domain.SyncState{
		LastSyncAt:  &now,
		TotalSynced: total,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("sync complete", "pages", pages, "new", result.NewCount, "updated", result.UpdatedCount, "total", total)
	return result, nil
}

// recordCursor persists the last cursor for diagnostics after a failed
// run, leaving the rest of the sync state untouched.
func (s *SyncService) recordCursor(ctx context.Context, cursor string) {
	state, err := s.store.GetSyncState(ctx)
	if err != nil {
		return
	}
	state.LastCursor = cursor
	if err := s.store.UpdateSyncState(ctx, state); err != nil {
		s.logger.Warn("failed to record sync cursor", "error", err)
	}
}

// bookmarkFromPost maps a remote post to a bookmark record.
func bookmarkFromPost(p *xapi.Post) *domain.Bookmark {
	return &domain.Bookmark{
		ID:             p.ID,
		Text:           p.Text,
		AuthorID:       p.AuthorID,
		AuthorUsername: p.AuthorUsername,
		AuthorName:     p.AuthorName,
		PostURL:        p.PostURL,
		CreatedAt:      p.CreatedAt,
		ConversationID: p.ConversationID,
		Likes:          p.Likes,
		Retweets:       p.Retweets,
		Replies:        p.Replies,
		Quotes:         p.Quotes,
		Impressions:    p.Impressions,
		BookmarkCount:  p.BookmarkCount,
		URLs:           p.URLs,
		Mentions:       p.Mentions,
		Hashtags:       p.Hashtags,
	}
}
