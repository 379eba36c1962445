package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
)

func TestCredentialSingleton(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Empty store means not authenticated.
	_, err := s.GetCredential(ctx)
	if !errors.Is(err, errors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	first := &domain.Credential{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().UTC().Add(2 * time.Hour),
		Scope:        "bookmark.read tweet.read users.read offline.access",
		UserID:       "42",
		Username:     "tester",
	}
	if err := s.StoreCredential(ctx, first); err != nil {
		t.Fatalf("StoreCredential: %v", err)
	}

	got, err := s.GetCredential(ctx)
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if got.AccessToken != "at-1" || got.Username != "tester" {
		t.Errorf("got %+v, want stored credential", got)
	}

	// Storing again replaces the single row.
	second := &domain.Credential{
		AccessToken:  "at-2",
		RefreshToken: "rt-2",
		ExpiresAt:    time.Now().UTC().Add(2 * time.Hour),
	}
	if err := s.StoreCredential(ctx, second); err != nil {
		t.Fatalf("StoreCredential (replace): %v", err)
	}

	got, err = s.GetCredential(ctx)
	if err != nil {
		t.Fatalf("GetCredential after replace: %v", err)
	}
	if got.AccessToken != "at-2" {
		t.Errorf("AccessToken: got %q, want at-2", got.AccessToken)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM oauth_tokens").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly 1 credential row, got %d", count)
	}
}

func TestDeleteCredential(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Deleting with nothing stored is a no-op.
	if err := s.DeleteCredential(ctx); err != nil {
		t.Fatalf("DeleteCredential (empty): %v", err)
	}

	c := &domain.Credential{AccessToken: "at", ExpiresAt: time.Now().UTC()}
	if err := s.StoreCredential(ctx, c); err != nil {
		t.Fatalf("StoreCredential: %v", err)
	}
	if err := s.DeleteCredential(ctx); err != nil {
		t.Fatalf("DeleteCredential: %v", err)
	}
	if _, err := s.GetCredential(ctx); !errors.Is(err, errors.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated after delete, got %v", err)
	}
}

func TestSyncState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Fresh database reads as zero state.
	state, err := s.GetSyncState(ctx)
	if err != nil {
		t.Fatalf("GetSyncState: %v", err)
	}
	if state.LastSyncAt != nil {
		t.Errorf("LastSyncAt: got %v, want nil", state.LastSyncAt)
	}
	if state.TotalSynced != 0 {
		t.Errorf("TotalSynced: got %d, want 0", state.TotalSynced)
	}

	now := time.Now().UTC()
	if err := s.UpdateSyncState(ctx, &domain.SyncState{
		LastSyncAt:  &now,
		TotalSynced: 123,
		LastCursor:  "cursor-abc",
	}); err != nil {
		t.Fatalf("UpdateSyncState: %v", err)
	}

	state, err = s.GetSyncState(ctx)
	if err != nil {
		t.Fatalf("GetSyncState after update: %v", err)
	}
	if state.LastSyncAt == nil || state.LastSyncAt.Unix() != now.Unix() {
		t.Errorf("LastSyncAt: got %v, want %v", state.LastSyncAt, now)
	}
	if state.TotalSynced != 123 {
		t.Errorf("TotalSynced: got %d, want 123", state.TotalSynced)
	}
	if state.LastCursor != "cursor-abc" {
		t.Errorf("LastCursor: got %q, want cursor-abc", state.LastCursor)
	}
}
