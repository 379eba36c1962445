package domain

import "time"

// Credential is the singleton OAuth token set for the configured user.
// Writing a new credential fully replaces the prior one.
type Credential struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ExpiresWithin reports whether the access token expires inside the
// given safety window (or already has).
func (c *Credential) ExpiresWithin(now time.Time, window time.Duration) bool {
	return now.After(c.ExpiresAt.Add(-window))
}

// SyncState is the singleton sync progress record, seeded at schema
// initialization with TotalSynced = 0.
type SyncState struct {
	LastSyncAt  *time.Time `json:"last_sync_at"`
	TotalSynced int        `json:"total_synced"`
	// LastCursor is the pagination cursor observed when a sync failed
	// mid-run; kept for diagnostics, not used to resume.
	LastCursor string `json:"last_cursor,omitempty"`
}

// SyncResult reports one sync invocation.
type SyncResult struct {
	NewCount     int `json:"newCount"`
	UpdatedCount int `json:"updatedCount"`
	TotalSynced  int `json:"totalSynced"`
}
