package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/store/sqlite"
	"github.com/deadlymenace/x-personal/internal/xapi"
)

// refreshWindow is how close to expiry a token is proactively refreshed.
const refreshWindow = 5 * time.Minute

// pendingTTL bounds how long an authorization attempt may stay open.
const pendingTTL = 10 * time.Minute

// oauthAPI is the slice of the X client the credential service needs.
type oauthAPI interface {
	AuthorizeURL(state, codeChallenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*xapi.Token, error)
	RefreshToken(ctx context.Context, refreshToken string) (*xapi.Token, error)
	Me(ctx context.Context, accessToken string) (*xapi.User, error)
}

// pendingAuth is one outstanding authorization attempt, keyed by state.
type pendingAuth struct {
	verifier  string
	createdAt time.Time
}

// CredentialService owns the OAuth credential lifecycle: the PKCE
// authorize flow, the stored token, and proactive refresh.
type CredentialService struct {
	store    *sqlite.Store
	api      oauthAPI
	clientID string
	logger   *slog.Logger

	// refreshMu serializes token refresh so concurrent callers don't
	// race the single-use refresh token.
	refreshMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]pendingAuth

	now func() time.Time
}

// NewCredentialService creates a CredentialService.
func NewCredentialService(store *sqlite.Store, api oauthAPI, clientID string, logger *slog.Logger) *CredentialService {
	return &CredentialService{
		store:    store,
		api:      api,
		clientID: clientID,
		logger:   logger,
		pending:  make(map[string]pendingAuth),
		now:      time.Now,
	}
}

// AuthURL starts an authorization attempt: generates state and PKCE
// material, remembers the verifier, and returns the redirect URL.
func (s *CredentialService) AuthURL(ctx context.Context) (url, state string, err error) {
	if s.clientID == "" {
		return "", "", errors.Validation("X_CLIENT_ID not configured; create an app at developer.x.com")
	}

	st, err := xapi.NewState()
	if err != nil {
		return "", "", err
	}
	pkce, err := xapi.NewPKCE()
	if err != nil {
		return "", "", err
	}

	s.pendingMu.Lock()
	s.cleanupPendingLocked()
	s.pending[st] = pendingAuth{verifier: pkce.Verifier, createdAt: s.now()}
	s.pendingMu.Unlock()

	return s.api.AuthorizeURL(st, pkce.Challenge), st, nil
}

// cleanupPendingLocked drops attempts older than pendingTTL. Caller holds
// pendingMu.
func (s *CredentialService) cleanupPendingLocked() {
	cutoff := s.now().Add(-pendingTTL)
	for state, p := range s.pending {
		if p.createdAt.Before(cutoff) {
			delete(s.pending, state)
		}
	}
}

// HandleCallback completes the authorize flow: validates state, exchanges
// the code, resolves the account identity, and stores the credential.
func (s *CredentialService) HandleCallback(ctx context.Context, code, state string) (*domain.Credential, error) {
	s.pendingMu.Lock()
	p, ok := s.pending[state]
	delete(s.pending, state)
	s.pendingMu.Unlock()
	if !ok || s.now().Sub(p.createdAt) > pendingTTL {
		return nil, errors.Validation("invalid or expired state parameter")
	}

	token, err := s.api.ExchangeCode(ctx, code, p.verifier)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRemote, "token exchange failed")
	}

	user, err := s.api.Me(ctx, token.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRemote, "failed to fetch account identity")
	}

	cred := &domain.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt(s.now()),
		Scope:        token.Scope,
		UserID:       user.ID,
		Username:     user.Username,
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.store.StoreCredential(ctx, cred); err != nil {
		return nil, err
	}

	s.logger.Info("account connected", "username", user.Username)
	return cred, nil
}

// GetValidToken returns a credential whose access token is good for at
// least the refresh window, refreshing it first when necessary. Refresh
// failures surface as REAUTH_REQUIRED; the stale credential stays stored
// so Status can still report the account.
func (s *CredentialService) GetValidToken(ctx context.Context) (*domain.Credential, error) {
	cred, err := s.store.GetCredential(ctx)
	if err != nil {
		return nil, err
	}
	if !cred.ExpiresWithin(s.now(), refreshWindow) {
		return cred, nil
	}
	if cred.RefreshToken == "" {
		return nil, errors.ReauthRequired("access token expired and no refresh token is stored")
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	cred, err = s.store.GetCredential(ctx)
	if err != nil {
		return nil, err
	}
	if !cred.ExpiresWithin(s.now(), refreshWindow) {
		return cred, nil
	}

	token, err := s.api.RefreshToken(ctx, cred.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReauthRequired, "token refresh failed; please reconnect your account")
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = cred.RefreshToken
	}
	fresh := &domain.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    token.ExpiresAt(s.now()),
		Scope:        cred.Scope,
		UserID:       cred.UserID,
		Username:     cred.Username,
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.store.StoreCredential(ctx, fresh); err != nil {
		return nil, err
	}

	s.logger.Debug("access token refreshed", "username", fresh.Username)
	return fresh, nil
}

// AuthStatus describes the current connection state.
type AuthStatus struct {
	Authenticated bool       `json:"authenticated"`
	Username      string     `json:"username,omitempty"`
	UserID        string     `json:"user_id,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Status reports whether an account is connected, without refreshing.
func (s *CredentialService) Status(ctx context.Context) (*AuthStatus, error) {
	cred, err := s.store.GetCredential(ctx)
	if errors.Is(err, errors.ErrUnauthenticated) {
		return &AuthStatus{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &AuthStatus{
		Authenticated: true,
		Username:      cred.Username,
		UserID:        cred.UserID,
		ExpiresAt:     &cred.ExpiresAt,
	}, nil
}

// Logout discards the stored credential.
func (s *CredentialService) Logout(ctx context.Context) error {
	return s.store.DeleteCredential(ctx)
}
