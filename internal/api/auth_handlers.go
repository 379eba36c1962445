package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/deadlymenace/x-personal/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "authStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/status",
		Summary:     "Connection status",
		Description: "Reports whether an X account is connected",
		Tags:        []string{"Auth"},
	}, s.handleAuthStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "authLogin",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Start OAuth flow",
		Description: "Generates the X authorize URL for the PKCE flow",
		Tags:        []string{"Auth"},
	}, s.handleAuthLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "authCallback",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/callback",
		Summary:     "OAuth callback",
		Description: "Completes the PKCE flow with the code and state from X",
		Tags:        []string{"Auth"},
	}, s.handleAuthCallback)

	huma.Register(s.api, huma.Operation{
		OperationID: "authLogout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Disconnect account",
		Description: "Discards the stored credential",
		Tags:        []string{"Auth"},
	}, s.handleAuthLogout)
}

// === DTOs ===

// AuthStatusOutput wraps the connection status for Huma.
type AuthStatusOutput struct {
	Body service.AuthStatus
}

// LoginResponse carries the authorize redirect for the UI.
type LoginResponse struct {
	URL   string `json:"url" doc:"X authorize URL to open"`
	State string `json:"state" doc:"Opaque state echoed on the callback"`
}

// LoginOutput wraps the login response for Huma.
type LoginOutput struct {
	Body LoginResponse
}

// CallbackInput carries the query parameters X redirects back with.
type CallbackInput struct {
	Code  string `query:"code" required:"true" doc:"Authorization code"`
	State string `query:"state" required:"true" doc:"State issued at login"`
}

// CallbackResponse reports the connected account.
type CallbackResponse struct {
	Username  string    `json:"username" doc:"Connected account handle"`
	UserID    string    `json:"user_id" doc:"Connected account ID"`
	ExpiresAt time.Time `json:"expires_at" doc:"Access token expiry"`
}

// CallbackOutput wraps the callback response for Huma.
type CallbackOutput struct {
	Body CallbackResponse
}

// === Handlers ===

func (s *Server) handleAuthStatus(ctx context.Context, _ *struct{}) (*AuthStatusOutput, error) {
	status, err := s.services.Credential.Status(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthStatusOutput{Body: *status}, nil
}

func (s *Server) handleAuthLogin(ctx context.Context, _ *struct{}) (*LoginOutput, error) {
	url, state, err := s.services.Credential.AuthURL(ctx)
	if err != nil {
		return nil, err
	}
	return &LoginOutput{Body: LoginResponse{URL: url, State: state}}, nil
}

func (s *Server) handleAuthCallback(ctx context.Context, input *CallbackInput) (*CallbackOutput, error) {
	cred, err := s.services.Credential.HandleCallback(ctx, input.Code, input.State)
	if err != nil {
		return nil, err
	}
	return &CallbackOutput{Body: CallbackResponse{
		Username:  cred.Username,
		UserID:    cred.UserID,
		ExpiresAt: cred.ExpiresAt,
	}}, nil
}

func (s *Server) handleAuthLogout(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.services.Credential.Logout(ctx); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
