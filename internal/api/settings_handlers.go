package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSyncStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings/sync-status",
		Summary:     "Sync status",
		Description: "Reports whether a sync is currently running",
		Tags:        []string{"Settings"},
	}, s.handleSyncStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearSearchCache",
		Method:      http.MethodPost,
		Path:        "/api/v1/settings/cache/clear",
		Summary:     "Clear search cache",
		Tags:        []string{"Settings"},
	}, s.handleClearCache)

	huma.Register(s.api, huma.Operation{
		OperationID: "pruneSearchCache",
		Method:      http.MethodPost,
		Path:        "/api/v1/settings/cache/prune",
		Summary:     "Prune search cache",
		Description: "Removes cached search results older than the TTL",
		Tags:        []string{"Settings"},
	}, s.handlePruneCache)
}

// SyncStatusResponse reports sync progress.
type SyncStatusResponse struct {
	Running bool `json:"running" doc:"Whether a sync is in flight"`
}

// SyncStatusOutput wraps the sync status for Huma.
type SyncStatusOutput struct {
	Body SyncStatusResponse
}

// PruneResponse reports how many cache entries were removed.
type PruneResponse struct {
	Removed int `json:"removed" doc:"Cache entries removed"`
}

// PruneOutput wraps the prune response for Huma.
type PruneOutput struct {
	Body PruneResponse
}

func (s *Server) handleSyncStatus(_ context.Context, _ *struct{}) (*SyncStatusOutput, error) {
	return &SyncStatusOutput{Body: SyncStatusResponse{Running: s.services.Sync.Running()}}, nil
}

func (s *Server) handleClearCache(_ context.Context, _ *struct{}) (*PruneOutput, error) {
	removed, err := s.services.Research.ClearCache()
	if err != nil {
		return nil, err
	}
	return &PruneOutput{Body: PruneResponse{Removed: removed}}, nil
}

func (s *Server) handlePruneCache(_ context.Context, _ *struct{}) (*PruneOutput, error) {
	removed, err := s.services.Research.PruneCache()
	if err != nil {
		return nil, err
	}
	return &PruneOutput{Body: PruneResponse{Removed: removed}}, nil
}
