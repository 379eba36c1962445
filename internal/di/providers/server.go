package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/deadlymenace/x-personal/internal/api"
	"github.com/deadlymenace/x-personal/internal/config"
	"github.com/deadlymenace/x-personal/internal/logger"
	"github.com/deadlymenace/x-personal/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Credential:  do.MustInvoke[*service.CredentialService](i),
		Sync:        do.MustInvoke[*service.SyncService](i),
		Bookmark:    do.MustInvoke[*service.BookmarkService](i),
		Tag:         do.MustInvoke[*service.TagService](i),
		Category:    do.MustInvoke[*service.CategoryService](i),
		Categorizer: do.MustInvoke[*service.CategorizerService](i),
		Research:    do.MustInvoke[*service.ResearchService](i),
		Watchlist:   do.MustInvoke[*service.WatchlistService](i),
	}

	handler := api.NewServer(services, api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
