// Package di wires the application together with the samber/do container.
package di

import (
	"github.com/samber/do/v2"

	"github.com/deadlymenace/x-personal/internal/config"
	"github.com/deadlymenace/x-personal/internal/di/providers"
	"github.com/deadlymenace/x-personal/internal/logger"
	"github.com/deadlymenace/x-personal/internal/service"
	"github.com/deadlymenace/x-personal/internal/xapi"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Configuration and logging
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCache)

	// X API client
	do.Provide(injector, providers.ProvideXClient)

	// Services
	do.Provide(injector, providers.ProvideCredentialService)
	do.Provide(injector, providers.ProvideAutoTagService)
	do.Provide(injector, providers.ProvideSyncService)
	do.Provide(injector, providers.ProvideBookmarkService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideCategoryService)
	do.Provide(injector, providers.ProvideCategorizerService)
	do.Provide(injector, providers.ProvideResearchService)
	do.Provide(injector, providers.ProvideWatchlistService)

	// HTTP server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)

	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.CacheHandle](injector)

	_ = do.MustInvoke[*xapi.Client](injector)

	_ = do.MustInvoke[*service.CredentialService](injector)
	_ = do.MustInvoke[*service.AutoTagService](injector)
	_ = do.MustInvoke[*service.SyncService](injector)
	_ = do.MustInvoke[*service.BookmarkService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.CategoryService](injector)
	_ = do.MustInvoke[*service.CategorizerService](injector)
	_ = do.MustInvoke[*service.ResearchService](injector)
	_ = do.MustInvoke[*service.WatchlistService](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
