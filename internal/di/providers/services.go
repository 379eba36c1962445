package providers

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/samber/do/v2"

	"github.com/deadlymenace/x-personal/internal/config"
	"github.com/deadlymenace/x-personal/internal/logger"
	"github.com/deadlymenace/x-personal/internal/ratelimit"
	"github.com/deadlymenace/x-personal/internal/service"
	"github.com/deadlymenace/x-personal/internal/xapi"
)

// Outbound X API pacing: roughly three requests per second with no
// burst headroom, so every consecutive page fetch during a sync is
// spaced ~350ms apart.
const (
	xAPIRequestsPerSecond = 3
	xAPIBurst             = 1
)

// ProvideXClient provides the X API client. All outbound calls share one
// keyed rate limiter so bookmark pagination and search draw from separate
// buckets.
func ProvideXClient(i do.Injector) (*xapi.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	limiter := ratelimit.New(xAPIRequestsPerSecond, xAPIBurst)

	return xapi.New(nil, limiter, cfg.X.ClientID, cfg.X.ClientSecret, cfg.X.CallbackURL, log.Logger), nil
}

// ProvideCredentialService provides the OAuth credential service.
func ProvideCredentialService(i do.Injector) (*service.CredentialService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	client := do.MustInvoke[*xapi.Client](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCredentialService(storeHandle.Store, client, cfg.X.ClientID, log.Logger), nil
}

// ProvideAutoTagService provides the rule-based tagging service.
func ProvideAutoTagService(i do.Injector) (*service.AutoTagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAutoTagService(storeHandle.Store, log.Logger), nil
}

// ProvideSyncService provides the bookmark sync service.
func ProvideSyncService(i do.Injector) (*service.SyncService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	credentials := do.MustInvoke[*service.CredentialService](i)
	client := do.MustInvoke[*xapi.Client](i)
	autotag := do.MustInvoke[*service.AutoTagService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSyncService(storeHandle.Store, credentials, client, autotag, log.Logger), nil
}

// ProvideBookmarkService provides the bookmark service.
func ProvideBookmarkService(i do.Injector) (*service.BookmarkService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookmarkService(storeHandle.Store, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	autotag := do.MustInvoke[*service.AutoTagService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, autotag, log.Logger), nil
}

// ProvideCategoryService provides the category service.
func ProvideCategoryService(i do.Injector) (*service.CategoryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCategoryService(storeHandle.Store, log.Logger), nil
}

// ProvideCategorizerService provides the model-backed categorizer. Without
// an Anthropic API key the service is constructed unconfigured and its
// operations report that categorization is unavailable.
func ProvideCategorizerService(i do.Injector) (*service.CategorizerService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.AI.AnthropicAPIKey == "" {
		log.Info("ANTHROPIC_API_KEY not set - auto-categorization disabled")
		return service.NewCategorizerService(storeHandle.Store, nil, log.Logger), nil
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.AI.AnthropicAPIKey))
	cls := service.NewAnthropicClassifier(client)

	return service.NewCategorizerService(storeHandle.Store, cls, log.Logger), nil
}

// ProvideResearchService provides the cached recent-search service.
func ProvideResearchService(i do.Injector) (*service.ResearchService, error) {
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	client := do.MustInvoke[*xapi.Client](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewResearchService(cacheHandle.Cache, client, cfg.X.BearerToken, log.Logger), nil
}

// ProvideWatchlistService provides the research watchlist service.
func ProvideWatchlistService(i do.Injector) (*service.WatchlistService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWatchlistService(storeHandle.Store, log.Logger), nil
}
