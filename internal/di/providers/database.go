package providers

import (
	"github.com/samber/do/v2"

	"github.com/deadlymenace/x-personal/internal/cache"
	"github.com/deadlymenace/x-personal/internal/config"
	"github.com/deadlymenace/x-personal/internal/logger"
	"github.com/deadlymenace/x-personal/internal/store/sqlite"
)

// StoreHandle wraps the sqlite store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the bookmark database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.DatabasePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.DatabasePath())

	return &StoreHandle{Store: db}, nil
}

// CacheHandle wraps the research result cache with shutdown capability.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideCache provides the badger-backed search result cache.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	c, err := cache.Open(cfg.CachePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Result cache opened", "path", cfg.CachePath())

	return &CacheHandle{Cache: c}, nil
}
