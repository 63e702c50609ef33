package chat

import (
	"context"
	"fmt"
	"time"

	"docsearch-console/internal/entity"

	"github.com/patrickmn/go-cache"
)

type ProviderLister interface {
	ListProviders(ctx context.Context, mainSystem bool) ([]entity.Provider, error)
}

// ProviderCatalog offers the active providers of whichever backend the
// session currently targets. Listings are cached per backend flag.
type ProviderCatalog struct {
	api      ProviderLister
	settings *Settings
	cache    *cache.Cache
}

func NewProviderCatalog(api ProviderLister, settings *Settings, ttl time.Duration) *ProviderCatalog {
	if ttl < 0 {
		ttl = cache.NoExpiration
	}
	return &ProviderCatalog{
		api:      api,
		settings: settings,
		cache:    cache.New(ttl, 0),
	}
}

func (c *ProviderCatalog) Available(ctx context.Context) ([]entity.Provider, error) {
	mainSystem := c.settings.Snapshot().UseMainBackend
	key := fmt.Sprintf("providers:%t", mainSystem)

	if x, found := c.cache.Get(key); found {
		return append([]entity.Provider(nil), x.([]entity.Provider)...), nil
	}

	all, err := c.api.ListProviders(ctx, mainSystem)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}

	active := make([]entity.Provider, 0, len(all))
	for _, p := range all {
		if p.IsActive {
			active = append(active, p)
		}
	}
	c.cache.Set(key, active, cache.DefaultExpiration)
	return append([]entity.Provider(nil), active...), nil
}

func (c *ProviderCatalog) Invalidate() {
	c.cache.Flush()
}
