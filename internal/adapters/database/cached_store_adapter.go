package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
)

// CachedStoreAdapter wraps a StoreRepository with read-through caching of
// single stores. Writes drop the cached entry before returning.
type CachedStoreAdapter struct {
	repositories.StoreRepository
	cache providers.CacheProvider
}

// NewCachedStoreAdapter creates a new cached store adapter
func NewCachedStoreAdapter(adapter repositories.StoreRepository, cache providers.CacheProvider) repositories.StoreRepository {
	return &CachedStoreAdapter{
		StoreRepository: adapter,
		cache:           cache,
	}
}

// storeByIDTTL is in seconds
const storeByIDTTL = 300

// StoreCacheKey is the cache key of a single store
func StoreCacheKey(id string) string {
	return fmt.Sprintf("store:%s", id)
}

// GetByID retrieves a store by ID with caching. The NVR password is never
// cached; it is only needed on writes, where an empty value is preserved.
func (a *CachedStoreAdapter) GetByID(ctx context.Context, id string) (*entities.Store, error) {
	cacheKey := StoreCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var store entities.Store
		err := json.Unmarshal(cached, &store)
		if err == nil {
			return &store, nil
		}
		log.Warn().Err(err).Str("store_id", id).Msg("failed to unmarshal cached store")
	}

	store, err := a.StoreRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(store); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, storeByIDTTL); err != nil {
			log.Warn().Err(err).Str("store_id", id).Msg("failed to cache store")
		}
	}

	return store, nil
}

// Update updates the store and invalidates its cache entry
func (a *CachedStoreAdapter) Update(ctx context.Context, store *entities.Store) error {
	if err := a.StoreRepository.Update(ctx, store); err != nil {
		return err
	}
	a.invalidate(ctx, store.ID)
	return nil
}

// Delete deletes the store and invalidates its cache entry
func (a *CachedStoreAdapter) Delete(ctx context.Context, id string) error {
	if err := a.StoreRepository.Delete(ctx, id); err != nil {
		return err
	}
	a.invalidate(ctx, id)
	return nil
}

func (a *CachedStoreAdapter) invalidate(ctx context.Context, id string) {
	if err := a.cache.Delete(ctx, StoreCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("store_id", id).Msg("failed to invalidate cached store")
	}
}
