package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/internal/adapters/cache"
	"github.com/zatekoja/storeguard/internal/adapters/database"
	"github.com/zatekoja/storeguard/internal/adapters/events"
	"github.com/zatekoja/storeguard/internal/adapters/memory"
	"github.com/zatekoja/storeguard/internal/adapters/search"
	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	"github.com/zatekoja/storeguard/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/storeguard/internal/infrastructure/clients/redis"
	"github.com/zatekoja/storeguard/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/storeguard/internal/seed"
	"github.com/zatekoja/storeguard/pkg/config"
)

// backend is the set of stores and shared providers every command builds on
type backend struct {
	stores   repositories.StoreRepository
	payments repositories.PaymentRepository
	feedback repositories.FeedbackRepository
	alerts   repositories.AlertRepository

	cache  providers.CacheProvider
	events providers.EventBus
	index  *search.TypesenseAdapter

	pg      *postgres.Client
	closers []func() error
}

type backendOptions struct {
	search bool
}

// openBackend connects the configured storage driver. Redis and Typesense
// are optional: when they are disabled or unreachable the process falls
// back to in-process equivalents.
func openBackend(ctx context.Context, cfg *config.Config, opts backendOptions) (*backend, error) {
	b := &backend{}

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		db, err := memory.NewSeededDB(ctx, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory storage: %w", err)
		}
		b.stores, b.payments, b.feedback, b.alerts = db.Stores(), db.Payments(), db.Feedback(), db.Alerts()
		log.Warn().Msg("using in-memory storage; data is lost on restart")
	default:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
		}
		b.pg = pgClient
		b.closers = append(b.closers, pgClient.Close)
		b.stores = database.NewStoreAdapter(pgClient)
		b.payments = database.NewPaymentAdapter(pgClient)
		b.feedback = database.NewFeedbackAdapter(pgClient)
		b.alerts = database.NewAlertAdapter(pgClient)
	}

	if err := b.openCacheAndEvents(ctx, cfg); err != nil {
		_ = b.Close()
		return nil, err
	}
	if b.pg != nil {
		b.stores = database.NewCachedStoreAdapter(b.stores, b.cache)
	}

	if opts.search && cfg.Typesense.Enabled {
		b.openSearch(ctx, cfg)
	}
	return b, nil
}

func (b *backend) openCacheAndEvents(ctx context.Context, cfg *config.Config) error {
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err == nil {
			b.closers = append(b.closers, redisClient.Close)
			b.cache = cache.NewRedisAdapter(redisClient)
			b.events = events.NewRedisEventBus(redisClient)
			b.closers = append(b.closers, b.events.Close)
			return nil
		}
		log.Warn().Err(err).Msg("Redis unavailable; falling back to in-process cache and event bus")
	}

	memCache, err := cache.NewMemoryAdapter(cache.DefaultMemoryEntries)
	if err != nil {
		return fmt.Errorf("failed to create in-process cache: %w", err)
	}
	b.cache = memCache
	b.events = events.NewMemoryEventBus()
	b.closers = append(b.closers, b.events.Close)
	return nil
}

func (b *backend) openSearch(ctx context.Context, cfg *config.Config) {
	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable; store search falls back to the database")
		return
	}
	if err := tsClient.InitSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to init Typesense schema; store search falls back to the database")
		return
	}
	b.index = search.NewTypesenseAdapter(tsClient)
}

// searchRepo returns the index as an interface, nil when search is off
func (b *backend) searchRepo() repositories.StoreSearchRepository {
	if b.index == nil {
		return nil
	}
	return b.index
}

func (b *backend) seedRepositories() seed.Repositories {
	return seed.Repositories{
		Stores:   b.stores,
		Payments: b.payments,
		Feedback: b.feedback,
		Alerts:   b.alerts,
	}
}

// Close releases connections in reverse order of opening
func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
