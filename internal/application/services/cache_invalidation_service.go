package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/providers"
)

// invalidationTimeout bounds the cache deletes of one event
const invalidationTimeout = 5 * time.Second

// cacheGroups maps an admin event to the response groups it makes stale.
// Store names are denormalised onto payments and reports, so store writes
// reach further than the stores group.
var cacheGroups = map[entities.AdminEventType][]string{
	entities.AdminEventStoreCreated:          {"stores", "payments", "reports", "dashboard"},
	entities.AdminEventStoreUpdated:          {"stores", "payments", "reports", "dashboard"},
	entities.AdminEventStoreDeleted:          {"stores", "payments", "reports", "dashboard"},
	entities.AdminEventPaymentUpdated:        {"payments", "reports"},
	entities.AdminEventFeedbackCreated:       {"feedback", "dashboard"},
	entities.AdminEventFeedbackStatusChanged: {"feedback", "dashboard"},
	entities.AdminEventFeedbackReplied:       {"feedback"},
}

// CacheInvalidationService drops cached API responses when admin events
// report a write.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     sync.WaitGroup
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to admin events and begins invalidating
func (s *CacheInvalidationService) Start() error {
	events, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelAdmin)
	if err != nil {
		return fmt.Errorf("failed to subscribe to admin events: %w", err)
	}

	s.done.Add(1)
	go s.processEvents(events)
	log.Info().Str("channel", providers.EventChannelAdmin).Msg("cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	s.done.Wait()
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(events <-chan *entities.AdminEvent) {
	defer s.done.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event != nil {
				s.handleEvent(event)
			}
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.AdminEvent) {
	groups := cacheGroups[event.Type]
	if len(groups) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), invalidationTimeout)
	defer cancel()

	if err := s.InvalidateGroups(ctx, groups...); err != nil {
		log.Warn().Err(err).
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("cache invalidation incomplete")
		return
	}
	log.Debug().
		Str("event_type", string(event.Type)).
		Str("entity_id", event.EntityID).
		Strs("groups", groups).
		Msg("invalidated cached responses")
}

// InvalidateGroups deletes every cached response of the given route groups.
// It keeps going after a failure and returns the first error.
func (s *CacheInvalidationService) InvalidateGroups(ctx context.Context, groups ...string) error {
	var first error
	for _, group := range groups {
		pattern := providers.HTTPCachePattern(group)
		if err := s.cache.DeletePattern(ctx, pattern); err != nil && first == nil {
			first = fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	return first
}
