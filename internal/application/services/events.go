package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/providers"
)

// publish announces a completed write. Delivery is best effort: the write has
// already succeeded, so a bus failure is only logged.
func publish(ctx context.Context, bus providers.EventBus, eventType entities.AdminEventType, entityID string, changes map[string]interface{}) {
	if bus == nil {
		return
	}
	event := entities.NewAdminEvent(eventType, entityID, changes)
	if err := bus.Publish(ctx, providers.EventChannelAdmin, event); err != nil {
		log.Warn().Err(err).Str("event_type", string(eventType)).Str("entity_id", entityID).Msg("failed to publish admin event")
	}
}

// Page is one page of a filtered list together with the total match count
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}
