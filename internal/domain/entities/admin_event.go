package entities

import (
	"time"

	"github.com/google/uuid"
)

// AdminEventType represents the kind of change an admin action produced
type AdminEventType string

const (
	AdminEventStoreCreated          AdminEventType = "store.created"
	AdminEventStoreUpdated          AdminEventType = "store.updated"
	AdminEventStoreDeleted          AdminEventType = "store.deleted"
	AdminEventPaymentUpdated        AdminEventType = "payment.updated"
	AdminEventFeedbackCreated       AdminEventType = "feedback.created"
	AdminEventFeedbackStatusChanged AdminEventType = "feedback.status_changed"
	AdminEventFeedbackReplied       AdminEventType = "feedback.replied"
	AdminEventReportGenerated       AdminEventType = "report.generated"
)

// IsStoreEvent reports whether the event concerns a store record
func (t AdminEventType) IsStoreEvent() bool {
	switch t {
	case AdminEventStoreCreated, AdminEventStoreUpdated, AdminEventStoreDeleted:
		return true
	}
	return false
}

// AdminEvent is published after a successful write
type AdminEvent struct {
	ID        string                 `json:"id"`
	Type      AdminEventType         `json:"type"`
	EntityID  string                 `json:"entity_id"`
	Timestamp time.Time              `json:"timestamp"`
	Changes   map[string]interface{} `json:"changes,omitempty"`
}

// NewAdminEvent creates a new admin event
func NewAdminEvent(eventType AdminEventType, entityID string, changes map[string]interface{}) *AdminEvent {
	return &AdminEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
		Changes:   changes,
	}
}
