package entities

import (
	"time"

	"github.com/google/uuid"
)

// DomainEventType represents the type of settlement domain event
type DomainEventType string

const (
	DomainEventBookingCreated    DomainEventType = "booking.created"
	DomainEventBookingUpdated    DomainEventType = "booking.updated"
	DomainEventBookingCompleted  DomainEventType = "booking.completed"
	DomainEventProviderPaid      DomainEventType = "provider.paid"
	DomainEventProviderRevenue   DomainEventType = "provider.revenue_updated"
	DomainEventProviderSuspended DomainEventType = "provider.suspended"
	DomainEventEventExpired      DomainEventType = "event.expired"
)

// DomainEvent is published after a settlement-relevant write commits
type DomainEvent struct {
	ID          string                 `json:"id"`
	Type        DomainEventType        `json:"type"`
	AggregateID string                 `json:"aggregate_id"`
	ProviderID  string                 `json:"provider_id,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// NewDomainEvent creates a new domain event
func NewDomainEvent(eventType DomainEventType, aggregateID, providerID string, payload map[string]interface{}) *DomainEvent {
	return &DomainEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		ProviderID:  providerID,
		Timestamp:   time.Now(),
		Payload:     payload,
	}
}
