package providers

import (
	"context"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to domain events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.DomainEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DomainEvent, error)
}

// EventChannelSettlement carries every booking, ledger and expiry event
const EventChannelSettlement = "settlement:events"
