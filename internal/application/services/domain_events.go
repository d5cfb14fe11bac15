package services

import (
	"context"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
)

// publishEvent emits a domain event after the owning write has committed.
// Delivery is best effort; failures are logged and never undo the write.
func publishEvent(ctx context.Context, bus providers.EventBus, event *entities.DomainEvent) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, providers.EventChannelSettlement, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("event_type", string(event.Type)).
			Str("aggregate_id", event.AggregateID).
			Msg("failed to publish domain event")
	}
}
