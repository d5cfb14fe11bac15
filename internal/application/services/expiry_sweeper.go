package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
)

// ExpirySweeper removes ended organizer events together with their members
type ExpirySweeper struct {
	providers repositories.ProviderRepository
	events    repositories.EventRepository
	index     providers.OfferingIndex
	eventBus  providers.EventBus
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewExpirySweeper creates a new expiry sweeper. index may be nil.
func NewExpirySweeper(
	providerRepo repositories.ProviderRepository,
	events repositories.EventRepository,
	index providers.OfferingIndex,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
) *ExpirySweeper {
	return &ExpirySweeper{
		providers: providerRepo,
		events:    events,
		index:     index,
		eventBus:  eventBus,
		metrics:   metrics,
		now:       time.Now,
	}
}

// SetClock overrides the time source
func (s *ExpirySweeper) SetClock(now func() time.Time) {
	s.now = now
}

// RunExpirySweep deletes every event that has ended, one transaction per organizer.
// Changed counts removed events.
func (s *ExpirySweeper) RunExpirySweep(ctx context.Context) (*SweepReport, error) {
	ctx, span := observability.StartSpan(ctx, "sweeper.expiry")
	defer span.End()

	now := s.now()
	report := newSweepReport(SweepExpiry, now)
	organizers, err := s.providers.List(ctx, repositories.ProviderFilter{
		Types: []entities.ProviderType{entities.ProviderTypeOrganizer},
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	for _, organizer := range organizers {
		report.Scanned++
		removed, err := s.events.DeleteExpired(ctx, organizer.ID, now)
		if err != nil {
			observability.LoggerFromContext(ctx).Error().Err(err).Str("provider_id", organizer.ID).Msg("failed to remove expired events")
			report.fail(organizer.ID, err)
			continue
		}
		for _, eventID := range removed {
			report.Changed++
			if s.index != nil {
				if err := s.index.Delete(ctx, eventID); err != nil {
					observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_id", eventID).Msg("failed to remove expired event from index")
				}
			}
			publishEvent(ctx, s.eventBus, entities.NewDomainEvent(entities.DomainEventEventExpired, eventID, organizer.ID, nil))
		}
	}

	observability.SetSpanAttributes(span, attribute.Int("sweep.changed", report.Changed))
	return report.finish(ctx, s.metrics), nil
}
