package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
)

// CacheInvalidationService drops cached aggregates when settlement events arrive
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelSettlement)
	if err != nil {
		return fmt.Errorf("failed to subscribe to settlement events: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	observability.GetLogger().Info().Str("channel", providers.EventChannelSettlement).Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service and waits for the listener to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	observability.GetLogger().Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.DomainEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent drops the dashboard cache. Every settlement event moves at least one aggregate.
func (s *CacheInvalidationService) handleEvent(event *entities.DomainEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := observability.GetLogger()
	if err := s.cache.DeletePattern(ctx, DashboardCachePattern); err != nil {
		logger.Warn().Err(err).
			Str("event_type", string(event.Type)).
			Str("aggregate_id", event.AggregateID).
			Msg("failed to invalidate dashboard cache")
		return
	}
	logger.Debug().
		Str("event_type", string(event.Type)).
		Str("aggregate_id", event.AggregateID).
		Msg("dashboard cache invalidated")
}
