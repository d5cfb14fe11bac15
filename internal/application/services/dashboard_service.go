package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
)

const (
	// DashboardCacheKey holds the cached admin aggregates
	DashboardCacheKey = "dashboard:aggregates"
	// DashboardCachePattern matches every dashboard cache entry
	DashboardCachePattern = "dashboard:*"
)

// DashboardService serves admin aggregates with a short read-through cache
type DashboardService struct {
	repo    repositories.DashboardRepository
	cache   providers.CacheProvider
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewDashboardService creates a new dashboard service. cache may be nil.
func NewDashboardService(repo repositories.DashboardRepository, cache providers.CacheProvider, ttl time.Duration, metrics *observability.Metrics) *DashboardService {
	return &DashboardService{
		repo:    repo,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
	}
}

// GetDashboardAggregates returns identity and booking counts with revenue totals.
// Totals may lag concurrent writes by up to the cache TTL.
func (s *DashboardService) GetDashboardAggregates(ctx context.Context) (*entities.DashboardAggregates, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	total, pending, err := s.repo.RevenueTotals(ctx)
	if err != nil {
		return nil, err
	}

	aggregates := &entities.DashboardAggregates{
		Counts:              *counts,
		TotalRevenue:        entities.RoundMoney(total),
		TotalPendingRevenue: entities.RoundMoney(pending),
		GeneratedAt:         time.Now().UTC(),
	}

	if s.cache != nil && s.ttl > 0 {
		if data, err := json.Marshal(aggregates); err == nil {
			if err := s.cache.Set(ctx, DashboardCacheKey, data, int(s.ttl.Seconds())); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to cache dashboard aggregates")
			}
		}
	}
	return aggregates, nil
}

// Invalidate drops every cached dashboard entry
func (s *DashboardService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeletePattern(ctx, DashboardCachePattern)
}

func (s *DashboardService) fromCache(ctx context.Context) *entities.DashboardAggregates {
	if s.cache == nil || s.ttl <= 0 {
		return nil
	}

	data, err := s.cache.Get(ctx, DashboardCacheKey)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("dashboard cache read failed")
		}
		observability.RecordCacheMiss(ctx, s.metrics, DashboardCacheKey)
		return nil
	}

	var aggregates entities.DashboardAggregates
	if err := json.Unmarshal(data, &aggregates); err != nil {
		observability.RecordCacheMiss(ctx, s.metrics, DashboardCacheKey)
		return nil
	}
	observability.RecordCacheHit(ctx, s.metrics, DashboardCacheKey)
	return &aggregates
}
