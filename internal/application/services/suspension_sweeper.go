package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
)

// SuspensionSweeper stops service for providers with unpaid platform fees
type SuspensionSweeper struct {
	providers  repositories.ProviderRepository
	slots      repositories.VisitSlotRepository
	eventBus   providers.EventBus
	metrics    *observability.Metrics
	maxRetries int
	now        func() time.Time
}

// NewSuspensionSweeper creates a new suspension sweeper
func NewSuspensionSweeper(
	providerRepo repositories.ProviderRepository,
	slots repositories.VisitSlotRepository,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	maxRetries int,
) *SuspensionSweeper {
	return &SuspensionSweeper{
		providers:  providerRepo,
		slots:      slots,
		eventBus:   eventBus,
		metrics:    metrics,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// SetClock overrides the time source
func (s *SuspensionSweeper) SetClock(now func() time.Time) {
	s.now = now
}

// RunBalanceSweep suspends every lab and hospital whose fees are still PENDING
func (s *SuspensionSweeper) RunBalanceSweep(ctx context.Context) (*SweepReport, error) {
	ctx, span := observability.StartSpan(ctx, "sweeper.balance")
	defer span.End()

	report := newSweepReport(SweepBalance, s.now())
	notSuspended := false
	candidates, err := s.providers.List(ctx, repositories.ProviderFilter{
		Types:      []entities.ProviderType{entities.ProviderTypeLab, entities.ProviderTypeHospital},
		PaidStatus: entities.PaidStatusPending,
		Suspended:  &notSuspended,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	for _, candidate := range candidates {
		report.Scanned++
		changed, err := s.suspend(ctx, candidate.ID, func(p *entities.Provider) bool {
			return p.PaidStatus == entities.PaidStatusPending
		})
		if err != nil {
			report.fail(candidate.ID, err)
			continue
		}
		if changed {
			report.Changed++
		}
	}

	observability.SetSpanAttributes(span, attribute.Int("sweep.changed", report.Changed))
	return report.finish(ctx, s.metrics), nil
}

// RunVisitSweep suspends visit doctors whose latest slot has ended while a PENDING balance is owed
func (s *SuspensionSweeper) RunVisitSweep(ctx context.Context) (*SweepReport, error) {
	ctx, span := observability.StartSpan(ctx, "sweeper.visits")
	defer span.End()

	now := s.now()
	report := newSweepReport(SweepVisits, now)
	notSuspended := false
	candidates, err := s.providers.List(ctx, repositories.ProviderFilter{
		Types:           []entities.ProviderType{entities.ProviderTypeVisitDoctor},
		PaidStatus:      entities.PaidStatusPending,
		Suspended:       &notSuspended,
		PositiveBalance: true,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	for _, candidate := range candidates {
		report.Scanned++

		slot, err := s.slots.LatestByProvider(ctx, candidate.ID)
		if apperrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			report.fail(candidate.ID, err)
			continue
		}
		if !slot.Ended(now) {
			continue
		}

		changed, err := s.suspend(ctx, candidate.ID, func(p *entities.Provider) bool {
			return p.PaidStatus == entities.PaidStatusPending && p.FeeBalance > 0
		})
		if err != nil {
			report.fail(candidate.ID, err)
			continue
		}
		if changed {
			report.Changed++
		}
	}

	observability.SetSpanAttributes(span, attribute.Int("sweep.changed", report.Changed))
	return report.finish(ctx, s.metrics), nil
}

// suspend re-checks eligible against a fresh read and sets ServiceStop under CAS
func (s *SuspensionSweeper) suspend(ctx context.Context, providerID string, eligible func(*entities.Provider) bool) (bool, error) {
	changed := false
	provider, err := updateLedger(ctx, s.providers, providerID, s.maxRetries, func(p *entities.Provider) (bool, error) {
		changed = eligible(p) && p.Suspend()
		return changed, nil
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Str("provider_id", providerID).Msg("failed to suspend provider")
		return false, err
	}
	if !changed {
		return false, nil
	}

	publishEvent(ctx, s.eventBus, entities.NewDomainEvent(entities.DomainEventProviderSuspended, provider.ID, provider.ID, map[string]interface{}{
		"fee_balance":   provider.FeeBalance,
		"provider_type": string(provider.Type),
	}))
	observability.LoggerFromContext(ctx).Info().
		Str("provider_id", provider.ID).
		Str("provider_type", string(provider.Type)).
		Float64("fee_balance", provider.FeeBalance).
		Msg("provider suspended")
	return true, nil
}
