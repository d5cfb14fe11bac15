package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
	"github.com/Satyam1013/Free-Health-Camp-sub000/pkg/retry"
)

// LedgerService applies admin revenue updates to provider ledgers
type LedgerService struct {
	repo                repositories.ProviderRepository
	eventBus            providers.EventBus
	reactivateOnPayment bool
	maxRetries          int
}

// NewLedgerService creates a new ledger service
func NewLedgerService(repo repositories.ProviderRepository, eventBus providers.EventBus, reactivateOnPayment bool, maxRetries int) *LedgerService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &LedgerService{
		repo:                repo,
		eventBus:            eventBus,
		reactivateOnPayment: reactivateOnPayment,
		maxRetries:          maxRetries,
	}
}

// UpdateProviderRevenue overwrites fee balance and/or paid status. Marking a
// provider PAID zeroes its balance in the same write.
func (s *LedgerService) UpdateProviderRevenue(ctx context.Context, providerID string, update entities.RevenueUpdate) (*entities.Provider, error) {
	ctx, span := observability.StartSpan(ctx, "ledger.update_revenue")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("provider.id", providerID))

	if update.IsEmpty() {
		return nil, apperrors.NewValidationError("fee_balance or paid_status is required")
	}

	var wasPaid bool
	provider, err := updateLedger(ctx, s.repo, providerID, s.maxRetries, func(p *entities.Provider) (bool, error) {
		wasPaid = p.PaidStatus == entities.PaidStatusPaid
		if err := p.Apply(update, s.reactivateOnPayment); err != nil {
			return false, apperrors.NewValidationError(err.Error())
		}
		return true, nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	eventType := entities.DomainEventProviderRevenue
	if provider.PaidStatus == entities.PaidStatusPaid && !wasPaid {
		eventType = entities.DomainEventProviderPaid
	}
	publishEvent(ctx, s.eventBus, entities.NewDomainEvent(eventType, provider.ID, provider.ID, map[string]interface{}{
		"fee_balance":  provider.FeeBalance,
		"paid_status":  string(provider.PaidStatus),
		"service_stop": provider.ServiceStop,
	}))

	observability.LoggerFromContext(ctx).Info().
		Str("provider_id", provider.ID).
		Float64("fee_balance", provider.FeeBalance).
		Str("paid_status", string(provider.PaidStatus)).
		Bool("service_stop", provider.ServiceStop).
		Msg("provider revenue updated")

	return provider, nil
}

// ledgerMutation changes a freshly loaded provider and reports whether a write is needed
type ledgerMutation func(p *entities.Provider) (bool, error)

// updateLedger runs a read-modify-write on one provider under version compare-and-swap,
// reloading and re-applying mutate after every stale write.
func updateLedger(ctx context.Context, repo repositories.ProviderRepository, providerID string, attempts int, mutate ledgerMutation) (*entities.Provider, error) {
	cfg := retry.StoreConfig(func(err error) bool {
		return errors.Is(err, repositories.ErrStaleVersion)
	})
	cfg.MaxAttempts = attempts

	var result *entities.Provider
	err := retry.Do(ctx, cfg, func() error {
		provider, err := repo.GetByID(ctx, providerID)
		if err != nil {
			return err
		}
		changed, err := mutate(provider)
		if err != nil {
			return err
		}
		if changed {
			if err := repo.UpdateLedger(ctx, provider); err != nil {
				return err
			}
		}
		result = provider
		return nil
	})
	if errors.Is(err, repositories.ErrStaleVersion) {
		return nil, apperrors.NewTransientError(fmt.Sprintf("provider %s is being updated concurrently", providerID), err)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
