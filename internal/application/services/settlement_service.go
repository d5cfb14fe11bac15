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

// SettlementService moves bookings through their lifecycle and accrues the
// platform commission exactly once per booking.
type SettlementService struct {
	store     repositories.SettlementStore
	providers repositories.ProviderRepository
	registry  *FeeSourceRegistry
	eventBus  providers.EventBus
	metrics   *observability.Metrics
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	store repositories.SettlementStore,
	providerRepo repositories.ProviderRepository,
	registry *FeeSourceRegistry,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
) *SettlementService {
	return &SettlementService{
		store:     store,
		providers: providerRepo,
		registry:  registry,
		eventBus:  eventBus,
		metrics:   metrics,
	}
}

// settlementResult is what one committed transaction produced
type settlementResult struct {
	booking      *entities.Booking
	previous     entities.BookingStatus
	accrued      float64
	providerType entities.ProviderType
	completed    bool
}

// TransitionBooking applies update to the booking of patientID for serviceID at providerID.
// The first move into completed accrues the commission on the provider ledger in the
// same transaction; any later completion leaves the ledger untouched.
func (s *SettlementService) TransitionBooking(ctx context.Context, providerID, serviceID, patientID string, update entities.BookingUpdate) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "settlement.transition_booking")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("provider.id", providerID),
		attribute.String("service.id", serviceID),
		attribute.String("patient.id", patientID),
	)

	if update.IsEmpty() {
		return nil, apperrors.NewInvalidTransitionError("update must set status or next_visit_date")
	}
	target := "unchanged"
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, apperrors.NewInvalidTransitionError(fmt.Sprintf("unknown booking status %q", *update.Status))
		}
		target = string(*update.Status)
	}

	key := repositories.BookingKey{PatientID: patientID, ProviderID: providerID, ServiceID: serviceID}
	fee := s.lookupFee(ctx, key, update)

	var result *settlementResult
	cfg := retry.StoreConfig(func(err error) bool {
		return apperrors.IsTransient(err) || errors.Is(err, repositories.ErrStaleVersion)
	})
	err := retry.Do(ctx, cfg, func() error {
		res, err := s.settle(ctx, key, update, fee)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordTransition(ctx, s.metrics, target, string(apperrors.TypeOf(err)))
		if errors.Is(err, repositories.ErrStaleVersion) {
			return nil, apperrors.NewTransientError("booking is being updated concurrently", err)
		}
		return nil, err
	}

	booking := result.booking
	observability.RecordTransition(ctx, s.metrics, string(booking.Status), "ok")
	if result.accrued > 0 {
		observability.RecordCommission(ctx, s.metrics, string(result.providerType), result.accrued)
	}

	eventType := entities.DomainEventBookingUpdated
	if result.completed {
		eventType = entities.DomainEventBookingCompleted
	}
	publishEvent(ctx, s.eventBus, entities.NewDomainEvent(eventType, booking.ID, booking.ProviderID, map[string]interface{}{
		"previous_status": string(result.previous),
		"status":          string(booking.Status),
		"commission":      result.accrued,
	}))

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("provider_id", booking.ProviderID).
		Str("from", string(result.previous)).
		Str("to", string(booking.Status)).
		Float64("commission", result.accrued).
		Msg("booking transitioned")

	return booking, nil
}

// feeLookup is a fee source resolved ahead of the settlement transaction.
// err is only surfaced when the transition actually accrues.
type feeLookup struct {
	source FeeSource
	err    error
}

// lookupFee resolves the fee source before any row is locked, so the transaction
// never waits on a second pooled connection. Provider type and offering ownership
// are immutable, so the lookup stays valid for the locked rows.
func (s *SettlementService) lookupFee(ctx context.Context, key repositories.BookingKey, update entities.BookingUpdate) feeLookup {
	if update.Status == nil || *update.Status != entities.BookingStatusCompleted {
		return feeLookup{}
	}
	provider, err := s.providers.GetByID(ctx, key.ProviderID)
	if err != nil {
		return feeLookup{err: err}
	}
	source, err := s.registry.Resolve(ctx, provider, key.ServiceID)
	return feeLookup{source: source, err: err}
}

// settle runs one attempt of the transition inside a single transaction
func (s *SettlementService) settle(ctx context.Context, key repositories.BookingKey, update entities.BookingUpdate, fee feeLookup) (*settlementResult, error) {
	var result *settlementResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.SettlementTx) error {
		booking, err := tx.LockBooking(ctx, key)
		if err != nil {
			return err
		}
		res := &settlementResult{booking: booking, previous: booking.Status, providerType: booking.ProviderType}

		if update.Status != nil && !booking.Status.CanTransitionTo(*update.Status) {
			return apperrors.NewInvalidTransitionError(fmt.Sprintf("cannot move booking from %s to %s", booking.Status, *update.Status))
		}
		if update.Status == nil && booking.Status == entities.BookingStatusCancelled {
			return apperrors.NewInvalidTransitionError("booking is cancelled")
		}

		if update.CompletesFreshly(booking) {
			if fee.err != nil {
				return fee.err
			}
			provider, err := tx.LockProvider(ctx, booking.ProviderID)
			if err != nil {
				return err
			}
			commission := Commission(fee.source)
			if commission > 0 {
				if err := provider.AccrueCommission(commission); err != nil {
					return apperrors.NewInternalError("invalid commission", err)
				}
				if err := tx.SaveLedger(ctx, provider); err != nil {
					return err
				}
			}
			booking.Commission = commission
			res.accrued = commission
			res.providerType = provider.Type
			res.completed = true
		}

		if update.Status != nil {
			booking.Status = *update.Status
		}
		if update.NextVisitDate != nil {
			booking.NextVisitDate = update.NextVisitDate
		}
		if err := tx.SaveBooking(ctx, booking); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
