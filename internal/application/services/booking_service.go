package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
)

// OfferingChecker verifies that an offering exists under a provider and is still bookable
type OfferingChecker interface {
	CheckBookable(ctx context.Context, provider *entities.Provider, offeringID string) error
}

// BookingService handles booking creation and history
type BookingService struct {
	bookings  repositories.BookingRepository
	patients  repositories.PatientRepository
	providers repositories.ProviderRepository
	offerings OfferingChecker
	eventBus  providers.EventBus
	now       func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookings repositories.BookingRepository,
	patients repositories.PatientRepository,
	providerRepo repositories.ProviderRepository,
	offerings OfferingChecker,
	eventBus providers.EventBus,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		patients:  patients,
		providers: providerRepo,
		offerings: offerings,
		eventBus:  eventBus,
		now:       time.Now,
	}
}

// SetClock overrides the time source
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateBooking books offering serviceID of providerID for patientID in status pending
func (s *BookingService) CreateBooking(ctx context.Context, patientID, providerID, serviceID string) (*entities.Booking, error) {
	if patientID == "" || providerID == "" || serviceID == "" {
		return nil, apperrors.NewValidationError("patient_id, provider_id and service_id are required")
	}

	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider.ServiceStop {
		return nil, apperrors.NewValidationError("provider is not accepting bookings until outstanding fees are paid")
	}
	if err := s.offerings.CheckBookable(ctx, provider, serviceID); err != nil {
		return nil, err
	}

	booking := &entities.Booking{
		ID:           uuid.New().String(),
		PatientID:    patientID,
		ProviderID:   provider.ID,
		ProviderType: provider.Type,
		ServiceID:    serviceID,
		Status:       entities.BookingStatusPending,
		BookingDate:  s.now(),
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.eventBus, entities.NewDomainEvent(entities.DomainEventBookingCreated, booking.ID, provider.ID, map[string]interface{}{
		"patient_id": patientID,
		"service_id": serviceID,
	}))

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("provider_id", provider.ID).
		Str("patient_id", patientID).
		Msg("booking created")
	return booking, nil
}

// GetBooking retrieves a booking by ID
func (s *BookingService) GetBooking(ctx context.Context, id string) (*entities.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// ListPatientBookings lists a patient's booking history, newest first
func (s *BookingService) ListPatientBookings(ctx context.Context, patientID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown booking status")
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.bookings.ListByPatient(ctx, patientID, filter)
}
