package repositories

import (
	"context"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
)

// BookingRepository defines the interface for booking data operations.
// Bookings are never deleted; status changes go through SettlementStore.
type BookingRepository interface {
	// Create creates a new booking
	Create(ctx context.Context, booking *entities.Booking) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// ListByPatient retrieves a patient's booking history, newest first
	ListByPatient(ctx context.Context, patientID string, filter BookingFilter) ([]*entities.Booking, error)

	// CountOpenByOffering counts pending or booked bookings of one provider offering
	CountOpenByOffering(ctx context.Context, providerID, offeringID string) (int, error)
}

// BookingFilter defines filters for listing bookings
type BookingFilter struct {
	Status entities.BookingStatus
	Limit  int
	Offset int
}

// BookingKey addresses a booking by the triple used by the settlement engine
type BookingKey struct {
	PatientID  string
	ProviderID string
	ServiceID  string
}

// SettlementStore runs settlement work inside a single storage transaction
type SettlementStore interface {
	// WithinTx runs fn in a transaction; it commits when fn returns nil and rolls back otherwise
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx SettlementTx) error) error
}

// SettlementTx is the set of row-locking operations available inside a settlement transaction.
// Callers must lock the booking before the provider.
type SettlementTx interface {
	// LockBooking locks and returns the active booking for key, else the most recent one
	LockBooking(ctx context.Context, key BookingKey) (*entities.Booking, error)

	// LockProvider locks and returns the provider row
	LockProvider(ctx context.Context, providerID string) (*entities.Provider, error)

	// SaveBooking persists status, next visit date and commission, advancing the version
	SaveBooking(ctx context.Context, booking *entities.Booking) error

	// SaveLedger persists the provider's ledger, advancing the version
	SaveLedger(ctx context.Context, provider *entities.Provider) error
}

// DashboardRepository computes read-side aggregates
type DashboardRepository interface {
	Counts(ctx context.Context) (*entities.DashboardCounts, error)

	// RevenueTotals returns sum(admin_revenue) and sum(fee_balance) over providers with PENDING status
	RevenueTotals(ctx context.Context) (totalRevenue, pendingRevenue float64, err error)
}
