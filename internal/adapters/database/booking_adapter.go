package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
	"github.com/doug-martin/goqu/v9"
)

var bookingColumns = []interface{}{
	"id", "patient_id", "provider_id", "provider_type", "service_id", "status",
	"booking_date", "next_visit_date", "commission", "version", "created_at", "updated_at",
}

// BookingAdapter implements the BookingRepository interface
type BookingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBookingAdapter creates a new booking adapter
func NewBookingAdapter(client *postgres.Client) repositories.BookingRepository {
	return &BookingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new booking
func (a *BookingAdapter) Create(ctx context.Context, booking *entities.Booking) error {
	now := time.Now()
	booking.CreatedAt, booking.UpdatedAt = now, now
	booking.Version = 1

	query, args, err := a.db.Insert("bookings").Rows(goqu.Record{
		"id":              booking.ID,
		"patient_id":      booking.PatientID,
		"provider_id":     booking.ProviderID,
		"provider_type":   string(booking.ProviderType),
		"service_id":      booking.ServiceID,
		"status":          string(booking.Status),
		"booking_date":    booking.BookingDate,
		"next_visit_date": booking.NextVisitDate,
		"commission":      booking.Commission,
		"version":         booking.Version,
		"created_at":      booking.CreatedAt,
		"updated_at":      booking.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return mapDBError(err, "failed to create booking")
	}
	return nil
}

// GetByID retrieves a booking by ID
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	query, args, err := a.db.Select(bookingColumns...).From("bookings").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	booking := &entities.Booking{}
	if err := a.client.DBx().GetContext(ctx, booking, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
		}
		return nil, mapDBError(err, "failed to get booking")
	}
	return booking, nil
}

// ListByPatient retrieves a patient's bookings, newest first
func (a *BookingAdapter) ListByPatient(ctx context.Context, patientID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	ds := a.db.Select(bookingColumns...).From("bookings").Where(goqu.Ex{"patient_id": patientID})
	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(filter.Status)})
	}
	ds = ds.Order(goqu.C("created_at").Desc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var bookings []*entities.Booking
	if err := a.client.DBx().SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, mapDBError(err, "failed to list bookings")
	}
	return bookings, nil
}

// CountOpenByOffering counts pending or booked bookings of one provider offering
func (a *BookingAdapter) CountOpenByOffering(ctx context.Context, providerID, offeringID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).From("bookings").
		Where(goqu.Ex{
			"provider_id": providerID,
			"service_id":  offeringID,
			"status":      []string{string(entities.BookingStatusPending), string(entities.BookingStatusBooked)},
		}).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DBx().GetContext(ctx, &count, query, args...); err != nil {
		return 0, mapDBError(err, "failed to count open bookings")
	}
	return count, nil
}
