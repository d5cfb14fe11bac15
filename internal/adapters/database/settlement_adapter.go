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
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
)

// SettlementAdapter implements SettlementStore on a Postgres transaction.
// Rows are locked with SELECT ... FOR UPDATE, booking first and provider second.
type SettlementAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSettlementAdapter creates a new settlement adapter
func NewSettlementAdapter(client *postgres.Client) repositories.SettlementStore {
	return &SettlementAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// WithinTx runs fn inside one database transaction
func (a *SettlementAdapter) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.SettlementTx) error) error {
	err := a.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(ctx, &settlementTx{tx: tx, db: a.db})
	})
	if err == nil || errors.Is(err, repositories.ErrStaleVersion) {
		return err
	}
	return mapDBError(err, "settlement transaction failed")
}

type settlementTx struct {
	tx *sqlx.Tx
	db *goqu.Database
}

// LockBooking locks every booking for the key and returns the active one, else the newest
func (s *settlementTx) LockBooking(ctx context.Context, key repositories.BookingKey) (*entities.Booking, error) {
	query, args, err := s.db.Select(bookingColumns...).From("bookings").
		Where(goqu.Ex{
			"patient_id":  key.PatientID,
			"provider_id": key.ProviderID,
			"service_id":  key.ServiceID,
		}).
		Order(goqu.C("created_at").Desc()).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var bookings []*entities.Booking
	if err := s.tx.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, mapDBError(err, "failed to lock booking")
	}
	if len(bookings) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf(
			"no booking for patient %s with provider %s and service %s", key.PatientID, key.ProviderID, key.ServiceID))
	}

	for _, b := range bookings {
		if b.Status.Active() {
			return b, nil
		}
	}
	return bookings[0], nil
}

// LockProvider locks and returns the provider row
func (s *settlementTx) LockProvider(ctx context.Context, providerID string) (*entities.Provider, error) {
	query, args, err := s.db.Select(providerColumns...).From("providers").
		Where(goqu.Ex{"id": providerID}).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	provider := &entities.Provider{}
	if err := s.tx.GetContext(ctx, provider, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", providerID))
		}
		return nil, mapDBError(err, "failed to lock provider")
	}
	return provider, nil
}

// SaveBooking persists the mutable booking fields
func (s *settlementTx) SaveBooking(ctx context.Context, booking *entities.Booking) error {
	now := time.Now()
	query, args, err := s.db.Update("bookings").
		Set(goqu.Record{
			"status":          string(booking.Status),
			"next_visit_date": booking.NextVisitDate,
			"commission":      booking.Commission,
			"version":         goqu.L("version + 1"),
			"updated_at":      now,
		}).
		Where(goqu.Ex{"id": booking.ID, "version": booking.Version}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := s.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapDBError(err, "failed to save booking")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rows == 0 {
		return repositories.ErrStaleVersion
	}

	booking.Version++
	booking.UpdatedAt = now
	return nil
}

// SaveLedger persists the provider ledger
func (s *settlementTx) SaveLedger(ctx context.Context, provider *entities.Provider) error {
	return saveLedger(ctx, s.db, s.tx, provider)
}
