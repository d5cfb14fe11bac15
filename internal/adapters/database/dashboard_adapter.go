package database

import (
	"context"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
	"github.com/doug-martin/goqu/v9"
)

// DashboardAdapter implements the DashboardRepository interface
type DashboardAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDashboardAdapter creates a new dashboard adapter
func NewDashboardAdapter(client *postgres.Client) repositories.DashboardRepository {
	return &DashboardAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

type groupCount struct {
	Key   string `db:"key"`
	Count int64  `db:"n"`
}

// Counts returns entity counts grouped by provider type and booking status
func (a *DashboardAdapter) Counts(ctx context.Context) (*entities.DashboardCounts, error) {
	counts := &entities.DashboardCounts{}

	if err := a.scalar(ctx, a.db.From("patients").Select(goqu.COUNT("*")), &counts.Patients); err != nil {
		return nil, err
	}
	if err := a.scalar(ctx,
		a.db.From("providers").Select(goqu.COUNT("*")).Where(goqu.Ex{"service_stop": true}),
		&counts.SuspendedProviders); err != nil {
		return nil, err
	}

	providers, err := a.grouped(ctx, "providers", "provider_type")
	if err != nil {
		return nil, err
	}
	for _, g := range providers {
		switch entities.ProviderType(g.Key) {
		case entities.ProviderTypeOrganizer:
			counts.Organizers = g.Count
		case entities.ProviderTypeVisitDoctor:
			counts.VisitDoctors = g.Count
		case entities.ProviderTypeLab:
			counts.Labs = g.Count
		case entities.ProviderTypeHospital:
			counts.Hospitals = g.Count
		}
	}

	bookings, err := a.grouped(ctx, "bookings", "status")
	if err != nil {
		return nil, err
	}
	for _, g := range bookings {
		counts.Bookings += g.Count
		switch entities.BookingStatus(g.Key) {
		case entities.BookingStatusPending:
			counts.PendingBookings = g.Count
		case entities.BookingStatusBooked:
			counts.BookedBookings = g.Count
		case entities.BookingStatusCompleted:
			counts.CompletedBookings = g.Count
		case entities.BookingStatusCancelled:
			counts.CancelledBookings = g.Count
		}
	}

	return counts, nil
}

// RevenueTotals sums accrued commission and the balances still pending payment
func (a *DashboardAdapter) RevenueTotals(ctx context.Context) (float64, float64, error) {
	var total, pending float64

	if err := a.scalar(ctx,
		a.db.From("providers").Select(goqu.COALESCE(goqu.SUM("admin_revenue"), 0)),
		&total); err != nil {
		return 0, 0, err
	}
	if err := a.scalar(ctx,
		a.db.From("providers").
			Select(goqu.COALESCE(goqu.SUM("fee_balance"), 0)).
			Where(goqu.Ex{"paid_status": string(entities.PaidStatusPending)}),
		&pending); err != nil {
		return 0, 0, err
	}

	return total, pending, nil
}

func (a *DashboardAdapter) scalar(ctx context.Context, ds *goqu.SelectDataset, dest interface{}) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build aggregate query", err)
	}
	if err := a.client.DBx().GetContext(ctx, dest, query, args...); err != nil {
		return mapDBError(err, "failed to compute dashboard aggregate")
	}
	return nil
}

func (a *DashboardAdapter) grouped(ctx context.Context, table, column string) ([]groupCount, error) {
	query, args, err := a.db.From(table).
		Select(goqu.C(column).As("key"), goqu.COUNT("*").As("n")).
		GroupBy(column).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build aggregate query", err)
	}

	var rows []groupCount
	if err := a.client.DBx().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapDBError(err, "failed to compute dashboard aggregate")
	}
	return rows, nil
}
