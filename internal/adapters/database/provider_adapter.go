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
	"github.com/jmoiron/sqlx"
)

var providerColumns = []interface{}{
	"id", "provider_type", "name", "phone", "city",
	"admin_revenue", "fee_balance", "paid_status", "service_stop",
	"last_event_at", "version", "created_at", "updated_at",
}

// ProviderAdapter implements the ProviderRepository interface
type ProviderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) repositories.ProviderRepository {
	return &ProviderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts the provider with a fresh ledger and claims its phone number
func (a *ProviderAdapter) Create(ctx context.Context, provider *entities.Provider) error {
	now := time.Now()
	provider.CreatedAt, provider.UpdatedAt = now, now
	if provider.PaidStatus == "" {
		provider.PaidStatus = entities.PaidStatusPending
	}
	provider.Version = 1

	query, args, err := a.db.Insert("providers").Rows(goqu.Record{
		"id":            provider.ID,
		"provider_type": string(provider.Type),
		"name":          provider.Name,
		"phone":         provider.Phone,
		"city":          provider.City,
		"admin_revenue": provider.AdminRevenue,
		"fee_balance":   provider.FeeBalance,
		"paid_status":   string(provider.PaidStatus),
		"service_stop":  provider.ServiceStop,
		"version":       provider.Version,
		"created_at":    provider.CreatedAt,
		"updated_at":    provider.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	err = a.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := registerPhone(ctx, a.db, tx, &entities.PhoneRecord{
			Phone:      provider.Phone,
			IdentityID: provider.ID,
			Role:       provider.Type.Role(),
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
	return mapDBError(err, "failed to create provider")
}

// GetByID retrieves a provider by ID
func (a *ProviderAdapter) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	query, args, err := a.db.Select(providerColumns...).From("providers").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	provider := &entities.Provider{}
	if err := a.client.DBx().GetContext(ctx, provider, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
		}
		return nil, mapDBError(err, "failed to get provider")
	}
	return provider, nil
}

// GetByIDs retrieves providers in bulk
func (a *ProviderAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error) {
	if len(ids) == 0 {
		return []*entities.Provider{}, nil
	}

	query, args, err := a.db.Select(providerColumns...).From("providers").Where(goqu.Ex{"id": ids}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var providers []*entities.Provider
	if err := a.client.DBx().SelectContext(ctx, &providers, query, args...); err != nil {
		return nil, mapDBError(err, "failed to get providers")
	}
	return providers, nil
}

// List retrieves providers matching the filter, oldest first
func (a *ProviderAdapter) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	ds := a.db.Select(providerColumns...).From("providers")

	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		ds = ds.Where(goqu.Ex{"provider_type": types})
	}
	if filter.PaidStatus != "" {
		ds = ds.Where(goqu.Ex{"paid_status": string(filter.PaidStatus)})
	}
	if filter.Suspended != nil {
		ds = ds.Where(goqu.Ex{"service_stop": *filter.Suspended})
	}
	if filter.PositiveBalance {
		ds = ds.Where(goqu.C("fee_balance").Gt(0))
	}

	ds = ds.Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())
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

	var providers []*entities.Provider
	if err := a.client.DBx().SelectContext(ctx, &providers, query, args...); err != nil {
		return nil, mapDBError(err, "failed to list providers")
	}
	return providers, nil
}

// UpdateLedger writes the ledger with a compare-and-swap on version
func (a *ProviderAdapter) UpdateLedger(ctx context.Context, provider *entities.Provider) error {
	return saveLedger(ctx, a.db, a.client.DBx(), provider)
}

func saveLedger(ctx context.Context, db *goqu.Database, exec sqlx.ExecerContext, provider *entities.Provider) error {
	now := time.Now()
	query, args, err := db.Update("providers").
		Set(goqu.Record{
			"admin_revenue": provider.AdminRevenue,
			"fee_balance":   provider.FeeBalance,
			"paid_status":   string(provider.PaidStatus),
			"service_stop":  provider.ServiceStop,
			"version":       goqu.L("version + 1"),
			"updated_at":    now,
		}).
		Where(goqu.Ex{"id": provider.ID, "version": provider.Version}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return mapDBError(err, "failed to update provider ledger")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rows == 0 {
		return repositories.ErrStaleVersion
	}

	provider.Version++
	provider.UpdatedAt = now
	return nil
}
