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

var serviceColumns = []interface{}{"id", "provider_id", "name", "fee", "created_at"}

// ServiceAdapter implements the ServiceRepository interface
type ServiceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewServiceAdapter creates a new catalog service adapter
func NewServiceAdapter(client *postgres.Client) repositories.ServiceRepository {
	return &ServiceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new catalog entry
func (a *ServiceAdapter) Create(ctx context.Context, service *entities.Service) error {
	service.CreatedAt = time.Now()

	query, args, err := a.db.Insert("services").Rows(goqu.Record{
		"id":          service.ID,
		"provider_id": service.ProviderID,
		"name":        service.Name,
		"fee":         service.Fee,
		"created_at":  service.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return mapDBError(err, "failed to create service")
	}
	return nil
}

// GetByID retrieves a catalog entry by ID
func (a *ServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	query, args, err := a.db.Select(serviceColumns...).From("services").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	service := &entities.Service{}
	if err := a.client.DBx().GetContext(ctx, service, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
		}
		return nil, mapDBError(err, "failed to get service")
	}
	return service, nil
}

// ListByProvider retrieves a provider's catalog
func (a *ServiceAdapter) ListByProvider(ctx context.Context, providerID string) ([]*entities.Service, error) {
	query, args, err := a.db.Select(serviceColumns...).From("services").
		Where(goqu.Ex{"provider_id": providerID}).
		Order(goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var services []*entities.Service
	if err := a.client.DBx().SelectContext(ctx, &services, query, args...); err != nil {
		return nil, mapDBError(err, "failed to list services")
	}
	return services, nil
}

// Delete removes a catalog entry owned by providerID
func (a *ServiceAdapter) Delete(ctx context.Context, providerID, serviceID string) error {
	query, args, err := a.db.Delete("services").
		Where(goqu.Ex{"id": serviceID, "provider_id": providerID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return mapDBError(err, "failed to delete service")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", serviceID))
	}
	return nil
}
