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

var visitSlotColumns = []interface{}{"id", "provider_id", "city", "doctor_fee", "start_time", "end_time", "created_at"}

// VisitSlotAdapter implements the VisitSlotRepository interface
type VisitSlotAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewVisitSlotAdapter creates a new visit slot adapter
func NewVisitSlotAdapter(client *postgres.Client) repositories.VisitSlotRepository {
	return &VisitSlotAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts the slot and any staff members in one transaction
func (a *VisitSlotAdapter) Create(ctx context.Context, slot *entities.VisitSlot) error {
	slot.CreatedAt = time.Now()

	query, args, err := a.db.Insert("visit_slots").Rows(goqu.Record{
		"id":          slot.ID,
		"provider_id": slot.ProviderID,
		"city":        slot.City,
		"doctor_fee":  slot.DoctorFee,
		"start_time":  slot.StartTime,
		"end_time":    slot.EndTime,
		"created_at":  slot.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	err = a.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		for _, m := range slot.Staff {
			m.ParentID = slot.ID
			m.OwnerID = slot.ProviderID
			if err := insertMember(ctx, a.db, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
	return mapDBError(err, "failed to create visit slot")
}

// GetByID retrieves a visit slot by ID
func (a *VisitSlotAdapter) GetByID(ctx context.Context, id string) (*entities.VisitSlot, error) {
	query, args, err := a.db.Select(visitSlotColumns...).From("visit_slots").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.getOne(ctx, query, args, fmt.Sprintf("visit slot with id %s not found", id))
}

// LatestByProvider returns the provider's slot with the latest end time
func (a *VisitSlotAdapter) LatestByProvider(ctx context.Context, providerID string) (*entities.VisitSlot, error) {
	query, args, err := a.db.Select(visitSlotColumns...).From("visit_slots").
		Where(goqu.Ex{"provider_id": providerID}).
		Order(goqu.C("end_time").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.getOne(ctx, query, args, fmt.Sprintf("no visit slots for provider %s", providerID))
}

func (a *VisitSlotAdapter) getOne(ctx context.Context, query string, args []interface{}, notFound string) (*entities.VisitSlot, error) {
	slot := &entities.VisitSlot{}
	if err := a.client.DBx().GetContext(ctx, slot, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(notFound)
		}
		return nil, mapDBError(err, "failed to get visit slot")
	}
	return slot, nil
}
