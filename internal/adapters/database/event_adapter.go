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

var eventColumns = []interface{}{
	"id", "organizer_id", "name", "city", "venue", "start_time", "end_time", "entry_fee", "created_at",
}

// EventAdapter implements the EventRepository interface
type EventAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewEventAdapter creates a new event adapter
func NewEventAdapter(client *postgres.Client) repositories.EventRepository {
	return &EventAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create claims the organizer's event slot, then inserts the event and its members.
// event.CreatedAt is the instant the rate window is measured from.
func (a *EventAdapter) Create(ctx context.Context, event *entities.Event, window time.Duration) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	now := event.CreatedAt

	claim, claimArgs, err := a.db.Update("providers").
		Set(goqu.Record{"last_event_at": now, "updated_at": now}).
		Where(
			goqu.Ex{"id": event.OrganizerID, "provider_type": string(entities.ProviderTypeOrganizer)},
			goqu.Or(
				goqu.C("last_event_at").IsNull(),
				goqu.C("last_event_at").Lte(now.Add(-window)),
			),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build claim query", err)
	}

	insert, insertArgs, err := a.db.Insert("events").Rows(goqu.Record{
		"id":           event.ID,
		"organizer_id": event.OrganizerID,
		"name":         event.Name,
		"city":         event.City,
		"venue":        event.Venue,
		"start_time":   event.StartTime,
		"end_time":     event.EndTime,
		"entry_fee":    event.EntryFee,
		"created_at":   event.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	err = a.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, claim, claimArgs...)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return a.claimFailure(ctx, tx, event.OrganizerID, window)
		}

		if _, err := tx.ExecContext(ctx, insert, insertArgs...); err != nil {
			return err
		}
		for _, m := range event.Members() {
			m.ParentID = event.ID
			m.OwnerID = event.OrganizerID
			if err := insertMember(ctx, a.db, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
	return mapDBError(err, "failed to create event")
}

// claimFailure tells a missing organizer apart from a rate-limited one
func (a *EventAdapter) claimFailure(ctx context.Context, tx *sqlx.Tx, organizerID string, window time.Duration) error {
	query, args, err := a.db.Select(goqu.COUNT("*")).From("providers").
		Where(goqu.Ex{"id": organizerID, "provider_type": string(entities.ProviderTypeOrganizer)}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build query", err)
	}

	var n int
	if err := tx.GetContext(ctx, &n, query, args...); err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("organizer with id %s not found", organizerID))
	}
	return apperrors.NewValidationError(fmt.Sprintf("only 1 event per %s", formatWindow(window)))
}

// GetByID retrieves an event with its doctors and staff
func (a *EventAdapter) GetByID(ctx context.Context, id string) (*entities.Event, error) {
	query, args, err := a.db.Select(eventColumns...).From("events").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	event := &entities.Event{}
	if err := a.client.DBx().GetContext(ctx, event, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("event with id %s not found", id))
		}
		return nil, mapDBError(err, "failed to get event")
	}

	membersQuery, membersArgs, err := a.db.Select(memberColumns...).From("members").
		Where(goqu.Ex{"parent_id": id}).
		Order(goqu.C("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var members []*entities.Member
	if err := a.client.DBx().SelectContext(ctx, &members, membersQuery, membersArgs...); err != nil {
		return nil, mapDBError(err, "failed to load event members")
	}
	for _, m := range members {
		if m.Role == entities.RoleDoctor {
			event.Doctors = append(event.Doctors, m)
		} else {
			event.Staff = append(event.Staff, m)
		}
	}
	return event, nil
}

// ListByOrganizer retrieves an organizer's events ordered by start time
func (a *EventAdapter) ListByOrganizer(ctx context.Context, organizerID string) ([]*entities.Event, error) {
	query, args, err := a.db.Select(eventColumns...).From("events").
		Where(goqu.Ex{"organizer_id": organizerID}).
		Order(goqu.C("start_time").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var events []*entities.Event
	if err := a.client.DBx().SelectContext(ctx, &events, query, args...); err != nil {
		return nil, mapDBError(err, "failed to list events")
	}
	return events, nil
}

// DeleteExpired removes ended events with their members and phone rows in one transaction
func (a *EventAdapter) DeleteExpired(ctx context.Context, organizerID string, now time.Time) ([]string, error) {
	query, args, err := a.db.Delete("events").
		Where(goqu.Ex{"organizer_id": organizerID}, goqu.C("end_time").Lte(now)).
		Returning("id").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build delete query", err)
	}

	var removed []string
	err = a.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &removed, query, args...); err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}

		membersQuery, membersArgs, err := a.db.Delete("members").
			Where(goqu.Ex{"parent_id": removed}).
			Returning("id").
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build member delete", err)
		}
		var memberIDs []string
		if err := tx.SelectContext(ctx, &memberIDs, membersQuery, membersArgs...); err != nil {
			return err
		}
		return releasePhones(ctx, a.db, tx, memberIDs)
	})
	if err != nil {
		return nil, mapDBError(err, "failed to delete expired events")
	}
	return removed, nil
}

func formatWindow(window time.Duration) string {
	if window%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(window/time.Hour))
	}
	return window.String()
}
