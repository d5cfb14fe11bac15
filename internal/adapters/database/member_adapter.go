package database

import (
	"context"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

var memberColumns = []interface{}{"id", "owner_id", "parent_id", "role", "name", "phone", "created_at"}

// MemberAdapter implements the MemberRepository interface
type MemberAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMemberAdapter creates a new member adapter
func NewMemberAdapter(client *postgres.Client) repositories.MemberRepository {
	return &MemberAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts the member and its phone row in one transaction
func (a *MemberAdapter) Create(ctx context.Context, member *entities.Member) error {
	err := a.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		return insertMember(ctx, a.db, tx, member)
	})
	return mapDBError(err, "failed to create member")
}

// Delete removes the member and releases its phone number
func (a *MemberAdapter) Delete(ctx context.Context, ownerID, memberID string) error {
	query, args, err := a.db.Delete("members").
		Where(goqu.Ex{"id": memberID, "owner_id": ownerID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	err = a.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperrors.NewNotFoundError("member not found")
		}
		return releasePhones(ctx, a.db, tx, []string{memberID})
	})
	return mapDBError(err, "failed to delete member")
}

// ListByParent lists the members of an event, visit slot or provider
func (a *MemberAdapter) ListByParent(ctx context.Context, parentID string) ([]*entities.Member, error) {
	query, args, err := a.db.Select(memberColumns...).
		From("members").
		Where(goqu.Ex{"parent_id": parentID}).
		Order(goqu.C("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var members []*entities.Member
	if err := a.client.DBx().SelectContext(ctx, &members, query, args...); err != nil {
		return nil, mapDBError(err, "failed to list members")
	}
	return members, nil
}

func insertMember(ctx context.Context, db *goqu.Database, tx *sqlx.Tx, member *entities.Member) error {
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now()
	}

	if err := registerPhone(ctx, db, tx, &entities.PhoneRecord{
		Phone:      member.Phone,
		IdentityID: member.ID,
		Role:       member.Role,
		OwnerID:    member.OwnerID,
		CreatedAt:  member.CreatedAt,
	}); err != nil {
		return err
	}

	query, args, err := db.Insert("members").Rows(goqu.Record{
		"id":         member.ID,
		"owner_id":   member.OwnerID,
		"parent_id":  member.ParentID,
		"role":       string(member.Role),
		"name":       member.Name,
		"phone":      member.Phone,
		"created_at": member.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build member insert", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapDBError(err, "failed to insert member")
	}
	return nil
}
