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
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"
)

var patientColumns = []interface{}{"id", "name", "phone", "city", "created_at", "updated_at"}

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts the patient row and its phone registry row together
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	now := time.Now()
	patient.CreatedAt, patient.UpdatedAt = now, now

	query, args, err := a.db.Insert("patients").Rows(goqu.Record{
		"id":         patient.ID,
		"name":       patient.Name,
		"phone":      patient.Phone,
		"city":       patient.City,
		"created_at": patient.CreatedAt,
		"updated_at": patient.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	err = a.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := registerPhone(ctx, a.db, tx, &entities.PhoneRecord{
			Phone:      patient.Phone,
			IdentityID: patient.ID,
			Role:       entities.RolePatient,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
	return mapDBError(err, "failed to create patient")
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).From("patients").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient := &entities.Patient{}
	if err := a.client.DBx().GetContext(ctx, patient, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
		}
		return nil, mapDBError(err, "failed to get patient")
	}
	return patient, nil
}

// PhoneRegistryAdapter implements the PhoneRegistry interface
type PhoneRegistryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPhoneRegistryAdapter creates a new phone registry adapter
func NewPhoneRegistryAdapter(client *postgres.Client) repositories.PhoneRegistry {
	return &PhoneRegistryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Lookup returns the registry row for phone
func (a *PhoneRegistryAdapter) Lookup(ctx context.Context, phone string) (*entities.PhoneRecord, error) {
	query, args, err := a.db.Select("phone", "identity_id", "role", "owner_id", "created_at").
		From("phone_registry").
		Where(goqu.Ex{"phone": phone}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	record := &entities.PhoneRecord{}
	if err := a.client.DBx().GetContext(ctx, record, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("phone number not registered")
		}
		return nil, mapDBError(err, "failed to look up phone number")
	}
	return record, nil
}

// registerPhone claims a phone number inside tx; the primary key turns a duplicate into CONFLICT
func registerPhone(ctx context.Context, db *goqu.Database, tx *sqlx.Tx, record *entities.PhoneRecord) error {
	query, args, err := db.Insert("phone_registry").Rows(goqu.Record{
		"phone":       record.Phone,
		"identity_id": record.IdentityID,
		"role":        string(record.Role),
		"owner_id":    record.OwnerID,
		"created_at":  record.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build phone insert", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapDBError(err, "failed to register phone number")
	}
	return nil
}

// releasePhones frees the phone numbers held by the given identities
func releasePhones(ctx context.Context, db *goqu.Database, tx *sqlx.Tx, identityIDs []string) error {
	if len(identityIDs) == 0 {
		return nil
	}
	query, args, err := db.Delete("phone_registry").Where(goqu.Ex{"identity_id": identityIDs}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build phone delete", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapDBError(err, "failed to release phone numbers")
	}
	return nil
}
