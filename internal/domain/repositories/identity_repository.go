package repositories

import (
	"context"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
)

// PatientRepository defines the interface for patient data operations
type PatientRepository interface {
	// Create inserts the patient and registers its phone number in one transaction.
	// A phone already present anywhere yields a CONFLICT error and no row.
	Create(ctx context.Context, patient *entities.Patient) error

	// GetByID retrieves a patient by ID
	GetByID(ctx context.Context, id string) (*entities.Patient, error)
}

// PhoneRegistry is the flat, uniquely indexed phone namespace shared by every identity
type PhoneRegistry interface {
	// Lookup returns the owner of phone, or a NOT_FOUND error when it is free
	Lookup(ctx context.Context, phone string) (*entities.PhoneRecord, error)
}

// MemberRepository manages doctor and staff sub-identities
type MemberRepository interface {
	// Create inserts the member and its phone row atomically
	Create(ctx context.Context, member *entities.Member) error

	// Delete removes the member owned by ownerID and releases its phone number
	Delete(ctx context.Context, ownerID, memberID string) error

	// ListByParent lists members hanging off an event, visit slot or provider
	ListByParent(ctx context.Context, parentID string) ([]*entities.Member, error)
}
