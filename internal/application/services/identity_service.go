package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
	"github.com/Satyam1013/Free-Health-Camp-sub000/pkg/utils"
)

// IdentityService handles signup and phone-number ownership
type IdentityService struct {
	patients  repositories.PatientRepository
	providers repositories.ProviderRepository
	registry  repositories.PhoneRegistry
	phones    utils.PhoneNormalizer
}

// NewIdentityService creates a new identity service
func NewIdentityService(
	patients repositories.PatientRepository,
	providers repositories.ProviderRepository,
	registry repositories.PhoneRegistry,
) *IdentityService {
	return &IdentityService{
		patients:  patients,
		providers: providers,
		registry:  registry,
	}
}

// SetPhoneNormalizer overrides how phone numbers are keyed
func (s *IdentityService) SetPhoneNormalizer(n utils.PhoneNormalizer) {
	s.phones = n
}

// PatientSignup is the input for RegisterPatient
type PatientSignup struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	City  string `json:"city"`
}

// ProviderSignup is the input for RegisterProvider
type ProviderSignup struct {
	Type  entities.ProviderType `json:"type"`
	Name  string                `json:"name"`
	Phone string                `json:"phone"`
	City  string                `json:"city"`
}

// MobileStatus is the result of CheckMobile
type MobileStatus struct {
	Phone     string        `json:"phone"`
	Available bool          `json:"available"`
	Role      entities.Role `json:"role,omitempty"`
}

// RegisterPatient creates a patient. The phone number is claimed in the same write.
func (s *IdentityService) RegisterPatient(ctx context.Context, in PatientSignup) (*entities.Patient, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	phone, err := normalizePhone(s.phones, in.Phone)
	if err != nil {
		return nil, err
	}

	patient := &entities.Patient{
		ID:    uuid.New().String(),
		Name:  name,
		Phone: phone,
		City:  strings.TrimSpace(in.City),
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().Str("patient_id", patient.ID).Msg("patient registered")
	return patient, nil
}

// RegisterProvider creates an organizer, visit doctor, lab or hospital with an empty ledger
func (s *IdentityService) RegisterProvider(ctx context.Context, in ProviderSignup) (*entities.Provider, error) {
	if !in.Type.Valid() {
		return nil, apperrors.NewValidationError("type must be one of organizer, visit_doctor, lab, hospital")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	phone, err := normalizePhone(s.phones, in.Phone)
	if err != nil {
		return nil, err
	}

	provider := &entities.Provider{
		ID:     uuid.New().String(),
		Type:   in.Type,
		Name:   name,
		Phone:  phone,
		City:   strings.TrimSpace(in.City),
		Ledger: entities.Ledger{PaidStatus: entities.PaidStatusPending},
	}
	if err := s.providers.Create(ctx, provider); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("provider_id", provider.ID).
		Str("provider_type", string(provider.Type)).
		Msg("provider registered")
	return provider, nil
}

// CheckMobile reports whether phone is free. It is advisory only; the
// registering write is what actually claims the number.
func (s *IdentityService) CheckMobile(ctx context.Context, phone string) (*MobileStatus, error) {
	normalized, err := normalizePhone(s.phones, phone)
	if err != nil {
		return nil, err
	}

	record, err := s.registry.Lookup(ctx, normalized)
	if apperrors.IsNotFound(err) {
		return &MobileStatus{Phone: normalized, Available: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &MobileStatus{Phone: normalized, Available: false, Role: record.Role}, nil
}

// GetPatient retrieves a patient by ID
func (s *IdentityService) GetPatient(ctx context.Context, id string) (*entities.Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// GetProvider retrieves a provider by ID
func (s *IdentityService) GetProvider(ctx context.Context, id string) (*entities.Provider, error) {
	return s.providers.GetByID(ctx, id)
}

func normalizePhone(n utils.PhoneNormalizer, raw string) (string, error) {
	phone, err := n.Normalize(raw)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}
	return phone, nil
}
