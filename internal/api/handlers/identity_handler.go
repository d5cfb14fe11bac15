package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/application/services"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
)

const signupTokenTTL = 30 * 24 * time.Hour

// IdentityService defines the signup and lookup operations used by the handler
type IdentityService interface {
	RegisterPatient(ctx context.Context, in services.PatientSignup) (*entities.Patient, error)
	RegisterProvider(ctx context.Context, in services.ProviderSignup) (*entities.Provider, error)
	CheckMobile(ctx context.Context, phone string) (*services.MobileStatus, error)
	GetPatient(ctx context.Context, id string) (*entities.Patient, error)
	GetProvider(ctx context.Context, id string) (*entities.Provider, error)
}

// TokenIssuer mints bearer tokens for freshly registered identities
type TokenIssuer interface {
	IssueToken(id string, role entities.Role, ttl time.Duration) (string, error)
}

// IdentityHandler handles signup and identity lookups
type IdentityHandler struct {
	service IdentityService
	tokens  TokenIssuer
}

// NewIdentityHandler creates a new identity handler. tokens may be nil.
func NewIdentityHandler(service IdentityService, tokens TokenIssuer) *IdentityHandler {
	return &IdentityHandler{service: service, tokens: tokens}
}

// RegisterPatient handles POST /api/patients
func (h *IdentityHandler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var in services.PatientSignup
	if !decodeJSON(w, r, &in) {
		return
	}

	patient, err := h.service.RegisterPatient(r.Context(), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"patient": patient,
		"token":   h.issue(r, patient.ID, entities.RolePatient),
	})
}

// RegisterProvider handles POST /api/providers
func (h *IdentityHandler) RegisterProvider(w http.ResponseWriter, r *http.Request) {
	var in services.ProviderSignup
	if !decodeJSON(w, r, &in) {
		return
	}

	provider, err := h.service.RegisterProvider(r.Context(), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"provider": provider,
		"token":    h.issue(r, provider.ID, provider.Type.Role()),
	})
}

// CheckMobile handles GET /api/identities/check?phone=
func (h *IdentityHandler) CheckMobile(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		respondWithError(w, http.StatusBadRequest, "phone is required")
		return
	}

	status, err := h.service.CheckMobile(r.Context(), phone)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// GetPatient handles GET /api/patients/{id}
func (h *IdentityHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !requireSelfOrAdmin(w, r, id) {
		return
	}

	patient, err := h.service.GetPatient(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, patient)
}

// GetProvider handles GET /api/providers/{id}
func (h *IdentityHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !requireSelfOrAdmin(w, r, id) {
		return
	}

	provider, err := h.service.GetProvider(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, provider)
}

// issue returns an empty token when no issuer is configured or signing fails
func (h *IdentityHandler) issue(r *http.Request, id string, role entities.Role) string {
	if h.tokens == nil {
		return ""
	}
	token, err := h.tokens.IssueToken(id, role, signupTokenTTL)
	if err != nil {
		respondLog(r).Warn().Err(err).Str("identity_id", id).Msg("failed to issue token")
		return ""
	}
	return token
}
