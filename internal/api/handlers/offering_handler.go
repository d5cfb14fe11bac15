package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/application/services"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
)

// OfferingService defines the offering operations used by the handler
type OfferingService interface {
	CreateEvent(ctx context.Context, organizerID string, in services.EventInput) (*entities.Event, error)
	ListEvents(ctx context.Context, organizerID string) ([]*entities.Event, error)
	AddEventMember(ctx context.Context, organizerID, eventID string, in services.MemberInput) (*entities.Member, error)
	RemoveEventMember(ctx context.Context, organizerID, eventID, memberID string) error
	CreateVisitSlot(ctx context.Context, providerID string, in services.VisitSlotInput) (*entities.VisitSlot, error)
	AddSlotMember(ctx context.Context, providerID, slotID string, in services.MemberInput) (*entities.Member, error)
	AddService(ctx context.Context, providerID string, in services.ServiceInput) (*entities.Service, error)
	ListServices(ctx context.Context, providerID string) ([]*entities.Service, error)
	RemoveService(ctx context.Context, providerID, serviceID string) error
	AddProviderMember(ctx context.Context, providerID string, in services.MemberInput) (*entities.Member, error)
	RemoveProviderMember(ctx context.Context, providerID, memberID string) error
	SearchOfferings(ctx context.Context, query providers.OfferingQuery) ([]*entities.OfferingDocument, error)
}

// OfferingHandler handles events, visit slots, services and their members
type OfferingHandler struct {
	service OfferingService
}

// NewOfferingHandler creates a new offering handler
func NewOfferingHandler(service OfferingService) *OfferingHandler {
	return &OfferingHandler{service: service}
}

// CreateEvent handles POST /api/organizers/{id}/events
func (h *OfferingHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	organizerID := r.PathValue("id")
	if !requireSelfOrAdmin(w, r, organizerID) {
		return
	}
	var in services.EventInput
	if !decodeJSON(w, r, &in) {
		return
	}

	event, err := h.service.CreateEvent(r.Context(), organizerID, in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /api/organizers/{id}/events
func (h *OfferingHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// AddEventMember handles POST /api/events/{id}/members
func (h *OfferingHandler) AddEventMember(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerScope(w, r)
	if !ok {
		return
	}
	var in services.MemberInput
	if !decodeJSON(w, r, &in) {
		return
	}

	member, err := h.service.AddEventMember(r.Context(), ownerID, r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, member)
}

// RemoveEventMember handles DELETE /api/events/{id}/members/{memberId}
func (h *OfferingHandler) RemoveEventMember(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerScope(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveEventMember(r.Context(), ownerID, r.PathValue("id"), r.PathValue("memberId")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateVisitSlot handles POST /api/visit-doctors/{id}/slots
func (h *OfferingHandler) CreateVisitSlot(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if !requireSelfOrAdmin(w, r, providerID) {
		return
	}
	var in services.VisitSlotInput
	if !decodeJSON(w, r, &in) {
		return
	}

	slot, err := h.service.CreateVisitSlot(r.Context(), providerID, in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, slot)
}

// AddSlotMember handles POST /api/slots/{id}/members
func (h *OfferingHandler) AddSlotMember(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerScope(w, r)
	if !ok {
		return
	}
	var in services.MemberInput
	if !decodeJSON(w, r, &in) {
		return
	}

	member, err := h.service.AddSlotMember(r.Context(), ownerID, r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, member)
}

// AddService handles POST /api/providers/{id}/services
func (h *OfferingHandler) AddService(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if !requireSelfOrAdmin(w, r, providerID) {
		return
	}
	var in services.ServiceInput
	if !decodeJSON(w, r, &in) {
		return
	}

	svc, err := h.service.AddService(r.Context(), providerID, in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, svc)
}

// ListServices handles GET /api/providers/{id}/services
func (h *OfferingHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListServices(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"services": list,
		"count":    len(list),
	})
}

// RemoveService handles DELETE /api/providers/{id}/services/{serviceId}
func (h *OfferingHandler) RemoveService(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if !requireSelfOrAdmin(w, r, providerID) {
		return
	}
	if err := h.service.RemoveService(r.Context(), providerID, r.PathValue("serviceId")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddProviderMember handles POST /api/providers/{id}/members
func (h *OfferingHandler) AddProviderMember(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if !requireSelfOrAdmin(w, r, providerID) {
		return
	}
	var in services.MemberInput
	if !decodeJSON(w, r, &in) {
		return
	}

	member, err := h.service.AddProviderMember(r.Context(), providerID, in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, member)
}

// RemoveProviderMember handles DELETE /api/providers/{id}/members/{memberId}
func (h *OfferingHandler) RemoveProviderMember(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if !requireSelfOrAdmin(w, r, providerID) {
		return
	}
	if err := h.service.RemoveProviderMember(r.Context(), providerID, r.PathValue("memberId")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchOfferings handles GET /api/offerings/search?q=&city=&kind=&limit=
func (h *OfferingHandler) SearchOfferings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := providers.OfferingQuery{
		Text: q.Get("q"),
		City: q.Get("city"),
		Kind: entities.OfferingKind(q.Get("kind")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		query.Limit = limit
	}
	switch query.Kind {
	case "", entities.OfferingKindEvent, entities.OfferingKindVisitSlot, entities.OfferingKindService:
	default:
		respondWithError(w, http.StatusBadRequest, "kind must be one of event, visit_slot, service")
		return
	}

	results, err := h.service.SearchOfferings(r.Context(), query)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"offerings": results,
		"count":     len(results),
	})
}
