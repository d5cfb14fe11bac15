package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/loaders"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/middleware"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
)

// BookingService defines the booking operations used by the handler
type BookingService interface {
	CreateBooking(ctx context.Context, patientID, providerID, serviceID string) (*entities.Booking, error)
	GetBooking(ctx context.Context, id string) (*entities.Booking, error)
	ListPatientBookings(ctx context.Context, patientID string, filter repositories.BookingFilter) ([]*entities.Booking, error)
}

// BookingTransitioner moves a booking through its status machine
type BookingTransitioner interface {
	TransitionBooking(ctx context.Context, providerID, serviceID, patientID string, update entities.BookingUpdate) (*entities.Booking, error)
}

// BookingHandler handles booking creation, history and status transitions
type BookingHandler struct {
	bookings   BookingService
	settlement BookingTransitioner
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings BookingService, settlement BookingTransitioner) *BookingHandler {
	return &BookingHandler{bookings: bookings, settlement: settlement}
}

type createBookingRequest struct {
	PatientID  string `json:"patient_id"`
	ProviderID string `json:"provider_id"`
	ServiceID  string `json:"service_id"`
}

// CreateBooking handles POST /api/bookings. Patients book for themselves; admins name the patient.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req createBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patientID := caller.ID
	if caller.IsAdmin() && req.PatientID != "" {
		patientID = req.PatientID
	} else if caller.Role != entities.RolePatient && !caller.IsAdmin() {
		respondWithError(w, http.StatusForbidden, "only patients can book")
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), patientID, req.ProviderID, req.ServiceID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, booking)
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	booking, err := h.bookings.GetBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if !caller.IsAdmin() && caller.ID != booking.PatientID && caller.ID != booking.ProviderID {
		respondWithError(w, http.StatusForbidden, "caller may not act on this resource")
		return
	}
	respondWithJSON(w, http.StatusOK, booking)
}

// ListPatientBookings handles GET /api/patients/{id}/bookings?status=&limit=&offset=
func (h *BookingHandler) ListPatientBookings(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if !requireSelfOrAdmin(w, r, patientID) {
		return
	}

	q := r.URL.Query()
	filter := repositories.BookingFilter{Status: entities.BookingStatus(q.Get("status"))}
	var err error
	if filter.Limit, err = intParam(q.Get("limit"), 0); err != nil {
		respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		respondWithError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	bookings, err := h.bookings.ListPatientBookings(r.Context(), patientID, filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	views := h.enrich(r.Context(), bookings)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": views,
		"count":    len(views),
	})
}

// TransitionBooking handles PATCH /api/providers/{providerId}/bookings/{serviceId}/patients/{patientId}
func (h *BookingHandler) TransitionBooking(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("providerId")
	if !requireSelfOrAdmin(w, r, providerID) {
		return
	}
	var update entities.BookingUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	booking, err := h.settlement.TransitionBooking(r.Context(), providerID, r.PathValue("serviceId"), r.PathValue("patientId"), update)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, booking)
}

// enrich attaches provider summaries through the request's batch loader.
// A provider that cannot be loaded leaves its summary blank.
func (h *BookingHandler) enrich(ctx context.Context, bookings []*entities.Booking) []entities.BookingView {
	views := make([]entities.BookingView, len(bookings))
	l := loaders.For(ctx)
	if l == nil {
		for i, b := range bookings {
			views[i] = entities.BookingView{Booking: b}
		}
		return views
	}

	thunks := make([]func() (*entities.Provider, error), len(bookings))
	for i, b := range bookings {
		thunks[i] = l.ProviderLoader.Load(ctx, b.ProviderID)
	}
	for i, b := range bookings {
		views[i] = entities.BookingView{Booking: b}
		p, err := thunks[i]()
		if err != nil {
			respondLogCtx(ctx).Debug().Err(err).Str("provider_id", b.ProviderID).Msg("provider summary unavailable")
			continue
		}
		views[i].ProviderName = p.Name
		views[i].ProviderCity = p.City
	}
	return views
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
