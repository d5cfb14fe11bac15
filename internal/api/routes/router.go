package routes

import (
	"net/http"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/handlers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/loaders"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/middleware"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	identityHandler *handlers.IdentityHandler
	offeringHandler *handlers.OfferingHandler
	bookingHandler  *handlers.BookingHandler
	adminHandler    *handlers.AdminHandler

	auth            *middleware.Authenticator
	cacheMiddleware *middleware.CacheMiddleware
	providerRepo    repositories.ProviderRepository
	metrics         *observability.Metrics
	allowedOrigins  []string
}

// NewRouter creates a new router
func NewRouter(
	identityHandler *handlers.IdentityHandler,
	offeringHandler *handlers.OfferingHandler,
	bookingHandler *handlers.BookingHandler,
	adminHandler *handlers.AdminHandler,
	auth *middleware.Authenticator,
	cacheMiddleware *middleware.CacheMiddleware,
	providerRepo repositories.ProviderRepository,
	metrics *observability.Metrics,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		identityHandler: identityHandler,
		offeringHandler: offeringHandler,
		bookingHandler:  bookingHandler,
		adminHandler:    adminHandler,
		auth:            auth,
		cacheMiddleware: cacheMiddleware,
		providerRepo:    providerRepo,
		metrics:         metrics,
		allowedOrigins:  allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	authed := r.auth.Require
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return r.auth.RequireRole(entities.RoleAdmin, h)
	}

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Identity endpoints
	r.mux.HandleFunc("POST /api/patients", r.identityHandler.RegisterPatient)
	r.mux.HandleFunc("POST /api/providers", r.identityHandler.RegisterProvider)
	r.mux.HandleFunc("GET /api/identities/check", r.identityHandler.CheckMobile)
	r.mux.HandleFunc("GET /api/patients/{id}", authed(r.identityHandler.GetPatient))
	r.mux.HandleFunc("GET /api/providers/{id}", authed(r.identityHandler.GetProvider))

	// Offering endpoints
	r.mux.HandleFunc("GET /api/offerings/search", r.offeringHandler.SearchOfferings)
	r.mux.HandleFunc("POST /api/organizers/{id}/events", authed(r.offeringHandler.CreateEvent))
	r.mux.HandleFunc("GET /api/organizers/{id}/events", r.offeringHandler.ListEvents)
	r.mux.HandleFunc("POST /api/events/{id}/members", authed(r.offeringHandler.AddEventMember))
	r.mux.HandleFunc("DELETE /api/events/{id}/members/{memberId}", authed(r.offeringHandler.RemoveEventMember))
	r.mux.HandleFunc("POST /api/visit-doctors/{id}/slots", authed(r.offeringHandler.CreateVisitSlot))
	r.mux.HandleFunc("POST /api/slots/{id}/members", authed(r.offeringHandler.AddSlotMember))
	r.mux.HandleFunc("GET /api/providers/{id}/services", r.offeringHandler.ListServices)
	r.mux.HandleFunc("POST /api/providers/{id}/services", authed(r.offeringHandler.AddService))
	r.mux.HandleFunc("DELETE /api/providers/{id}/services/{serviceId}", authed(r.offeringHandler.RemoveService))
	r.mux.HandleFunc("POST /api/providers/{id}/members", authed(r.offeringHandler.AddProviderMember))
	r.mux.HandleFunc("DELETE /api/providers/{id}/members/{memberId}", authed(r.offeringHandler.RemoveProviderMember))

	// Booking endpoints
	r.mux.HandleFunc("POST /api/bookings", authed(r.bookingHandler.CreateBooking))
	r.mux.HandleFunc("GET /api/bookings/{id}", authed(r.bookingHandler.GetBooking))
	r.mux.HandleFunc("GET /api/patients/{id}/bookings", authed(r.bookingHandler.ListPatientBookings))
	r.mux.HandleFunc("PATCH /api/providers/{providerId}/bookings/{serviceId}/patients/{patientId}", authed(r.bookingHandler.TransitionBooking))

	// Admin endpoints
	r.mux.HandleFunc("PATCH /api/admin/providers/{id}/revenue", admin(r.adminHandler.UpdateProviderRevenue))
	r.mux.HandleFunc("GET /api/admin/dashboard", admin(r.adminHandler.GetDashboard))
	r.mux.HandleFunc("GET /api/admin/sweeps", admin(r.adminHandler.ListSweeps))
	r.mux.HandleFunc("POST /api/admin/sweeps/{name}", admin(r.adminHandler.RunSweep))

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	if r.providerRepo != nil {
		handler = loaders.Middleware(r.providerRepo)(handler)
	}
	handler = middleware.LoggingMiddleware(handler)
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
