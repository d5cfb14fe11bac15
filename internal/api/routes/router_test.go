package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/handlers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/middleware"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
)

func newTestRouter(auth *middleware.Authenticator) http.Handler {
	return NewRouter(
		handlers.NewIdentityHandler(nil, auth),
		handlers.NewOfferingHandler(nil),
		handlers.NewBookingHandler(nil, nil),
		handlers.NewAdminHandler(nil, nil, nil),
		auth, nil, nil, nil, []string{"*"},
	).SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(middleware.NewAuthenticator("secret"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_AdminRoutesRequireAdmin(t *testing.T) {
	auth := middleware.NewAuthenticator("secret")
	h := newTestRouter(auth)

	patientToken, err := auth.IssueToken("pat-1", entities.RolePatient, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"patient token", "Bearer " + patientToken, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRouter_EmptySecretRejectsProtectedRoutes(t *testing.T) {
	issuer := middleware.NewAuthenticator("secret")
	token, err := issuer.IssueToken("lab-1", entities.RoleLab, time.Hour)
	require.NoError(t, err)

	h := newTestRouter(middleware.NewAuthenticator(""))
	req := httptest.NewRequest(http.MethodGet, "/api/providers/lab-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_UnknownMethod(t *testing.T) {
	h := newTestRouter(middleware.NewAuthenticator("secret"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/bookings", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
