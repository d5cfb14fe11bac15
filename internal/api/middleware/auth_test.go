package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
)

func TestAuthenticator_RoundTrip(t *testing.T) {
	auth := NewAuthenticator("secret")

	token, err := auth.IssueToken("lab-1", entities.RoleLab, time.Hour)
	require.NoError(t, err)

	caller, err := auth.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, Caller{ID: "lab-1", Role: entities.RoleLab}, caller)
	assert.False(t, caller.IsAdmin())
}

func TestAuthenticator_RejectsBadTokens(t *testing.T) {
	auth := NewAuthenticator("secret")

	expired, err := auth.IssueToken("lab-1", entities.RoleLab, -time.Minute)
	require.NoError(t, err)
	_, err = auth.Parse(expired)
	assert.Error(t, err)

	foreign, err := NewAuthenticator("other").IssueToken("lab-1", entities.RoleLab, time.Hour)
	require.NoError(t, err)
	_, err = auth.Parse(foreign)
	assert.Error(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "root"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.Parse(unsigned)
	assert.Error(t, err)

	_, err = NewAuthenticator("").IssueToken("lab-1", entities.RoleLab, time.Hour)
	assert.Error(t, err)
}

func TestAuthenticator_RequireRole(t *testing.T) {
	auth := NewAuthenticator("secret")
	var seen Caller
	h := auth.RequireRole(entities.RoleAdmin, func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	adminToken, err := auth.IssueToken("root", entities.RoleAdmin, time.Hour)
	require.NoError(t, err)
	labToken, err := auth.IssueToken("lab-1", entities.RoleLab, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"admin", "Bearer " + adminToken, http.StatusNoContent},
		{"lab", "Bearer " + labToken, http.StatusForbidden},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + adminToken, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Equal(t, "root", seen.ID)
}
