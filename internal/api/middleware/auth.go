package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
)

type callerKey struct{}

// Caller is the authenticated identity behind a request
type Caller struct {
	ID   string
	Role entities.Role
}

// IsAdmin reports whether the caller has the admin role
func (c Caller) IsAdmin() bool {
	return c.Role == entities.RoleAdmin
}

// Claims are the bearer token claims. The subject is the identity ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// WithCaller returns a context carrying caller
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller set by the auth middleware
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}

// Authenticator verifies HS256 bearer tokens
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator. An empty secret rejects every token.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// IssueToken signs a token for id and role, valid for ttl
func (a *Authenticator) IssueToken(id string, role entities.Role, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates tokenString and returns its caller
func (a *Authenticator) Parse(tokenString string) (Caller, error) {
	if len(a.secret) == 0 {
		return Caller{}, errors.New("jwt secret is not configured")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return Caller{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || claims.Role == "" {
		return Caller{}, errors.New("invalid token claims")
	}
	return Caller{ID: claims.Subject, Role: entities.Role(claims.Role)}, nil
}

// Require rejects requests without a valid bearer token
func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			writeAuthError(w, http.StatusUnauthorized, "authorization token missing")
			return
		}

		caller, err := a.Parse(tokenString)
		if err != nil {
			observability.LoggerFromContext(r.Context()).Debug().Err(err).Msg("rejected bearer token")
			writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next(w, r.WithContext(WithCaller(r.Context(), caller)))
	}
}

// RequireRole is Require plus a role check
func (a *Authenticator) RequireRole(role entities.Role, next http.HandlerFunc) http.HandlerFunc {
	return a.Require(func(w http.ResponseWriter, r *http.Request) {
		caller, _ := CallerFromContext(r.Context())
		if caller.Role != role {
			writeAuthError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
