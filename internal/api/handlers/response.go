package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/middleware"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
)

var errorStatus = map[apperrors.ErrorType]int{
	apperrors.ErrorTypeNotFound:          http.StatusNotFound,
	apperrors.ErrorTypeValidation:        http.StatusBadRequest,
	apperrors.ErrorTypeConflict:          http.StatusConflict,
	apperrors.ErrorTypeInvalidTransition: http.StatusUnprocessableEntity,
	apperrors.ErrorTypeTransient:         http.StatusServiceUnavailable,
	apperrors.ErrorTypeUnauthorized:      http.StatusUnauthorized,
	apperrors.ErrorTypeForbidden:         http.StatusForbidden,
	apperrors.ErrorTypeExternal:          http.StatusBadGateway,
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps err onto a status code. Internal details stay in the log.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	errType := apperrors.TypeOf(err)
	status, ok := errorStatus[errType]
	if !ok {
		observability.LoggerFromContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
			"type":  string(apperrors.ErrorTypeInternal),
		})
		return
	}

	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	respondWithJSON(w, status, map[string]string{
		"error": message,
		"type":  string(errType),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

// requireSelfOrAdmin passes when the authenticated caller is id or an admin
func requireSelfOrAdmin(w http.ResponseWriter, r *http.Request, id string) bool {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return false
	}
	if caller.ID != id && !caller.IsAdmin() {
		respondWithError(w, http.StatusForbidden, "caller may not act on this resource")
		return false
	}
	return true
}

// ownerScope returns the owner id that scopes a member route: the caller's own id,
// or "" for admins, who may act on any owner's event or slot
func ownerScope(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok || caller.ID == "" {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	if caller.IsAdmin() {
		return "", true
	}
	return caller.ID, true
}

func respondLog(r *http.Request) *zerolog.Logger {
	return respondLogCtx(r.Context())
}

func respondLogCtx(ctx context.Context) *zerolog.Logger {
	return observability.LoggerFromContext(ctx)
}
