package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// mapDBError translates driver errors into the application taxonomy.
// AppErrors pass through untouched.
func mapDBError(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return apperrors.NewConflictError(conflictMessage(pqErr))
		case pqSerializationFailure, pqDeadlockDetected:
			return apperrors.NewTransientError(message, err)
		}
		if pqErr.Code.Class() == "08" {
			return apperrors.NewTransientError(message, err)
		}
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTransientError(message, err)
	}

	return apperrors.NewInternalError(message, err)
}

func conflictMessage(pqErr *pq.Error) string {
	if pqErr.Constraint == "phone_registry_pkey" || pqErr.Table == "phone_registry" {
		return "phone number already registered"
	}
	return fmt.Sprintf("duplicate value violates %s", pqErr.Constraint)
}
