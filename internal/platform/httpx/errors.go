package httpx

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// PostgreSQL error codes the application branches on.
const (
	pgInsufficientPrivilege = "42501"
	pgUniqueViolation       = "23505"
	pgForeignKeyViolation   = "23503"
)

// RespondError maps domain and database errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgInsufficientPrivilege:
			Problem(w, http.StatusForbidden, "Forbidden", "you do not have permission to perform this action")
			return
		case pgUniqueViolation:
			Problem(w, http.StatusConflict, "Duplicate", "a record with this key already exists")
			return
		case pgForeignKeyViolation:
			Problem(w, http.StatusConflict, "Conflict", "record is referenced by other data")
			return
		}
	}

	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
