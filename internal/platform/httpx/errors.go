// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var short *shared.InsufficientStockError
	switch {
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrUnitMismatch):
		Problem(w, http.StatusBadRequest, "Unit Mismatch", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.As(err, &short):
		Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", short.Error())
	case errors.Is(err, shared.ErrConcurrency):
		Problem(w, http.StatusTooManyRequests, "Ledger Busy", "the tenant ledger is busy, retry with backoff")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
