package v1

import (
	"errors"
	"net/http"

	"github.com/parish-ledger/backend/internal/models"
)

type httpError struct {
	Error string `json:"error" example:"An ID specified in the query string was not a valid UUID"`
}

// status returns the appropriate HTTP status for an engine error
func status(err error) int {
	if errors.Is(err, models.ErrGeneral) || errors.Is(err, models.ErrConsistency) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) {
		return http.StatusNotFound
	}

	if errors.Is(err, models.ErrConflict) {
		return http.StatusConflict
	}

	return http.StatusBadRequest
}

// Transaction errors
var (
	errTransactionTypeInvalid = errors.New("the specified transaction type is invalid")
)
