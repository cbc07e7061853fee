package models

import (
	"errors"
)

// Error classes. Every specific error of the engine wraps one of these so
// that callers can derive the correct handling with errors.Is.
var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")
	ErrValidation       = errors.New("invalid data")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrConflict         = errors.New("the change conflicts with existing data")

	// ErrConsistency is returned when a stored account balance does not
	// equal the balance replayed from the transaction history. This must
	// never happen during correct operation and is never corrected
	// silently.
	ErrConsistency = errors.New("the stored account balance does not match the transaction history")
)
