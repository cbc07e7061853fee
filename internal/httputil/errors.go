package httputil

import "errors"

// Errors for request parsing. They are returned to API consumers verbatim,
// so they are phrased as instructions, not as internal diagnostics.
var (
	ErrInvalidBody      = errors.New("the body of your request contains invalid or un-parseable data. Please check and try again")
	ErrRequestBodyEmpty = errors.New("the request body must not be empty")
	ErrInvalidUUID      = errors.New("the specified resource ID is not a valid UUID")
)
