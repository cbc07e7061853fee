package v1

import (
	ez_uuid "github.com/parish-ledger/backend/internal/uuid"
)

type URIID struct {
	ID ez_uuid.UUID `uri:"id" binding:"required" format:"UUID"` // ID of the resource
}

// Pagination contains information about the pagination for collection endpoint responses.
type Pagination struct {
	Count  int   `json:"count"`  // The amount of records returned in this response
	Offset uint  `json:"offset"` // The offset for the first record returned
	Limit  int   `json:"limit"`  // The maximum amount of resources to return for this request
	Total  int64 `json:"total"`  // The total number of resources matching the query
}

// fieldSet reports whether a field name is contained in the fields parsed
// from a request body.
func fieldSet(fields []any, name string) bool {
	for _, field := range fields {
		if field == name {
			return true
		}
	}

	return false
}
