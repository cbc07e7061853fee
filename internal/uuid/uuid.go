// Package uuid wraps google/uuid so that IDs can be bound from query
// parameters with gin.
package uuid

import (
	google_uuid "github.com/google/uuid"
)

// UUID embeds google/uuid to add the binding interface gin expects for
// query parameters.
type UUID struct {
	google_uuid.UUID
}

var Nil UUID

func New() UUID {
	return UUID{google_uuid.New()}
}

func NewString() string {
	return google_uuid.NewString()
}

// UnmarshalParam parses the string representation of a UUID from a query
// parameter. An empty parameter binds to the Nil UUID, filters treat that
// as unset.
func (u *UUID) UnmarshalParam(p string) error {
	if p == "" {
		*u = Nil
		return nil
	}

	parsed, err := google_uuid.Parse(p)
	if err != nil {
		return err
	}

	*u = UUID{parsed}
	return nil
}
