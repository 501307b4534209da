package domain

import "github.com/google/uuid"

// NewID returns a UUIDv7: a millisecond timestamp followed by random bits, so
// ids sort by creation time and do not collide.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// MonthKeyLayout formats the YYYY-MM keys of weight samples.
const MonthKeyLayout = "2006-01"
