package game

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID identifies one game
type ID string

// NewID generates a new game ID using ULID
// Format: ULID (e.g., 01JB6X8Y2K9FQR4T3VWHGP5M2C)
func NewID() ID {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ID(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
}

// ParseID validates a string as a game ID
func ParseID(s string) (ID, error) {
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", fmt.Errorf("invalid game ID %q: %w", s, err)
	}
	return ID(s), nil
}

// String returns the string representation of the ID
func (id ID) String() string {
	return string(id)
}
