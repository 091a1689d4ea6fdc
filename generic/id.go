package generic

import "github.com/google/uuid"

// NewID returns a fresh instance identifier. Instance ids are never derived
// from template ids or slice positions.
func NewID() string {
	return uuid.NewString()
}
