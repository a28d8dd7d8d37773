package store

import "github.com/google/uuid"

// NewID returns a globally unique identifier for items and pending ops.
// UUIDs keep ids stable across devices without coordination.
func NewID() string {
	return uuid.NewString()
}
