package util

import "github.com/google/uuid"

// NewID generates a new unique identifier.
//
// Identifiers are used for runs, invocations and trace spans and must be
// unique for the lifetime of the process. UUIDv4 satisfies that with a
// comfortable margin.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }
