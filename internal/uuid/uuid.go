// Package uuid provides UUID v4 generation and validation for record ids.
//
// Record ids are generated client-side at creation time so offline writes
// never wait for the backend to assign identity.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// New generates a new UUID v4 string.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether s parses as a UUID.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Validate returns an error if s is not a parseable UUID.
func Validate(s string) error {
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("invalid record id %q: %w", s, err)
	}
	return nil
}
