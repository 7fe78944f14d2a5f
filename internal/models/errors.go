package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingName        = errors.New("name is required")
	ErrMissingSectionName = errors.New("section name is required")
	ErrInvalidMode        = errors.New("mode must be \"full\" or \"incremental\"")
)

// Sentinel errors for entity lookups.
var (
	ErrTermNotFound     = errors.New("term not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrRunNotFound      = errors.New("import run not found")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}

// ErrDuplicateSection returns an error indicating a term carries two entries
// for the same section name.
func ErrDuplicateSection(name string) error {
	return fmt.Errorf("duplicate section %q", name)
}
