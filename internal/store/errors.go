package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup matches no document or row.
var ErrNotFound = errors.New("not found")

// DuplicateError reports a uniqueness conflict on a single field.
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *DuplicateError) Unwrap() error { return e.Err }
