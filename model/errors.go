package model

import "fmt"

var (
	// ErrNotFound reports that a required record does not exist in the store.
	ErrNotFound = fmt.Errorf("not found")

	// ErrInvalidInput reports a blank identifying string, a missing parent
	// entity, or a submission that failed validation.
	ErrInvalidInput = fmt.Errorf("invalid input")

	// ErrConflict reports that a create would violate a uniqueness rule.
	ErrConflict = fmt.Errorf("conflict")
)
