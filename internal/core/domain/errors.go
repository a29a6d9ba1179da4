package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced person, mentor or
	// notification does not resolve.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation is returned for malformed or out-of-range input caught
	// at the boundary.
	ErrValidation = errors.New("invalid input")
)
