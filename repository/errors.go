package repository

import "errors"

var (
	// ErrNotFound is returned when no note exists with the requested id.
	ErrNotFound = errors.New("note not found")

	// ErrValidation is returned for malformed or missing input fields.
	ErrValidation = errors.New("validation error")

	// ErrUnavailable is returned when a remote backend (Supabase REST or the
	// LLM endpoint) is unreachable or misconfigured.
	ErrUnavailable = errors.New("service unavailable")
)
