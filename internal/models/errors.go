package models

import "errors"

// Sentinel errors shared by the domain services. The HTTP layer maps them to
// status codes; services wrap them with %w and context.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)
