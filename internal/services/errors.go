package services

import "errors"

// Sentinel errors returned by the services. Handlers map them to HTTP status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("already exists")
	ErrForbidden    = errors.New("forbidden")
)
