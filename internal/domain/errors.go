package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// Only an unknown pattern is a hard failure for a request. External service
// failures are wrapped with ErrExternalService inside the adapters and turned
// into data before they reach callers.
// -----------------------------------------------------------------------------

// Pattern errors
var (
	ErrUnknownPattern = errors.New("unknown pattern")
)

// Generative collaborator errors
var (
	ErrExternalService = errors.New("external service error")
)

// Training log errors
var (
	ErrLogNotFound = errors.New("training log not found")
)

// General errors
var (
	ErrInvalidInput = errors.New("invalid input")
)
