// Package apperr defines the shared error taxonomy for service operations.
// Controllers map these sentinels onto HTTP status codes with errors.Is;
// services wrap them with fmt.Errorf("...: %w", ...) to add context.
package apperr

import "errors"

var (
	// ErrNotFound covers ownership-scoped absence. It is returned both when
	// a resource does not exist and when it belongs to another user, so a
	// caller can never distinguish the two cases.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation covers missing or malformed required fields in a
	// client-supplied mutation.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence covers storage-layer failures. Inbound webhook
	// handlers surface it as a retryable 500 so the provider redelivers.
	ErrPersistence = errors.New("persistence failure")
)
