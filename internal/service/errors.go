package service

import "errors"

// Sentinel error kinds named throughout spec.md's operation contracts. Callers use
// errors.Is against these; handlers map them to HTTP status codes.
var (
	// ErrForbidden — ownership/domain-verified gate failed.
	ErrForbidden = errors.New("forbidden")
	// ErrRateLimited — QuotaGate denied the operation.
	ErrRateLimited = errors.New("rate limited")
	// ErrConflict — a uniqueness constraint was violated (EmailAddress.address,
	// Domain.name, Endpoint name, User email) or a referenced entity does not fit the
	// request. Sender does not return it: a repeated idempotency key returns the
	// earlier SentMessage.
	ErrConflict = errors.New("conflict")
	// ErrDependencyBusy — an Endpoint cannot be deleted while referenced by an
	// EmailAddress or a Domain's catch-all.
	ErrDependencyBusy = errors.New("dependency busy")
)
