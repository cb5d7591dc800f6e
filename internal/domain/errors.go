package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrStoreUnavailable marks a failed read or write against the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDeliveryFailed and ErrEndpointGone describe push outcomes. They are
	// logged and counted, never returned to HTTP callers.
	ErrDeliveryFailed = errors.New("delivery failed")
	ErrEndpointGone   = errors.New("push endpoint gone")
)
