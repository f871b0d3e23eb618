package domain

import "errors"

// ErrUnknownHandler is returned when no handler factory is registered for
// a domain (e.g. the integration was uninstalled).
var ErrUnknownHandler = errors.New("unknown handler")

// ErrUnknownFlow is returned when a flow ID cannot be resolved. It covers
// flows that never existed, already finished, or expired.
var ErrUnknownFlow = errors.New("unknown flow")

// ErrUnknownEntry is returned when an entry ID cannot be found in the registry.
var ErrUnknownEntry = errors.New("unknown entry")

// ErrUnauthorized is returned when the access guard denies an operation.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInvalidResult is returned when a handler produces a result whose type
// is outside the supported set.
var ErrInvalidResult = errors.New("invalid step result")
