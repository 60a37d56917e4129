// Package errs defines the error taxonomy shared across services. Callers
// classify failures with errors.Is; everything else is a storage or internal
// error and is always surfaced, never swallowed.
package errs

import "errors"

var (
	// ErrNotFound means the referenced entity (order id, table number,
	// help request) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed means the entity exists but is in the wrong
	// state for the requested transition, e.g. ending a session before
	// the bill is processed.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrValidation means the input itself is malformed, e.g. an unknown
	// status or a non-positive quantity.
	ErrValidation = errors.New("validation failed")
)
