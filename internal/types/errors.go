package types

import "errors"

// Error taxonomy shared by the engine and its callers. Callers match these
// with errors.Is; the engine wraps them with context via fmt.Errorf %w.
var (
	// ErrNotFound means the session or question reference does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller does not own the session.
	ErrForbidden = errors.New("forbidden")

	// ErrSessionClosed means the operation targeted a completed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrInvalidInput means the answer or message text is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamFailure means the token source raised or returned a
	// non-recoverable event.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrPersistenceFailure means a record store write failed after a stream
	// completed. Never surfaced to clients; logged for operator visibility.
	ErrPersistenceFailure = errors.New("persistence failure")
)
