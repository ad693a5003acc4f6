package research

import "errors"

var (
	// ErrSessionNotFound indicates the session id is unknown or evicted.
	ErrSessionNotFound = errors.New("research session not found")

	// ErrNotCancellable indicates the id does not belong to the cancellable
	// deep-research id space.
	ErrNotCancellable = errors.New("session is not cancellable")

	// ErrTooManySessions indicates the session registry is at capacity.
	ErrTooManySessions = errors.New("too many concurrent research sessions")
)
