package bubblekit

import "errors"

var (
	// ErrNoActiveContext is returned when a handler-facing operation that
	// needs a bound session is invoked outside a request context.
	ErrNoActiveContext = errors.New("no active session context")

	// ErrNoActiveStream is returned when an operation requires an attached
	// stream sink and the context has none (e.g. the history path).
	ErrNoActiveStream = errors.New("no active stream for this context")

	// ErrBubbleNotFound is returned by AccessBubble for unknown or cleared
	// bubble ids.
	ErrBubbleNotFound = errors.New("bubble not found")

	// ErrDuplicateBubble is returned when a template carries an id that is
	// already bound in the session.
	ErrDuplicateBubble = errors.New("bubble id already exists")

	// ErrStreamAlreadyAttached is returned when a second stream is opened
	// on a conversation that already has one. The HTTP adapter maps it to
	// 409 Conflict.
	ErrStreamAlreadyAttached = errors.New("stream already active for this conversation")

	// ErrInvalidConfig is returned for malformed bubble config patches and
	// conversation summaries.
	ErrInvalidConfig = errors.New("invalid config")
)
