package dbunified

import "errors"

// Standard errors for handle operations.
// Use errors.Is() to check these error types in calling code. Errors raised by
// the underlying driver during execute, fetch, commit or close are returned
// unmodified and match none of these.
var (
	// ErrConfig indicates an invalid or incomplete configuration: missing
	// backend kind or profile field, unknown fetch shape or quantity,
	// malformed statement parameters.
	ErrConfig = errors.New("configuration error")

	// ErrDispatch indicates the cursor needed to run a statement could not be
	// created (probe failed, connect failed, no native handle).
	ErrDispatch = errors.New("cursor creation failed")

	// ErrNotConnected indicates an operation that needs a live connection was
	// called on a disconnected handle. Always wrapped in ErrDispatch when it
	// stops a cursor from opening.
	ErrNotConnected = errors.New("not connected")

	// ErrUnreachable indicates the pre-connect probe could not reach the
	// backend host.
	ErrUnreachable = errors.New("backend unreachable")

	// ErrNoCursor indicates a cursor operation was called with no open cursor.
	ErrNoCursor = errors.New("no open cursor")
)
