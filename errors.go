package builder

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates an input failed validation.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrUnresolved indicates a code block could not be classified into a
	// project entity. Unresolved blocks are never applied.
	ErrUnresolved = errors.New("unresolved artifact")

	// ErrBusy indicates a chat session is already consuming a response.
	ErrBusy = errors.New("response in progress")
)
