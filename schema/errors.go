package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownCommand indicates a command name the router does not know.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidArgs indicates command arguments of the wrong shape.
	ErrInvalidArgs = errors.New("invalid command arguments")
	// ErrHostUnavailable indicates the page host could not create or drive a surface.
	ErrHostUnavailable = errors.New("page host unavailable")
	// ErrClosed indicates the session has been shut down.
	ErrClosed = errors.New("session closed")
)
