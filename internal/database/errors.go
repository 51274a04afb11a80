package database

import "errors"

// Sentinel errors returned by the store and the services on top of it.
// Everything here is recoverable by the caller; anything else that comes out
// of the store is an internal failure.
var (
	ErrNotFound               = errors.New("record not found")
	ErrForbidden              = errors.New("access denied")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrEmailTaken             = errors.New("email already in use")
	ErrConcurrentModification = errors.New("concurrent modification, please retry")
)
