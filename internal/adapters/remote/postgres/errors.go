package postgres

import "errors"

// Sentinel kinds for this package.
var (
	ErrUnreachable = errors.New("remote store unreachable")
	ErrInvalidID   = errors.New("invalid entry id")
)
