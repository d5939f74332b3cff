package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrDetached means no remote store is attached; the service is degraded.
	ErrDetached = errors.New("no remote store attached")
)
