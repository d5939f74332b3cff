package service

import "errors"

// Sentinel kinds for the service.
var (
	ErrStoreUnreachable = errors.New("remote store unreachable")
	ErrDegraded         = errors.New("service is running without a remote store")
	ErrNotStarted       = errors.New("service not started")
)
