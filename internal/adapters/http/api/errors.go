package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrMissingID    = errors.New("missing entry id")
	ErrUnauthorized = errors.New("admin credentials required")
)

var (
	errBothForms  = errors.New("send either time_taken or hours/minutes/seconds, not both")
	errPartsRange = errors.New("minutes and seconds must be 0-59 and hours must be in range")
	errNoTime     = errors.New("time_taken or hours/minutes/seconds is required")
)
