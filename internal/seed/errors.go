package seed

import "errors"

// Sentinel kinds for seeding failures.
var (
	ErrAdminRejected = errors.New("admin credentials rejected")
	ErrBoardBehind   = errors.New("leaderboard did not catch up")
	ErrUnordered     = errors.New("leaderboard out of order")
)
