package remotesync

import "errors"

// Sentinel kinds surfaced to callers.
var (
	ErrQueryFailed  = errors.New("leaderboard query failed")
	ErrInsertFailed = errors.New("insert failed")
	ErrDeleteFailed = errors.New("delete failed")
	ErrStarted      = errors.New("syncer already started")

	errMissingID = errors.New("id is required")
)
