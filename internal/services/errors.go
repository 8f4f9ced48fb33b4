package services

import "errors"

// Sentinel errors shared by the repository layer. Connection-level failures
// (pool and direct connect both down) surface as database.ErrConnection from
// the acquire path instead.
var (
	// ErrPersistence means a read or write against the store failed after a
	// connection was obtained. It is surfaced to the caller; transient
	// in-memory state is left untouched so no data is silently lost.
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidArgument is a caller error (e.g. deleting with no id, an
	// unknown chat role). Fatal to the call, never retried.
	ErrInvalidArgument = errors.New("invalid argument")
)
