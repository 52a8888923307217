package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrVersionConflict indicates a conditional write lost the race:
	// the expected version no longer matches stored state. The write
	// had zero effect; callers may re-read and retry.
	ErrVersionConflict = errors.New("repository: version conflict")
)
