package audit

import "errors"

var (
	// ErrStorageNotAvailable indicates the storage backend is unavailable.
	ErrStorageNotAvailable = errors.New("storage backend is unavailable")

	// ErrInvalidRecord indicates a record failed validation.
	ErrInvalidRecord = errors.New("invalid audit record")

	// ErrStorageFailure wraps backend errors.
	ErrStorageFailure = errors.New("audit storage failure")
)
