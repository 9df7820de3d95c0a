package audit

import "errors"

var (
	// ErrEventValidation indicates the event is missing required fields
	// or carries invalid values.
	ErrEventValidation = errors.New("audit: event validation failed")

	// ErrStorageNotAvailable indicates the storage has been closed or is
	// otherwise unable to accept writes.
	ErrStorageNotAvailable = errors.New("audit: storage not available")

	// ErrStorageFailed wraps backend failures on store or query.
	ErrStorageFailed = errors.New("audit: storage operation failed")
)
