package ratelimit

import "errors"

var (
	// ErrStoreNil is returned when a Limiter is constructed without a store.
	ErrStoreNil = errors.New("ratelimit: store cannot be nil")

	// ErrInvalidLimit is returned when a limit or window is not positive.
	ErrInvalidLimit = errors.New("ratelimit: limits and windows must be positive")

	// ErrStoreFailed wraps backend failures during a check. Callers treat it
	// as an infrastructure failure, not a policy denial.
	ErrStoreFailed = errors.New("ratelimit: store operation failed")
)
