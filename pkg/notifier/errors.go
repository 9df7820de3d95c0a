package notifier

import "errors"

var (
	// ErrStorageNil is returned when a Service is constructed without
	// notification storage.
	ErrStorageNil = errors.New("notifier: storage cannot be nil")

	// ErrDelivererNil is returned when a Service is constructed without a
	// deliverer.
	ErrDelivererNil = errors.New("notifier: deliverer cannot be nil")

	// ErrQueueNil is returned when a Service is constructed without a
	// queue.
	ErrQueueNil = errors.New("notifier: queue cannot be nil")

	// ErrInvalidRequest indicates a request missing the target user or
	// notification type.
	ErrInvalidRequest = errors.New("notifier: invalid request")

	// ErrStorageFailed wraps backend failures on the send and query paths.
	ErrStorageFailed = errors.New("notifier: storage operation failed")

	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("notifier: notification not found")
)
