package queue

import "errors"

var (
	// ErrStorageNil is returned when a Queue is constructed without storage.
	ErrStorageNil = errors.New("queue: storage cannot be nil")

	// ErrDelivererNil is returned when a Queue is constructed without a
	// deliverer to hand due entries to.
	ErrDelivererNil = errors.New("queue: deliverer cannot be nil")

	// ErrInvalidNotification indicates a notification is missing required
	// fields (user id or type).
	ErrInvalidNotification = errors.New("queue: invalid notification")

	// ErrNotFound is returned when the requested entry does not exist.
	ErrNotFound = errors.New("queue: notification not found")

	// ErrAlreadyExists is returned by storage when an entry with the same id
	// is already present. Enqueue treats it as a duplicate of an earlier
	// accepted enqueue, so retried enqueues stay safe.
	ErrAlreadyExists = errors.New("queue: notification already exists")

	// ErrStorageFailed wraps backend failures during queue operations.
	ErrStorageFailed = errors.New("queue: storage operation failed")

	// ErrQueueNil is returned when a Runner is constructed without a queue.
	ErrQueueNil = errors.New("queue: queue cannot be nil")

	// ErrRunnerStarted is returned when Start is called on a running Runner.
	ErrRunnerStarted = errors.New("queue: runner already started")
)
