package queue

import (
	"context"
	"time"
)

// Storage persists queued notifications. Implementations must be safe for
// concurrent use and must apply each mutation atomically: a processing pass
// cancelled mid-batch leaves every entry either fully updated or untouched.
type Storage interface {
	// Create persists a new entry. Returns ErrAlreadyExists when an entry
	// with the same id is present, so repeated enqueues of the same
	// notification are harmless.
	Create(ctx context.Context, n *Notification) error

	// Get returns the entry by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Notification, error)

	// ListDue returns up to limit entries eligible for a delivery attempt at
	// now: undelivered, unexpired, below max retries, scheduled time reached,
	// retry backoff elapsed. Ordered by priority (highest first), then by
	// creation time (oldest first).
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Notification, error)

	// MarkDelivered stamps DeliveredAt and removes the entry from due
	// consideration. The retry count is left untouched. Delivered entries
	// stay fetchable until retention prunes them.
	MarkDelivered(ctx context.Context, id string, at time.Time) error

	// ScheduleRetry records a failed attempt: sets the retry count and the
	// earliest time of the next attempt. An entry whose retry count reaches
	// its max is frozen until cleanup removes it on expiration.
	ScheduleRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time) error

	// DeleteExpired removes undelivered entries past their expiration and
	// returns how many were removed. Idempotent: a second call with no new
	// arrivals removes nothing.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	// Counts returns the number of undelivered, unexpired entries and the
	// same broken down by notification type.
	Counts(ctx context.Context) (int, map[string]int, error)
}
