package notifier

import (
	"context"

	"github.com/google/uuid"
)

// Storage persists notification records. Message-type notifications belong
// to the conversational surface: List, CountUnread, MarkAllRead and
// MarkAllSeen must exclude them, while single-record operations still reach
// them by id.
//
// Implementations may additionally expose
//
//	Ping(ctx context.Context) error
//
// which the service asserts dynamically for health checks.
type Storage interface {
	// Create persists a new record.
	Create(ctx context.Context, n *Notification) error

	// List returns the user's notifications, newest first, excluding
	// message-type records.
	List(ctx context.Context, userID uuid.UUID, page Page) ([]Notification, error)

	// CountUnread returns the number of unread, non-message records.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkRead stamps a single record read. Already-read records keep
	// their original stamp.
	MarkRead(ctx context.Context, id uuid.UUID) error

	// MarkSeen stamps a single record seen.
	MarkSeen(ctx context.Context, id uuid.UUID) error

	// MarkAllRead stamps every unread, non-message record of the user and
	// returns how many changed.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkAllSeen stamps every unseen, non-message record of the user and
	// returns how many changed.
	MarkAllSeen(ctx context.Context, userID uuid.UUID) (int, error)
}
