package audit

import "context"

// Storage persists audit events and answers queries over them.
type Storage interface {
	Store(ctx context.Context, event Event) error
	Query(ctx context.Context, criteria Criteria) ([]Event, error)
}

// StorageCounter is an optional Storage capability for counting events
// without loading them. Readers fall back to Query when absent.
type StorageCounter interface {
	Count(ctx context.Context, criteria Criteria) (int64, error)
}

// BatchWriter is an optional Storage capability for bulk inserts. The
// async storage uses it to flush whole batches in one round trip.
type BatchWriter interface {
	StoreBatch(ctx context.Context, events []Event) error
}
