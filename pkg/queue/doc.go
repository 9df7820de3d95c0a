// Package queue is the store-and-forward half of the notification
// pipeline: notifications that could not be delivered while the user was
// online wait here, ordered by priority, until a processing pass hands
// them to a provider or expiration removes them.
//
// Entries live in a Storage backend. MemoryStorage serves tests and
// single-node setups; RedisStorage shares one queue across instances and
// survives restarts, gzip-compressing large bodies on the way in.
//
//	q, _ := queue.New(queue.NewMemoryStorage(), manager, presenceTracker)
//	_ = q.Enqueue(ctx, queue.Notification{
//		UserID:   userID,
//		Type:     notify.TypeMention,
//		Title:    "New mention",
//		Priority: notify.PriorityNormal,
//	})
//
// Processing and cleanup are discrete batch entry points, single-flight
// per Queue, meant to be invoked periodically. The Runner is the bundled
// scheduler for hosts that have none:
//
//	r, _ := queue.NewRunner(q)
//	_ = r.Start(ctx)
//	defer r.Stop()
//
// Failed attempts back off with a strictly increasing delay and stop for
// good after the entry's max retries; exhausted and expired entries are
// removed by CleanupExpired.
package queue
