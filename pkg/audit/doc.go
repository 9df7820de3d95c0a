// Package audit records security events raised by the notification
// pipeline: rate-limit violations, filtered content, suspicious links
// and blocked notifications.
//
// Events are written through a Logger into a Storage. MemoryStorage
// serves tests and single-process setups; MongoStorage persists events
// with query indexes and optional TTL-based retention. AsyncStorage
// wraps either so the send path never waits on audit I/O:
//
//	store := audit.NewMongoStorage(db, audit.WithRetention(90*24*time.Hour))
//	async, closeFn := audit.NewAsyncStorage(store, audit.AsyncOptions{})
//	defer closeFn(context.Background())
//
//	log := audit.NewLogger(async)
//	_ = log.LogSecurity(ctx, audit.EventRateLimitViolation,
//		audit.WithUser(userID),
//		audit.WithSeverity(audit.SeverityWarning),
//		audit.WithDescription("burst limit exceeded"),
//	)
//
// Readers query the same storage for review tooling and alerting.
package audit
