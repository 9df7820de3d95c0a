// Package ratelimit enforces per-user, per-notification-type send caps.
//
// Every send is checked against two independent windows: a short burst
// window guarding against rapid-fire abuse and a longer sustained window
// capping overall volume. The first window to deny names itself in the
// decision's Violation tag so callers can distinguish a burst from a
// sustained breach.
//
// Counter updates are atomic. Rate limits are a security control: a lost
// update under concurrency is a correctness bug, not an approximation, so
// the memory store records hits under a single lock and the redis store
// leans on INCR. The redis store counts denied attempts toward its fixed
// windows, which only ever makes the limit stricter.
//
//	limiter, _ := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.DefaultLimit())
//	decision, err := limiter.Allow(ctx, userID, notify.TypeLike)
//	if err == nil && !decision.Allowed {
//		// decision.Violation is "burst" or "sustained"
//	}
package ratelimit
