package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Storage keys longer than this are hashed to keep backend keys bounded.
const maxKeyLength = 64

// Limiter evaluates the burst window first, then the sustained window.
// A burst denial leaves the sustained window untouched.
type Limiter struct {
	store Store
	limit Limit
}

// New validates the limit table and builds a Limiter.
func New(store Store, limit Limit) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if err := limit.validate(); err != nil {
		return nil, err
	}
	return &Limiter{store: store, limit: limit}, nil
}

// Allow records one send attempt for the user/type pair and reports whether
// it may proceed. The first breached window wins and names its violation.
func (l *Limiter) Allow(ctx context.Context, userID uuid.UUID, notificationType string) (Decision, error) {
	key := Key(userID, notificationType)

	burst, err := l.store.Hit(ctx, key+":burst", l.limit.Burst, l.limit.BurstWindow)
	if err != nil {
		return Decision{}, errors.Join(ErrStoreFailed, err)
	}
	if !burst.Allowed {
		return denied(ViolationBurst, burst), nil
	}

	sustained, err := l.store.Hit(ctx, key+":sustained", l.limit.Sustained, l.limit.SustainedWindow)
	if err != nil {
		return Decision{}, errors.Join(ErrStoreFailed, err)
	}
	if !sustained.Allowed {
		return denied(ViolationSustained, sustained), nil
	}

	remaining := l.limit.Burst - int(burst.Count)
	if r := l.limit.Sustained - int(sustained.Count); r < remaining {
		remaining = r
	}

	return Decision{Allowed: true, Remaining: max(0, remaining)}, nil
}

// Reset clears both windows for the user/type pair.
func (l *Limiter) Reset(ctx context.Context, userID uuid.UUID, notificationType string) error {
	key := Key(userID, notificationType)
	return errors.Join(
		l.store.Reset(ctx, key+":burst", l.limit.BurstWindow),
		l.store.Reset(ctx, key+":sustained", l.limit.SustainedWindow),
	)
}

func denied(violation string, h Hit) Decision {
	retryAfter := time.Until(h.ResetAt)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Decision{
		Allowed:    false,
		Violation:  violation,
		RetryAfter: retryAfter,
	}
}

// Key builds the per-user, per-type counter key. Oversized keys are hashed
// to 128 bits, which keeps collisions out of practical reach.
func Key(userID uuid.UUID, notificationType string) string {
	key := "user:" + userID.String() + ":type:" + notificationType
	if len(key) <= maxKeyLength {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}
