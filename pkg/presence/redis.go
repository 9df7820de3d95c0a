package presence

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "notify:presence"

// RedisTracker keeps presence in redis so every API instance sees the
// same connections. Each user holds a sorted set of connection ids
// scored by last-seen time; expired members are trimmed on read.
type RedisTracker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// RedisOption configures the tracker.
type RedisOption func(*RedisTracker)

// WithKeyPrefix overrides the key namespace (default
// "notify:presence").
func WithKeyPrefix(prefix string) RedisOption {
	return func(t *RedisTracker) {
		if prefix != "" {
			t.prefix = prefix
		}
	}
}

// WithRedisTTL overrides the liveness window.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(t *RedisTracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// NewRedisTracker creates a tracker on an existing client.
func NewRedisTracker(client redis.UniversalClient, opts ...RedisOption) *RedisTracker {
	if client == nil {
		panic("presence: redis client cannot be nil")
	}

	t := &RedisTracker{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *RedisTracker) Connect(ctx context.Context, userID uuid.UUID, connID string) error {
	if err := validate(userID, connID); err != nil {
		return err
	}

	key := t.userKey(userID)
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(t.now().UnixMilli()),
			Member: connID,
		})
		// The set outlives any single connection window so offline
		// users eventually cost nothing.
		pipe.Expire(ctx, key, 2*t.ttl)
		return nil
	})
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

func (t *RedisTracker) Disconnect(ctx context.Context, userID uuid.UUID, connID string) error {
	if err := validate(userID, connID); err != nil {
		return err
	}

	if err := t.client.ZRem(ctx, t.userKey(userID), connID).Err(); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// Heartbeat refreshes the connection's last-seen score. Unknown
// connections are re-registered.
func (t *RedisTracker) Heartbeat(ctx context.Context, userID uuid.UUID, connID string) error {
	return t.Connect(ctx, userID, connID)
}

func (t *RedisTracker) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, ErrNilUser
	}

	key := t.userKey(userID)
	cutoff := t.now().Add(-t.ttl).UnixMilli()

	var card *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
		card = pipe.ZCard(ctx, key)
		return nil
	})
	if err != nil {
		return false, errors.Join(ErrUnavailable, err)
	}
	return card.Val() > 0, nil
}

func (t *RedisTracker) userKey(userID uuid.UUID) string {
	return t.prefix + ":user:" + userID.String()
}
