package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore counts sends in fixed windows via INCR, which is atomic across
// replicas without scripting. Denied attempts stay counted: that only makes
// the limit stricter, never looser.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the default "notify:ratelimit" key namespace.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "notify:ratelimit",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, limit int, ttl time.Duration) (Hit, error) {
	now := time.Now()
	windowStart := now.Truncate(ttl)
	windowKey := s.windowKey(key, windowStart)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		// Keep the key one extra window so Reset can reach the previous one.
		pipe.Expire(ctx, windowKey, 2*ttl)
		return nil
	})
	if err != nil {
		return Hit{}, err
	}

	count := incr.Val()
	return Hit{
		Count:   count,
		Allowed: count <= int64(limit),
		ResetAt: windowStart.Add(ttl),
	}, nil
}

// Reset implements Store, clearing the current and previous windows.
func (s *RedisStore) Reset(ctx context.Context, key string, ttl time.Duration) error {
	now := time.Now()
	current := now.Truncate(ttl)
	previous := current.Add(-ttl)
	return s.client.Del(ctx,
		s.windowKey(key, current),
		s.windowKey(key, previous),
	).Err()
}

func (s *RedisStore) windowKey(key string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", s.prefix, key, windowStart.Unix())
}
