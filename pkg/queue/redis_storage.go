package queue

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yapplr/notify"
	"github.com/yapplr/notify/pkg/payload"
)

const (
	defaultKeyPrefix = "notify:queue"

	// defaultClaimDuration is how long a listed entry stays invisible to
	// other instances. It must exceed the delivery timeout so an attempt
	// finishes before the entry becomes due again.
	defaultClaimDuration = 30 * time.Second
)

// claimScript ranges due ids and pushes each one's readiness score past the
// claim horizon in the same atomic step, so two instances listing the same
// set never pick up the same entry. XX keeps a concurrent removal removed.
var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
for _, id in ipairs(ids) do
	redis.call('ZADD', KEYS[1], 'XX', ARGV[3], id)
end
return ids`)

// listDue walks priorities from critical down so the due order matches the
// memory storage.
var priorityOrder = []notify.Priority{
	notify.PriorityCritical,
	notify.PriorityHigh,
	notify.PriorityNormal,
	notify.PriorityLow,
}

// RedisStorage persists queued notifications in redis so every instance
// shares one queue. Each entry is a hash (JSON body, gzip-compressed past the
// payload threshold); readiness lives in one sorted set per priority scored
// by ready time, expiry in a single sorted set scored by expiration time.
// Exhausted entries stay in their readiness set with an infinite score until
// cleanup removes them.
//
// Listing an entry claims it: its readiness score jumps past the claim
// horizon, so no other instance sees it until the claim lapses. Within a
// claim the lister is the entry's only writer, which is what makes the
// read-modify-write in MarkDelivered and ScheduleRetry safe across
// instances. A skipped entry simply becomes due again when the claim runs
// out.
type RedisStorage struct {
	client   redis.UniversalClient
	comp     *payload.Compressor
	prefix   string
	claimTTL time.Duration
}

// RedisOption configures a RedisStorage.
type RedisOption func(*RedisStorage)

// WithKeyPrefix overrides the key namespace (default "notify:queue").
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStorage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithCompressor replaces the compressor used for entry bodies.
func WithCompressor(comp *payload.Compressor) RedisOption {
	return func(s *RedisStorage) {
		if comp != nil {
			s.comp = comp
		}
	}
}

// WithClaimDuration overrides how long listed entries stay claimed
// (default 30s). Keep it above the delivery timeout.
func WithClaimDuration(d time.Duration) RedisOption {
	return func(s *RedisStorage) {
		if d > 0 {
			s.claimTTL = d
		}
	}
}

// NewRedisStorage creates a storage on an existing client.
func NewRedisStorage(client redis.UniversalClient, opts ...RedisOption) *RedisStorage {
	if client == nil {
		panic("queue: redis client cannot be nil")
	}

	s := &RedisStorage{
		client:   client,
		comp:     payload.New(),
		prefix:   defaultKeyPrefix,
		claimTTL: defaultClaimDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements Storage. The hash write doubles as the existence guard so
// two racing enqueues of the same id cannot both register the entry.
func (s *RedisStorage) Create(ctx context.Context, n *Notification) error {
	blob, enc, err := s.encode(n)
	if err != nil {
		return err
	}

	created, err := s.client.HSetNX(ctx, s.itemKey(n.ID), "data", blob).Result()
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	if !created {
		return ErrAlreadyExists
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.itemKey(n.ID), "enc", enc)
		pipe.ZAdd(ctx, s.dueKey(n.Priority), redis.Z{Score: readyScore(n), Member: n.ID})
		pipe.ZAdd(ctx, s.expKey(), redis.Z{Score: float64(n.ExpiresAt.UnixMilli()), Member: n.ID})
		return nil
	})
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

// Get implements Storage.
func (s *RedisStorage) Get(ctx context.Context, id string) (*Notification, error) {
	vals, err := s.client.HGetAll(ctx, s.itemKey(id)).Result()
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	if len(vals) == 0 {
		return nil, ErrNotFound
	}
	n, err := s.decode(vals)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListDue implements Storage. Returned entries are claimed until the claim
// duration lapses; see the type comment.
func (s *RedisStorage) ListDue(ctx context.Context, now time.Time, limit int) ([]*Notification, error) {
	maxScore := strconv.FormatInt(now.UnixMilli(), 10)
	claimScore := strconv.FormatInt(now.Add(s.claimTTL).UnixMilli(), 10)

	var out []*Notification
	for _, prio := range priorityOrder {
		if limit > 0 && len(out) >= limit {
			break
		}
		remaining := int64(-1)
		if limit > 0 {
			remaining = int64(limit - len(out))
		}

		ids, err := claimScript.Run(ctx, s.client,
			[]string{s.dueKey(prio)}, maxScore, remaining, claimScore).StringSlice()
		if err != nil {
			return nil, errors.Join(ErrStorageFailed, err)
		}

		entries, err := s.fetch(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i, n := range entries {
			if n == nil {
				// Stale index member; its hash is gone.
				s.client.ZRem(ctx, s.dueKey(prio), ids[i])
				continue
			}
			if n.Due(now) {
				out = append(out, n)
			}
		}
	}
	return out, nil
}

// MarkDelivered implements Storage. The entry leaves the readiness and expiry
// sets and its hash inherits the expiration as a redis TTL, so delivered
// entries stay fetchable until their original expiry and then vanish on
// their own.
func (s *RedisStorage) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	n, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.DeliveredAt == nil {
		n.DeliveredAt = &at
	}

	blob, enc, err := s.encode(n)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.itemKey(id), "data", blob, "enc", enc)
		pipe.ZRem(ctx, s.dueKey(n.Priority), id)
		pipe.ZRem(ctx, s.expKey(), id)
		if !n.ExpiresAt.IsZero() {
			pipe.ExpireAt(ctx, s.itemKey(id), n.ExpiresAt)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

// ScheduleRetry implements Storage.
func (s *RedisStorage) ScheduleRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time) error {
	n, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	n.RetryCount = retryCount
	n.NextRetryAt = &nextRetryAt

	blob, enc, err := s.encode(n)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.itemKey(id), "data", blob, "enc", enc)
		pipe.ZAdd(ctx, s.dueKey(n.Priority), redis.Z{Score: readyScore(n), Member: id})
		return nil
	})
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

// DeleteExpired implements Storage.
func (s *RedisStorage) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.client.ZRangeByScore(ctx, s.expKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, errors.Join(ErrStorageFailed, err)
	}

	entries, err := s.fetch(ctx, ids)
	if err != nil {
		return 0, err
	}

	removed := 0
	for i, n := range entries {
		id := ids[i]
		if n == nil {
			s.client.ZRem(ctx, s.expKey(), id)
			continue
		}

		// Delivered entries normally leave the index sets in
		// MarkDelivered; one caught here mid-race keeps its hash and
		// rides out its redis TTL.
		if n.Delivered() {
			_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.ZRem(ctx, s.dueKey(n.Priority), id)
				pipe.ZRem(ctx, s.expKey(), id)
				return nil
			})
			if err != nil {
				return removed, errors.Join(ErrStorageFailed, err)
			}
			continue
		}

		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, s.itemKey(id))
			pipe.ZRem(ctx, s.dueKey(n.Priority), id)
			pipe.ZRem(ctx, s.expKey(), id)
			return nil
		})
		if err != nil {
			return removed, errors.Join(ErrStorageFailed, err)
		}
		removed++
	}
	return removed, nil
}

// Counts implements Storage by scanning the readiness sets; undelivered
// entries are exactly their union.
func (s *RedisStorage) Counts(ctx context.Context) (int, map[string]int, error) {
	now := time.Now()
	total := 0
	byType := make(map[string]int)

	for _, prio := range priorityOrder {
		ids, err := s.client.ZRange(ctx, s.dueKey(prio), 0, -1).Result()
		if err != nil {
			return 0, nil, errors.Join(ErrStorageFailed, err)
		}
		entries, err := s.fetch(ctx, ids)
		if err != nil {
			return 0, nil, err
		}
		for _, n := range entries {
			if n == nil || n.Delivered() || n.Expired(now) {
				continue
			}
			total++
			byType[n.Type]++
		}
	}
	return total, byType, nil
}

// Ping reports whether redis is reachable.
func (s *RedisStorage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

// fetch loads entries by id, positionally aligned with ids; missing or
// undecodable entries come back nil.
func (s *RedisStorage) fetch(ctx context.Context, ids []string) ([]*Notification, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.itemKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}

	out := make([]*Notification, len(ids))
	for i, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) == 0 {
			continue
		}
		n, err := s.decode(vals)
		if err != nil {
			continue
		}
		out[i] = n
	}
	return out, nil
}

func (s *RedisStorage) encode(n *Notification) (string, string, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return "", "", errors.Join(ErrStorageFailed, err)
	}
	res := s.comp.CompressBytes(raw)
	return string(res.Data), res.Method, nil
}

func (s *RedisStorage) decode(vals map[string]string) (*Notification, error) {
	raw, err := payload.DecompressBytes(vals["enc"], []byte(vals["data"]))
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	return &n, nil
}

func (s *RedisStorage) itemKey(id string) string {
	return s.prefix + ":item:" + id
}

func (s *RedisStorage) dueKey(p notify.Priority) string {
	return s.prefix + ":due:" + p.String()
}

func (s *RedisStorage) expKey() string {
	return s.prefix + ":exp"
}

// readyScore is the earliest instant a delivery attempt may happen, as a
// sorted-set score. Frozen entries sort to infinity so they are never ranged.
func readyScore(n *Notification) float64 {
	if n.Exhausted() {
		return math.Inf(1)
	}
	ready := n.CreatedAt
	if n.ScheduledFor != nil && n.ScheduledFor.After(ready) {
		ready = *n.ScheduledFor
	}
	if n.NextRetryAt != nil && n.NextRetryAt.After(ready) {
		ready = *n.NextRetryAt
	}
	return float64(ready.UnixMilli())
}
