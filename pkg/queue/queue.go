package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yapplr/notify"
	"github.com/yapplr/notify/pkg/logger"
)

// Deliverer hands a due notification to the provider layer. Satisfied by
// *provider.Manager.
type Deliverer interface {
	Send(ctx context.Context, req notify.DeliveryRequest) bool
}

// Presence answers whether a user currently holds a live connection.
// Offline users are skipped during processing without burning a retry.
type Presence interface {
	IsOnline(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Queue is the store-and-forward side of the pipeline: notifications that
// could not be delivered immediately wait here until a processing pass finds
// their user online and a provider accepts them.
//
// ProcessPending and CleanupExpired are meant to be driven by an external
// scheduler (or the Runner in this package) as discrete batches. Both are
// single-flight per Queue instance: a call arriving while another is in
// flight is a no-op, never a blocked goroutine.
type Queue struct {
	storage   Storage
	deliverer Deliverer
	presence  Presence

	cfg     Config
	policy  ExpirationPolicy
	backoff Backoff
	log     *slog.Logger
	now     func() time.Time

	totalQueued    atomic.Uint64
	totalDelivered atomic.Uint64
	totalFailed    atomic.Uint64

	processing atomic.Bool
	cleaning   atomic.Bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithConfig replaces the default processing knobs. Zero fields keep their
// defaults.
func WithConfig(cfg Config) Option {
	return func(q *Queue) {
		q.cfg = cfg.normalized()
	}
}

// WithExpirationPolicy overrides the priority-to-retention table.
func WithExpirationPolicy(p ExpirationPolicy) Option {
	return func(q *Queue) {
		if p != nil {
			q.policy = p
		}
	}
}

// WithBackoff overrides the retry backoff (default linear, 30s per attempt).
func WithBackoff(b Backoff) Option {
	return func(q *Queue) {
		if b != nil {
			q.backoff = b
		}
	}
}

// WithLogger sets the logger (default slog.Default).
func WithLogger(log *slog.Logger) Option {
	return func(q *Queue) {
		if log != nil {
			q.log = log
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// New creates a Queue over the given storage and deliverer. A nil presence
// tracker means every user counts as online, so each due entry gets an
// attempt on every pass.
func New(storage Storage, deliverer Deliverer, presence Presence, opts ...Option) (*Queue, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if deliverer == nil {
		return nil, ErrDelivererNil
	}

	q := &Queue{
		storage:   storage,
		deliverer: deliverer,
		presence:  presence,
		cfg:       defaultConfig(),
		policy:    DefaultExpirationPolicy(),
		backoff:   LinearBackoff(DefaultRetryStep),
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Enqueue accepts a notification for deferred delivery. Missing fields are
// filled: id, creation time, max retries, and the expiration derived from
// the priority policy. Re-enqueueing an id that is already stored is not an
// error, so an orchestrator retrying after a crash cannot duplicate entries.
func (q *Queue) Enqueue(ctx context.Context, n Notification) error {
	if n.UserID == uuid.Nil || n.Type == "" {
		return ErrInvalidNotification
	}

	now := q.now()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.MaxRetries <= 0 {
		n.MaxRetries = q.cfg.MaxRetries
	}
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = n.CreatedAt.Add(q.policy.TTL(n.Priority))
	}

	if err := q.storage.Create(ctx, &n); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			q.log.DebugContext(ctx, "duplicate enqueue ignored",
				logger.Component("queue"),
				logger.NotificationID(n.ID))
			return nil
		}
		return fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}

	q.totalQueued.Add(1)
	q.log.DebugContext(ctx, "notification queued",
		logger.Component("queue"),
		logger.NotificationID(n.ID),
		logger.UserID(n.UserID),
		logger.NotificationType(n.Type),
		slog.String("priority", n.Priority.String()))
	return nil
}

// ProcessPending runs one delivery pass over due entries and returns the
// number of delivery attempts made. Entries whose user is offline are
// skipped without an attempt; a successful attempt stamps the entry
// delivered, a failed one schedules the next retry. A concurrent call while
// a pass is in flight returns (0, nil).
func (q *Queue) ProcessPending(ctx context.Context) (int, error) {
	if !q.processing.CompareAndSwap(false, true) {
		q.log.DebugContext(ctx, "processing pass already in flight",
			logger.Component("queue"))
		return 0, nil
	}
	defer q.processing.Store(false)

	var attempts atomic.Int64
	seen := make(map[string]struct{})

	for {
		// Entries skipped for offline users stay due and keep their place
		// at the head of the listing, so the window grows past everything
		// already handled this pass. A batch larger than the seen set must
		// carry at least one unseen entry, which keeps the pass moving
		// until the storage runs out of due work.
		limit := len(seen) + q.cfg.BatchSize
		batch, err := q.storage.ListDue(ctx, q.now(), limit)
		if err != nil {
			return int(attempts.Load()), fmt.Errorf("%w: %w", ErrStorageFailed, err)
		}

		fresh := batch[:0]
		for _, n := range batch {
			if _, ok := seen[n.ID]; ok {
				continue
			}
			seen[n.ID] = struct{}{}
			fresh = append(fresh, n)
		}
		if len(fresh) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(q.cfg.Parallelism)
		for _, n := range fresh {
			g.Go(func() error {
				attempted, err := q.processOne(gctx, n)
				if attempted {
					attempts.Add(1)
				}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return int(attempts.Load()), err
		}

		if len(batch) < limit {
			break
		}
	}

	return int(attempts.Load()), nil
}

// processOne makes at most one delivery attempt for a single entry. The
// returned bool reports whether an attempt was made. Storage mutations are
// single atomic calls, so a cancelled pass leaves the entry either fully
// updated or untouched.
func (q *Queue) processOne(ctx context.Context, n *Notification) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if q.presence != nil {
		online, err := q.presence.IsOnline(ctx, n.UserID)
		if err != nil {
			q.log.WarnContext(ctx, "presence check failed, skipping entry",
				logger.Component("queue"),
				logger.NotificationID(n.ID),
				logger.Error(err))
			return false, nil
		}
		if !online {
			return false, nil
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, q.cfg.DeliveryTimeout)
	delivered := q.deliverer.Send(sendCtx, n.DeliveryRequest())
	cancel()

	// The attempt happened; if the pass was cancelled while the provider
	// call was in flight, record nothing and let the next pass retry.
	if err := ctx.Err(); err != nil {
		return true, err
	}

	if delivered {
		if err := q.storage.MarkDelivered(ctx, n.ID, q.now()); err != nil {
			return true, fmt.Errorf("%w: %w", ErrStorageFailed, err)
		}
		q.totalDelivered.Add(1)
		q.log.InfoContext(ctx, "queued notification delivered",
			logger.Component("queue"),
			logger.NotificationID(n.ID),
			logger.UserID(n.UserID),
			logger.Retry(n.RetryCount))
		return true, nil
	}

	retry := n.RetryCount + 1
	nextRetryAt := q.now().Add(q.backoff(retry))
	if err := q.storage.ScheduleRetry(ctx, n.ID, retry, nextRetryAt); err != nil {
		return true, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}

	if retry >= n.MaxRetries {
		q.totalFailed.Add(1)
		q.log.WarnContext(ctx, "queued notification exhausted retries",
			logger.Component("queue"),
			logger.NotificationID(n.ID),
			logger.UserID(n.UserID),
			logger.Retry(retry))
	} else {
		q.log.DebugContext(ctx, "delivery failed, retry scheduled",
			logger.Component("queue"),
			logger.NotificationID(n.ID),
			logger.Retry(retry),
			slog.Time("next_retry_at", nextRetryAt))
	}
	return true, nil
}

// CleanupExpired removes undelivered entries past their expiration and
// returns how many were removed. Running it twice with no new arrivals
// removes nothing the second time. A concurrent call while a sweep is in
// flight returns (0, nil).
func (q *Queue) CleanupExpired(ctx context.Context) (int, error) {
	if !q.cleaning.CompareAndSwap(false, true) {
		q.log.DebugContext(ctx, "cleanup sweep already in flight",
			logger.Component("queue"))
		return 0, nil
	}
	defer q.cleaning.Store(false)

	removed, err := q.storage.DeleteExpired(ctx, q.now())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}
	if removed > 0 {
		q.log.InfoContext(ctx, "expired notifications removed",
			logger.Component("queue"),
			slog.Int("removed", removed))
	}
	return removed, nil
}

// Stats reports queue activity. The totals are process-lifetime monotonic
// counters; the current count and by-type breakdown come from storage, so
// they are accurate across restarts.
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	current, byType, err := q.storage.Counts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}
	return Stats{
		TotalQueued:     q.totalQueued.Load(),
		TotalDelivered:  q.totalDelivered.Load(),
		TotalFailed:     q.totalFailed.Load(),
		CurrentlyQueued: current,
		QueuedByType:    byType,
	}, nil
}
