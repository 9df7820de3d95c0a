package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapplr/notify"
	"github.com/yapplr/notify/pkg/queue"
)

type stubDeliverer struct {
	mu     sync.Mutex
	result bool
	calls  int
	sent   []notify.DeliveryRequest
}

func (s *stubDeliverer) Send(ctx context.Context, req notify.DeliveryRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.sent = append(s.sent, req)
	return s.result
}

func (s *stubDeliverer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubPresence struct {
	mu     sync.Mutex
	online map[uuid.UUID]bool
}

func (s *stubPresence) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online[userID], nil
}

func newQueue(t *testing.T, deliverer queue.Deliverer, presence *stubPresence, opts ...queue.Option) (*queue.Queue, *queue.MemoryStorage) {
	t.Helper()

	storage := queue.NewMemoryStorage()
	q, err := queue.New(storage, deliverer, presence, opts...)
	require.NoError(t, err)
	return q, storage
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := queue.New(nil, &stubDeliverer{}, nil)
	assert.ErrorIs(t, err, queue.ErrStorageNil)

	_, err = queue.New(queue.NewMemoryStorage(), nil, nil)
	assert.ErrorIs(t, err, queue.ErrDelivererNil)
}

func TestEnqueueFillsDefaults(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	q, storage := newQueue(t, &stubDeliverer{}, nil)

	n := queue.Notification{
		UserID:   userID,
		Type:     notify.TypeMention,
		Title:    "New mention",
		Priority: notify.PriorityNormal,
	}
	require.NoError(t, q.Enqueue(context.Background(), n))
	require.Equal(t, 1, storage.Len())

	due, err := storage.ListDue(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	stored := due[0]
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, 3, stored.MaxRetries)
	assert.True(t, stored.ExpiresAt.After(stored.CreatedAt),
		"expiration must be strictly after creation")
}

func TestEnqueueExpirationPerPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		priority notify.Priority
		ttl      time.Duration
	}{
		{"low", notify.PriorityLow, 6 * time.Hour},
		{"normal", notify.PriorityNormal, 7 * 24 * time.Hour},
		{"high", notify.PriorityHigh, 7 * 24 * time.Hour},
		{"critical", notify.PriorityCritical, 7 * 24 * time.Hour},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
			q, storage := newQueue(t, &stubDeliverer{}, nil,
				queue.WithClock(func() time.Time { return now }))

			id := uuid.NewString()
			require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
				ID:       id,
				UserID:   uuid.New(),
				Type:     notify.TypeLike,
				Priority: tc.priority,
			}))

			stored, err := storage.Get(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, now.Add(tc.ttl), stored.ExpiresAt)
			assert.True(t, stored.ExpiresAt.After(stored.CreatedAt))
		})
	}
}

func TestEnqueueValidation(t *testing.T) {
	t.Parallel()

	q, _ := newQueue(t, &stubDeliverer{}, nil)

	err := q.Enqueue(context.Background(), queue.Notification{Type: notify.TypeLike})
	assert.ErrorIs(t, err, queue.ErrInvalidNotification)

	err = q.Enqueue(context.Background(), queue.Notification{UserID: uuid.New()})
	assert.ErrorIs(t, err, queue.ErrInvalidNotification)
}

func TestEnqueueDuplicateIDIgnored(t *testing.T) {
	t.Parallel()

	q, storage := newQueue(t, &stubDeliverer{}, nil)

	n := queue.Notification{
		ID:     "fixed-id",
		UserID: uuid.New(),
		Type:   notify.TypeFollow,
	}
	require.NoError(t, q.Enqueue(context.Background(), n))
	require.NoError(t, q.Enqueue(context.Background(), n), "re-enqueue of the same id is harmless")
	assert.Equal(t, 1, storage.Len())

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.TotalQueued)
}

func TestProcessPendingSkipsOfflineUsers(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deliverer := &stubDeliverer{result: true}
	presence := &stubPresence{online: map[uuid.UUID]bool{}}
	q, storage := newQueue(t, deliverer, presence)

	id := uuid.NewString()
	require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
		ID: id, UserID: userID, Type: notify.TypeReply,
	}))

	attempts, err := q.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, attempts, "offline users get no delivery attempt")
	assert.Zero(t, deliverer.callCount())

	stored, err := storage.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, stored.RetryCount, "a skip must not burn a retry")
	assert.Nil(t, stored.DeliveredAt)
}

func TestProcessPendingReachesPastOfflineBacklog(t *testing.T) {
	t.Parallel()

	onlineUser := uuid.New()
	deliverer := &stubDeliverer{result: true}
	presence := &stubPresence{online: map[uuid.UUID]bool{onlineUser: true}}
	q, storage := newQueue(t, deliverer, presence,
		queue.WithConfig(queue.Config{BatchSize: 2}))

	// Two critical entries for offline users sort ahead of the online
	// user's entry and fill a whole batch window on their own.
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"offline-a", "offline-b"} {
		require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
			ID:        id,
			UserID:    uuid.New(),
			Type:      notify.TypeMention,
			Priority:  notify.PriorityCritical,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
		ID:     "online",
		UserID: onlineUser,
		Type:   notify.TypeLike,
	}))

	attempts, err := q.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "a backlog of skipped entries must not hide due work")
	assert.Equal(t, 1, deliverer.callCount())

	stored, err := storage.Get(context.Background(), "online")
	require.NoError(t, err)
	assert.NotNil(t, stored.DeliveredAt)
}

func TestProcessPendingDeliversToOnlineUser(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deliverer := &stubDeliverer{result: true}
	presence := &stubPresence{online: map[uuid.UUID]bool{userID: true}}
	q, storage := newQueue(t, deliverer, presence)

	id := uuid.NewString()
	require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
		ID: id, UserID: userID, Type: notify.TypeComment,
	}))

	attempts, err := q.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, deliverer.callCount())

	stored, err := storage.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored.DeliveredAt)
	assert.Zero(t, stored.RetryCount, "success leaves the retry count untouched")

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.TotalDelivered)
	assert.Zero(t, stats.CurrentlyQueued)
}

func TestProcessPendingFailureSchedulesRetry(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deliverer := &stubDeliverer{result: false}
	presence := &stubPresence{online: map[uuid.UUID]bool{userID: true}}

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	q, storage := newQueue(t, deliverer, presence,
		queue.WithClock(func() time.Time { return now }),
		queue.WithBackoff(queue.LinearBackoff(30*time.Second)))

	id := uuid.NewString()
	require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
		ID: id, UserID: userID, Type: notify.TypeLike,
	}))

	attempts, err := q.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	stored, err := storage.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Nil(t, stored.DeliveredAt)
	require.NotNil(t, stored.NextRetryAt)
	assert.Equal(t, now.Add(30*time.Second), *stored.NextRetryAt)
}

func TestProcessPendingRetryCountMonotonic(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deliverer := &stubDeliverer{result: false}
	presence := &stubPresence{online: map[uuid.UUID]bool{userID: true}}

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	q, storage := newQueue(t, deliverer, presence,
		queue.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}))

	id := uuid.NewString()
	require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
		ID: id, UserID: userID, Type: notify.TypeRepost, MaxRetries: 3,
	}))

	// Run passes past the retry budget; the count must climb to the max
	// and freeze there.
	last := 0
	for range 5 {
		_, err := q.ProcessPending(context.Background())
		require.NoError(t, err)

		stored, err := storage.Get(context.Background(), id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stored.RetryCount, last)
		assert.LessOrEqual(t, stored.RetryCount, stored.MaxRetries)
		last = stored.RetryCount

		// Advance past any scheduled backoff before the next pass.
		mu.Lock()
		now = now.Add(time.Hour)
		mu.Unlock()
	}

	assert.Equal(t, 3, last)
	assert.Equal(t, 3, deliverer.callCount(), "exhausted entries are never attempted again")

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.TotalFailed)
}

func TestProcessPendingSkipsExhaustedEntry(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deliverer := &stubDeliverer{result: true}
	presence := &stubPresence{online: map[uuid.UUID]bool{userID: true}}
	q, storage := newQueue(t, deliverer, presence)

	id := uuid.NewString()
	require.NoError(t, storage.Create(context.Background(), &queue.Notification{
		ID:         id,
		UserID:     userID,
		Type:       notify.TypeLike,
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(time.Hour),
		RetryCount: 3,
		MaxRetries: 3,
	}))

	attempts, err := q.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, attempts)
	assert.Zero(t, deliverer.callCount(), "entries at max retries are terminal")

	stored, err := storage.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.RetryCount)
	assert.Nil(t, stored.DeliveredAt)
}

func TestProcessPendingHonorsScheduledFor(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deliverer := &stubDeliverer{result: true}
	presence := &stubPresence{online: map[uuid.UUID]bool{userID: true}}

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	q, _ := newQueue(t, deliverer, presence,
		queue.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}))

	future := now.Add(time.Hour)
	require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
		UserID:       userID,
		Type:         notify.TypeSystem,
		ScheduledFor: &future,
	}))

	attempts, err := q.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, attempts, "future-scheduled entries are invisible until due")

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	attempts, err = q.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestProcessPendingSingleFlight(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	release := make(chan struct{})
	started := make(chan struct{})
	deliverer := &blockingDeliverer{started: started, release: release}
	presence := &stubPresence{online: map[uuid.UUID]bool{userID: true}}
	q, _ := newQueue(t, deliverer, presence)

	require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
		UserID: userID, Type: notify.TypeLike,
	}))

	done := make(chan int, 1)
	go func() {
		attempts, _ := q.ProcessPending(context.Background())
		done <- attempts
	}()

	<-started

	// A pass is in flight; a second invocation must be a quiet no-op.
	attempts, err := q.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, attempts)

	close(release)
	assert.Equal(t, 1, <-done)
}

type blockingDeliverer struct {
	started   chan struct{}
	release   chan struct{}
	startOnce sync.Once
}

func (b *blockingDeliverer) Send(ctx context.Context, req notify.DeliveryRequest) bool {
	b.startOnce.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return true
}

func TestCleanupExpiredIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	q, _ := newQueue(t, &stubDeliverer{}, nil,
		queue.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}))

	require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
		UserID:   uuid.New(),
		Type:     notify.TypeLike,
		Priority: notify.PriorityLow, // 6h retention
	}))
	require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
		UserID:   uuid.New(),
		Type:     notify.TypeMention,
		Priority: notify.PriorityCritical, // 7d retention
	}))

	mu.Lock()
	now = now.Add(12 * time.Hour)
	mu.Unlock()

	removed, err := q.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "only the low-priority entry is past retention")

	removed, err = q.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed, "a second sweep with no new arrivals removes nothing")
}

func TestStatsByType(t *testing.T) {
	t.Parallel()

	q, _ := newQueue(t, &stubDeliverer{}, nil)

	for range 2 {
		require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
			UserID: uuid.New(), Type: notify.TypeLike,
		}))
	}
	require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
		UserID: uuid.New(), Type: notify.TypeFollow,
	}))

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.TotalQueued)
	assert.Equal(t, 3, stats.CurrentlyQueued)
	assert.Equal(t, map[string]int{
		notify.TypeLike:   2,
		notify.TypeFollow: 1,
	}, stats.QueuedByType)
}

func TestProcessPendingCancellation(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deliverer := &stubDeliverer{result: false}
	presence := &stubPresence{online: map[uuid.UUID]bool{userID: true}}
	q, storage := newQueue(t, deliverer, presence)

	id := uuid.NewString()
	require.NoError(t, q.Enqueue(context.Background(), queue.Notification{
		ID: id, UserID: userID, Type: notify.TypeLike,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.ProcessPending(ctx)
	require.Error(t, err)

	// No partial state: the cancelled pass left the entry untouched.
	stored, err := storage.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, stored.RetryCount)
	assert.Nil(t, stored.NextRetryAt)
}
