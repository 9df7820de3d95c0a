package queue

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStorage keeps queued notifications in a map guarded by a mutex. It is
// meant for tests and single-node deployments; entries do not survive a
// restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]*Notification
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]*Notification),
	}
}

// Create implements Storage.
func (ms *MemoryStorage) Create(ctx context.Context, n *Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.entries[n.ID]; exists {
		return ErrAlreadyExists
	}
	ms.entries[n.ID] = clone(n)
	return nil
}

// Get implements Storage.
func (ms *MemoryStorage) Get(ctx context.Context, id string) (*Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	n, exists := ms.entries[id]
	if !exists {
		return nil, ErrNotFound
	}
	return clone(n), nil
}

// ListDue implements Storage using a priority-first, oldest-first order so
// critical entries go out before backlog within the same pass.
func (ms *MemoryStorage) ListDue(ctx context.Context, now time.Time, limit int) ([]*Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var due []*Notification
	for _, n := range ms.entries {
		if n.Due(now) {
			due = append(due, n)
		}
	}

	slices.SortFunc(due, func(a, b *Notification) int {
		if a.Priority != b.Priority {
			return int(b.Priority) - int(a.Priority)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return strings.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]*Notification, len(due))
	for i, n := range due {
		out[i] = clone(n)
	}
	return out, nil
}

// MarkDelivered implements Storage. Already-delivered entries keep their
// original stamp.
func (ms *MemoryStorage) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	n, exists := ms.entries[id]
	if !exists {
		return ErrNotFound
	}
	if n.DeliveredAt == nil {
		n.DeliveredAt = &at
	}
	return nil
}

// ScheduleRetry implements Storage.
func (ms *MemoryStorage) ScheduleRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	n, exists := ms.entries[id]
	if !exists {
		return ErrNotFound
	}
	n.RetryCount = retryCount
	n.NextRetryAt = &nextRetryAt
	return nil
}

// DeleteExpired implements Storage. Delivered entries are history, not
// backlog; they stay in place regardless of their expiration and are left to
// whatever retention the deployment applies.
func (ms *MemoryStorage) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	removed := 0
	for id, n := range ms.entries {
		if n.Delivered() || !n.Expired(now) {
			continue
		}
		delete(ms.entries, id)
		removed++
	}
	return removed, nil
}

// Counts implements Storage.
func (ms *MemoryStorage) Counts(ctx context.Context) (int, map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	now := time.Now()
	total := 0
	byType := make(map[string]int)
	for _, n := range ms.entries {
		if n.Delivered() || n.Expired(now) {
			continue
		}
		total++
		byType[n.Type]++
	}
	return total, byType, nil
}

// Len reports the number of stored entries, delivered ones included.
func (ms *MemoryStorage) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.entries)
}

func clone(n *Notification) *Notification {
	c := *n
	c.Data = maps.Clone(n.Data)
	c.ScheduledFor = cloneTime(n.ScheduledFor)
	c.DeliveredAt = cloneTime(n.DeliveredAt)
	c.NextRetryAt = cloneTime(n.NextRetryAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
