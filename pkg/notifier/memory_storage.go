package notifier

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yapplr/notify"
)

// MemoryStorage keeps notification records in memory. It serves tests and
// single-node setups; records do not survive a restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Notification
	byUser  map[uuid.UUID][]uuid.UUID
	nowFunc func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byID:    make(map[uuid.UUID]*Notification),
		byUser:  make(map[uuid.UUID][]uuid.UUID),
		nowFunc: time.Now,
	}
}

// Create implements Storage.
func (ms *MemoryStorage) Create(ctx context.Context, n *Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored := *n
	ms.byID[n.ID] = &stored
	ms.byUser[n.UserID] = append(ms.byUser[n.UserID], n.ID)
	return nil
}

// List implements Storage. Message-type records are excluded.
func (ms *MemoryStorage) List(ctx context.Context, userID uuid.UUID, page Page) ([]Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var items []Notification
	for _, id := range ms.byUser[userID] {
		n := ms.byID[id]
		if n.Type == notify.TypeMessage {
			continue
		}
		items = append(items, *n)
	}

	slices.SortFunc(items, func(a, b Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if page.Offset >= len(items) {
		return nil, nil
	}
	items = items[page.Offset:]
	if page.Limit > 0 && len(items) > page.Limit {
		items = items[:page.Limit]
	}
	return items, nil
}

// CountUnread implements Storage.
func (ms *MemoryStorage) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	count := 0
	for _, id := range ms.byUser[userID] {
		n := ms.byID[id]
		if n.Type != notify.TypeMessage && !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead implements Storage.
func (ms *MemoryStorage) MarkRead(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	n, ok := ms.byID[id]
	if !ok {
		return ErrNotFound
	}
	if !n.Read {
		now := ms.nowFunc()
		n.Read = true
		n.ReadAt = &now
	}
	return nil
}

// MarkSeen implements Storage.
func (ms *MemoryStorage) MarkSeen(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	n, ok := ms.byID[id]
	if !ok {
		return ErrNotFound
	}
	if !n.Seen {
		now := ms.nowFunc()
		n.Seen = true
		n.SeenAt = &now
	}
	return nil
}

// MarkAllRead implements Storage, skipping message-type records.
func (ms *MemoryStorage) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.nowFunc()
	changed := 0
	for _, id := range ms.byUser[userID] {
		n := ms.byID[id]
		if n.Type == notify.TypeMessage || n.Read {
			continue
		}
		n.Read = true
		n.ReadAt = &now
		changed++
	}
	return changed, nil
}

// MarkAllSeen implements Storage, skipping message-type records.
func (ms *MemoryStorage) MarkAllSeen(ctx context.Context, userID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.nowFunc()
	changed := 0
	for _, id := range ms.byUser[userID] {
		n := ms.byID[id]
		if n.Type == notify.TypeMessage || n.Seen {
			continue
		}
		n.Seen = true
		n.SeenAt = &now
		changed++
	}
	return changed, nil
}

// Get returns a record by id. Test helper; not part of Storage.
func (ms *MemoryStorage) Get(id uuid.UUID) (Notification, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	n, ok := ms.byID[id]
	if !ok {
		return Notification{}, false
	}
	return *n, true
}

// Len reports the number of stored records, message-type included.
func (ms *MemoryStorage) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.byID)
}
