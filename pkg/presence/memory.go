package presence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryTracker keeps presence in process memory. Suited to tests and
// single-instance deployments; a multi-instance fleet needs the redis
// tracker so every instance sees the same connections.
type MemoryTracker struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[string]time.Time // connID -> last seen

	ttl       time.Duration
	now       func() time.Time
	stop      chan struct{}
	stopOnce  sync.Once
	janitorWg sync.WaitGroup
}

// MemoryOption configures the tracker.
type MemoryOption func(*MemoryTracker)

// WithTTL overrides the liveness window.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(t *MemoryTracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(t *MemoryTracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewMemoryTracker creates a tracker and starts a janitor that sweeps
// expired connections. Call Close to stop it.
func NewMemoryTracker(opts ...MemoryOption) *MemoryTracker {
	t := &MemoryTracker{
		users: make(map[uuid.UUID]map[string]time.Time),
		ttl:   DefaultTTL,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.janitorWg.Add(1)
	go t.janitor()
	return t
}

func (t *MemoryTracker) Connect(ctx context.Context, userID uuid.UUID, connID string) error {
	if err := validate(userID, connID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	conns, ok := t.users[userID]
	if !ok {
		conns = make(map[string]time.Time)
		t.users[userID] = conns
	}
	conns[connID] = t.now()
	t.mu.Unlock()
	return nil
}

func (t *MemoryTracker) Disconnect(ctx context.Context, userID uuid.UUID, connID string) error {
	if err := validate(userID, connID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	if conns, ok := t.users[userID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(t.users, userID)
		}
	}
	t.mu.Unlock()
	return nil
}

// Heartbeat refreshes the connection. An unknown connection is
// re-registered, so a client that missed a beat past the TTL recovers
// on its next one.
func (t *MemoryTracker) Heartbeat(ctx context.Context, userID uuid.UUID, connID string) error {
	return t.Connect(ctx, userID, connID)
}

func (t *MemoryTracker) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, ErrNilUser
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	cutoff := t.now().Add(-t.ttl)

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, seen := range t.users[userID] {
		if seen.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

// Online returns the number of users with at least one live
// connection.
func (t *MemoryTracker) Online() int {
	cutoff := t.now().Add(-t.ttl)

	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, conns := range t.users {
		for _, seen := range conns {
			if seen.After(cutoff) {
				n++
				break
			}
		}
	}
	return n
}

// Close stops the janitor. The tracker remains usable but expired
// connections are only pruned lazily afterwards.
func (t *MemoryTracker) Close() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
	t.janitorWg.Wait()
}

func (t *MemoryTracker) janitor() {
	defer t.janitorWg.Done()

	ticker := time.NewTicker(t.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.sweep()
		case <-t.stop:
			return
		}
	}
}

func (t *MemoryTracker) sweep() {
	cutoff := t.now().Add(-t.ttl)

	t.mu.Lock()
	defer t.mu.Unlock()
	for userID, conns := range t.users {
		for connID, seen := range conns {
			if !seen.After(cutoff) {
				delete(conns, connID)
			}
		}
		if len(conns) == 0 {
			delete(t.users, userID)
		}
	}
}
