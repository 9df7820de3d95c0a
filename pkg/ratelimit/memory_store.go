package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sliding windows of send timestamps per key. A denied
// attempt is not recorded, so callers never pay for rejected sends. Suited
// to tests and single-node deployments; use RedisStore behind multiple
// replicas.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

type window struct {
	stamps []time.Time
	ttl    time.Duration
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval overrides how often idle keys are evicted.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// NewMemoryStore builds the store and starts its eviction loop. Call Close
// when discarding the store to stop the loop.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		windows:         make(map[string]*window),
		cleanupInterval: time.Minute,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// Hit implements Store. The prune, check, and record happen under one lock,
// so concurrent callers can never admit more than limit sends per window.
func (s *MemoryStore) Hit(ctx context.Context, key string, limit int, ttl time.Duration) (Hit, error) {
	if err := ctx.Err(); err != nil {
		return Hit{}, err
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		w = &window{ttl: ttl}
		s.windows[key] = w
	}
	w.ttl = ttl
	w.prune(now)

	if len(w.stamps) >= limit {
		return Hit{
			Count:   int64(len(w.stamps)),
			Allowed: false,
			ResetAt: w.stamps[0].Add(ttl),
		}, nil
	}

	w.stamps = append(w.stamps, now)
	return Hit{
		Count:   int64(len(w.stamps)),
		Allowed: true,
		ResetAt: w.stamps[0].Add(ttl),
	}, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(ctx context.Context, key string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.windows, key)
	s.mu.Unlock()
	return nil
}

// Close stops the eviction loop. Safe to call more than once.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.ttl)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, w := range s.windows {
				w.prune(now)
				if len(w.stamps) == 0 {
					delete(s.windows, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
