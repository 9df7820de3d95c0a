package realtime

import (
	"container/list"
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/yapplr/notify"
)

const (
	// DefaultBufferSize is the per-subscription channel buffer.
	DefaultBufferSize = 16

	// DefaultMaxTrackedUsers bounds the hub's user bookkeeping.
	DefaultMaxTrackedUsers = 10000
)

// Hub fans delivery requests out to live per-user subscriptions.
// Publishes to users without a subscription are cheap no-ops, which is
// the common case: most recipients are offline at send time.
//
// Slow subscribers are dropped rather than blocking a publish. User
// entries are kept after their last subscription closes so reconnect
// churn stays cheap; the least recently active idle entries are evicted
// once the tracked set outgrows its bound.
type Hub struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*userEntry
	order *list.List // back = least recently active user

	bufferSize int
	maxUsers   int
	log        *slog.Logger

	closed bool
	wg     sync.WaitGroup
}

type userEntry struct {
	elem          *list.Element // holds uuid.UUID
	subscriptions map[string]*Subscription
}

// Option configures the hub.
type Option func(*Hub)

// WithBufferSize sets the per-subscription channel buffer. A minimum
// of one is enforced so sends stay non-blocking.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		h.bufferSize = max(n, 1)
	}
}

// WithMaxTrackedUsers bounds how many users the hub remembers. Users
// with live subscriptions are never evicted.
func WithMaxTrackedUsers(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.maxUsers = n
		}
	}
}

// WithLogger attaches a logger for drop diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		users:      make(map[uuid.UUID]*userEntry),
		order:      list.New(),
		bufferSize: DefaultBufferSize,
		maxUsers:   DefaultMaxTrackedUsers,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe opens a delivery stream for userID. The subscription
// closes itself when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	if userID == uuid.Nil {
		return nil, ErrNilUser
	}

	subCtx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		return nil, ErrHubClosed
	}

	sub := &Subscription{
		id:     uuid.New().String(),
		userID: userID,
		ch:     make(chan notify.DeliveryRequest, h.bufferSize),
		cancel: cancel,
		hub:    h,
	}

	entry := h.touch(userID)
	entry.subscriptions[sub.id] = sub
	h.evictIdle()
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		<-subCtx.Done()
		_ = sub.Close()
	}()

	return sub, nil
}

// Publish offers req to every live subscription of userID. It returns
// true when at least one subscription accepted it. Subscriptions whose
// buffers are full are dropped so a publish never blocks.
func (h *Hub) Publish(ctx context.Context, userID uuid.UUID, req notify.DeliveryRequest) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return false
	}
	entry, ok := h.users[userID]
	if !ok || len(entry.subscriptions) == 0 {
		h.mu.RUnlock()
		return false
	}

	delivered := false
	var slow []*Subscription
	for _, sub := range entry.subscriptions {
		if sub.send(req) {
			delivered = true
		} else {
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.log.DebugContext(ctx, "dropping slow realtime subscriber",
			slog.String("user_id", userID.String()),
			slog.String("subscription_id", sub.id),
		)
		go sub.Close()
	}

	if delivered {
		h.mu.Lock()
		if !h.closed {
			h.touch(userID)
		}
		h.mu.Unlock()
	}
	return delivered
}

// IsOnline reports whether the user holds at least one live
// subscription. The error return matches the presence trackers so the
// hub can stand in as a presence source.
func (h *Hub) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return h.SubscriberCount(userID) > 0, nil
}

// SubscriberCount returns the number of live subscriptions for a user.
func (h *Hub) SubscriberCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.users[userID]
	if !ok {
		return 0
	}
	return len(entry.subscriptions)
}

// TrackedUsers returns the size of the user bookkeeping, including
// idle entries that have not been evicted yet.
func (h *Hub) TrackedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}

// Close shuts the hub down and closes every subscription.
// Safe to call more than once.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true

	var subs []*Subscription
	for _, entry := range h.users {
		for _, sub := range entry.subscriptions {
			subs = append(subs, sub)
		}
	}
	clear(h.users)
	h.order.Init()
	h.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	h.wg.Wait()
	return nil
}

// touch returns the user entry, creating it if needed, and marks it as
// most recently active. Callers hold mu.
func (h *Hub) touch(userID uuid.UUID) *userEntry {
	if entry, ok := h.users[userID]; ok {
		h.order.MoveToFront(entry.elem)
		return entry
	}

	entry := &userEntry{
		elem:          h.order.PushFront(userID),
		subscriptions: make(map[string]*Subscription),
	}
	h.users[userID] = entry
	return entry
}

// evictIdle removes least recently active users without subscriptions
// until the tracked set fits the bound. Callers hold mu.
func (h *Hub) evictIdle() {
	for elem := h.order.Back(); elem != nil && len(h.users) > h.maxUsers; {
		prev := elem.Prev()
		userID := elem.Value.(uuid.UUID)
		if entry := h.users[userID]; entry != nil && len(entry.subscriptions) == 0 {
			h.order.Remove(elem)
			delete(h.users, userID)
		}
		elem = prev
	}
}

// forget drops a subscription from its user entry. The entry itself
// stays registered until eviction so reconnects reuse it.
func (h *Hub) forget(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	if entry, ok := h.users[sub.userID]; ok {
		delete(entry.subscriptions, sub.id)
	}
}
