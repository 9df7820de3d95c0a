package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yapplr/notify"
)

// Subscription is one live delivery stream for a user. A user may hold
// several subscriptions at once (one per device or tab).
type Subscription struct {
	id        string
	userID    uuid.UUID
	ch        chan notify.DeliveryRequest
	cancel    context.CancelFunc
	hub       *Hub
	closeOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

// UserID returns the user this subscription belongs to.
func (s *Subscription) UserID() uuid.UUID {
	return s.userID
}

// Receive returns the channel delivery requests arrive on. The channel
// is closed when the subscription closes.
func (s *Subscription) Receive() <-chan notify.DeliveryRequest {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
// Idempotent and safe to call concurrently with Publish.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.hub.forget(s)

		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
	return nil
}

// send attempts a non-blocking delivery. False means the subscription
// is closed or its buffer is full.
func (s *Subscription) send(req notify.DeliveryRequest) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- req:
		return true
	default:
		return false
	}
}
