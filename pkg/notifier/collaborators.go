package notifier

import (
	"context"

	"github.com/google/uuid"

	"github.com/yapplr/notify"
	"github.com/yapplr/notify/pkg/queue"
)

// Preferences decides whether a user wants notifications of a given type.
// A false without error is a plain policy rejection: nothing is persisted,
// nothing delivered, nothing audited.
type Preferences interface {
	ShouldSend(ctx context.Context, userID uuid.UUID, notificationType string) (bool, error)
}

// PreferencesFunc adapts a function to the Preferences interface.
type PreferencesFunc func(ctx context.Context, userID uuid.UUID, notificationType string) (bool, error)

func (f PreferencesFunc) ShouldSend(ctx context.Context, userID uuid.UUID, notificationType string) (bool, error) {
	return f(ctx, userID, notificationType)
}

// allowAll is the default preference policy.
type allowAll struct{}

func (allowAll) ShouldSend(context.Context, uuid.UUID, string) (bool, error) {
	return true, nil
}

// Presence answers whether the user currently holds a live connection.
// Satisfied by presence trackers and the realtime hub.
type Presence interface {
	IsOnline(ctx context.Context, userID uuid.UUID) (bool, error)
}

// alwaysOffline is the default presence oracle: without one, every send goes
// through the queue, which is the safe store-and-forward behavior.
type alwaysOffline struct{}

func (alwaysOffline) IsOnline(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

// Deliverer attempts immediate delivery over the provider layer. Satisfied
// by *provider.Manager.
type Deliverer interface {
	Send(ctx context.Context, req notify.DeliveryRequest) bool
	Available(ctx context.Context) bool
}

// Queue accepts notifications for deferred delivery. Satisfied by
// *queue.Queue.
type Queue interface {
	Enqueue(ctx context.Context, n queue.Notification) error
}
