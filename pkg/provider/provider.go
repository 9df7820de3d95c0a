package provider

import (
	"context"

	"github.com/yapplr/notify"
)

// Provider delivers a notification through one concrete channel.
// Implementations report plain booleans: a false from Send means this
// provider did not get the notification to the user, whatever the
// reason, and the caller moves on. Providers must not panic across
// this boundary; the manager still recovers if one does.
type Provider interface {
	// Name identifies the provider in logs, metrics and stats.
	Name() string

	// Available reports whether the provider is currently usable.
	// Unavailable providers are skipped without counting as attempts.
	Available(ctx context.Context) bool

	// Send attempts delivery. It honors ctx cancellation and returns
	// whether the user received the notification via this channel.
	Send(ctx context.Context, req notify.DeliveryRequest) bool
}
