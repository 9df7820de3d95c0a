package provider

import (
	"context"

	"github.com/yapplr/notify"
	"github.com/yapplr/notify/pkg/realtime"
)

// RealtimeProvider pushes through the in-process realtime hub. It sits
// first in the provider order: delivery succeeds exactly when the user
// has a live subscription, and costs almost nothing when they do not.
type RealtimeProvider struct {
	hub *realtime.Hub
}

// NewRealtimeProvider wraps an existing hub.
func NewRealtimeProvider(hub *realtime.Hub) *RealtimeProvider {
	if hub == nil {
		panic("provider: hub cannot be nil")
	}
	return &RealtimeProvider{hub: hub}
}

func (p *RealtimeProvider) Name() string {
	return "realtime"
}

func (p *RealtimeProvider) Available(ctx context.Context) bool {
	return true
}

func (p *RealtimeProvider) Send(ctx context.Context, req notify.DeliveryRequest) bool {
	return p.hub.Publish(ctx, req.UserID, req)
}
