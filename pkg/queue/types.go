package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/yapplr/notify"
)

// Notification is one store-and-forward entry: a notification that could not
// be (or was not meant to be) delivered immediately and waits for a
// processing pass. The zero value is not usable; Enqueue fills defaults.
type Notification struct {
	ID           string          `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         string          `json:"type"`
	Title        string          `json:"title"`
	Body         string          `json:"body"`
	Priority     notify.Priority `json:"priority"`
	Data         map[string]any  `json:"data,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ScheduledFor *time.Time      `json:"scheduled_for,omitempty"`
	ExpiresAt    time.Time       `json:"expires_at"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	NextRetryAt  *time.Time      `json:"next_retry_at,omitempty"`
}

// Delivered reports whether the entry has been successfully delivered.
func (n *Notification) Delivered() bool {
	return n.DeliveredAt != nil
}

// Exhausted reports whether the entry has used up all retries. Exhausted
// entries are frozen: never attempted again, removed once expired.
func (n *Notification) Exhausted() bool {
	return n.RetryCount >= n.MaxRetries
}

// Expired reports whether the entry is past its expiration at now.
func (n *Notification) Expired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && !now.Before(n.ExpiresAt)
}

// Due reports whether a processing pass at now should attempt this entry:
// undelivered, unexpired, retries remaining, scheduled time reached, and any
// retry backoff elapsed.
func (n *Notification) Due(now time.Time) bool {
	if n.Delivered() || n.Exhausted() || n.Expired(now) {
		return false
	}
	if n.ScheduledFor != nil && n.ScheduledFor.After(now) {
		return false
	}
	if n.NextRetryAt != nil && n.NextRetryAt.After(now) {
		return false
	}
	return true
}

// DeliveryRequest converts the entry to the transport unit providers accept.
func (n *Notification) DeliveryRequest() notify.DeliveryRequest {
	return notify.DeliveryRequest{
		UserID:   n.UserID,
		Type:     n.Type,
		Title:    n.Title,
		Body:     n.Body,
		Priority: n.Priority,
		Data:     n.Data,
	}
}

// Stats is a point-in-time view of queue activity. The totals are monotonic
// process-lifetime counters; CurrentlyQueued and QueuedByType come from
// storage and survive restarts.
type Stats struct {
	TotalQueued     uint64         `json:"total_queued"`
	TotalDelivered  uint64         `json:"total_delivered"`
	TotalFailed     uint64         `json:"total_failed"`
	CurrentlyQueued int            `json:"currently_queued"`
	QueuedByType    map[string]int `json:"queued_by_type"`
}
