package notifier

import (
	"time"

	"github.com/google/uuid"

	"github.com/yapplr/notify"
)

// Request describes one notification to send. It carries no identity; the
// service assigns an id to the persisted record it creates on acceptance.
type Request struct {
	UserID    uuid.UUID
	Type      string
	Title     string
	Body      string
	Priority  notify.Priority
	Data      map[string]any
	ActorID   *uuid.UUID
	PostID    *uuid.UUID
	CommentID *uuid.UUID
}

// DeliveryRequest converts the request to the transport unit handed to
// providers and the queue.
func (r Request) DeliveryRequest() notify.DeliveryRequest {
	return notify.DeliveryRequest{
		UserID:   r.UserID,
		Type:     r.Type,
		Title:    r.Title,
		Body:     r.Body,
		Priority: r.Priority,
		Data:     r.Data,
	}
}

// Notification is the durable record behind the in-app notification center.
// It is created once a send passes the preference and rate-limit gates,
// before any delivery attempt, and is never physically deleted by this
// service; retention is an external concern.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	PostID    *uuid.UUID `json:"post_id,omitempty"`
	CommentID *uuid.UUID `json:"comment_id,omitempty"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	Seen      bool       `json:"seen"`
	SeenAt    *time.Time `json:"seen_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Stats aggregates pipeline activity for the stats endpoint.
type Stats struct {
	TotalSent   uint64            `json:"total_sent"`
	ByType      map[string]uint64 `json:"by_type"`
	LastUpdated time.Time         `json:"last_updated"`
}

// Page bounds a notification listing.
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
