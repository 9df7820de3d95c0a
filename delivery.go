package notify

import "github.com/google/uuid"

// DeliveryRequest is the transport-agnostic unit handed to providers. It
// carries everything a backend needs to render and route one notification
// to one user; providers must not mutate it.
type DeliveryRequest struct {
	UserID   uuid.UUID      `json:"user_id"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Priority Priority       `json:"priority"`
	Data     map[string]any `json:"data,omitempty"`
}
