package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity classifies how alarming an audit event is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// Event types emitted by the notification pipeline.
const (
	EventRateLimitViolation  = "rate_limit_violation"
	EventContentFiltered     = "content_filtered"
	EventSuspiciousLink      = "suspicious_link"
	EventNotificationBlocked = "notification_blocked"
	EventQueueOverflow       = "queue_overflow"
)

// Event is a single security audit log entry.
type Event struct {
	ID          string         `json:"id"`
	UserID      uuid.UUID      `json:"user_id,omitempty"`
	EventType   string         `json:"event_type"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description,omitempty"`
	IP          string         `json:"ip,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Validate checks that the event carries the required fields.
func (e *Event) Validate() error {
	if e.EventType == "" {
		return fmt.Errorf("%w: event type is required", ErrEventValidation)
	}
	if !e.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", ErrEventValidation, e.Severity)
	}
	return nil
}

// Criteria narrows Query and Count results. Zero values match everything.
type Criteria struct {
	UserID    uuid.UUID
	EventType string
	Severity  Severity
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// Matches reports whether the event satisfies every set field of the
// criteria. Limit and Offset are applied by storages, not here.
func (c Criteria) Matches(e Event) bool {
	if c.UserID != uuid.Nil && e.UserID != c.UserID {
		return false
	}
	if c.EventType != "" && e.EventType != c.EventType {
		return false
	}
	if c.Severity != "" && e.Severity != c.Severity {
		return false
	}
	if !c.From.IsZero() && e.CreatedAt.Before(c.From) {
		return false
	}
	if !c.To.IsZero() && !e.CreatedAt.Before(c.To) {
		return false
	}
	return true
}
