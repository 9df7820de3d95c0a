package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Logger records security events from the notification pipeline.
type Logger interface {
	// Log fills defaults (ID, CreatedAt, Severity), validates the event
	// and writes it to storage.
	Log(ctx context.Context, event Event) error

	// LogSecurity is a convenience wrapper building the event from an
	// event type plus options.
	LogSecurity(ctx context.Context, eventType string, opts ...EventOption) error
}

type logger struct {
	storage Storage
	now     func() time.Time
}

// Option configures the logger.
type Option func(*logger)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(l *logger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLogger creates an audit logger writing to storage.
func NewLogger(storage Storage, opts ...Option) Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &logger{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *logger) Log(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = l.now()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}

	if err := event.Validate(); err != nil {
		return err
	}
	return l.storage.Store(ctx, event)
}

func (l *logger) LogSecurity(ctx context.Context, eventType string, opts ...EventOption) error {
	event := Event{EventType: eventType}
	for _, opt := range opts {
		opt(&event)
	}
	return l.Log(ctx, event)
}

// EventOption mutates an event before it is logged.
type EventOption func(*Event)

// WithUser attributes the event to a user.
func WithUser(userID uuid.UUID) EventOption {
	return func(e *Event) {
		e.UserID = userID
	}
}

// WithSeverity sets the event severity.
func WithSeverity(s Severity) EventOption {
	return func(e *Event) {
		e.Severity = s
	}
}

// WithDescription sets the human-readable description.
func WithDescription(desc string) EventOption {
	return func(e *Event) {
		e.Description = desc
	}
}

// WithIP records the client IP the event originated from.
func WithIP(ip string) EventOption {
	return func(e *Event) {
		e.IP = ip
	}
}

// WithUserAgent records the client user agent.
func WithUserAgent(ua string) EventOption {
	return func(e *Event) {
		e.UserAgent = ua
	}
}

// WithMetadata merges a key/value pair into the event metadata.
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}
