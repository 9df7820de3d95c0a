package logger

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Error records a single error under the key "error".
// Nil errors produce an empty Attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the target user under the key "user_id".
func UserID(id uuid.UUID) slog.Attr {
	return slog.String("user_id", id.String())
}

// NotificationID records a persisted notification id.
func NotificationID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("notification_id", id)
}

// NotificationType records the notification type tag.
func NotificationType(t string) slog.Attr {
	return slog.String("notification_type", t)
}

// Provider records the delivery backend name.
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// TrackingID correlates telemetry start/complete pairs.
func TrackingID(id string) slog.Attr {
	return slog.String("tracking_id", id)
}

// Component names the pipeline component emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Retry records the retry attempt number.
func Retry(n int) slog.Attr {
	return slog.Int("retry", n)
}

// Latency records an operation duration in milliseconds.
func Latency(d time.Duration) slog.Attr {
	return slog.Int64("latency_ms", d.Milliseconds())
}
