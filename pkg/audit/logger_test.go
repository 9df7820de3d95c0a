package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapplr/notify/pkg/audit"
)

func TestLoggerFillsDefaults(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := audit.NewMemoryStorage()
	log := audit.NewLogger(store, audit.WithClock(func() time.Time { return fixed }))

	err := log.Log(context.Background(), audit.Event{
		EventType: audit.EventContentFiltered,
	})
	require.NoError(t, err)

	events, err := store.Query(context.Background(), audit.Criteria{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, audit.SeverityInfo, got.Severity)
	assert.Equal(t, fixed, got.CreatedAt)
}

func TestLoggerPreservesExplicitFields(t *testing.T) {
	t.Parallel()

	store := audit.NewMemoryStorage()
	log := audit.NewLogger(store)

	createdAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	err := log.Log(context.Background(), audit.Event{
		ID:        "evt-1",
		EventType: audit.EventSuspiciousLink,
		Severity:  audit.SeverityCritical,
		CreatedAt: createdAt,
	})
	require.NoError(t, err)

	events, err := store.Query(context.Background(), audit.Criteria{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, audit.SeverityCritical, events[0].Severity)
	assert.Equal(t, createdAt, events[0].CreatedAt)
}

func TestLoggerValidation(t *testing.T) {
	t.Parallel()

	log := audit.NewLogger(audit.NewMemoryStorage())

	t.Run("missing event type", func(t *testing.T) {
		t.Parallel()
		err := log.Log(context.Background(), audit.Event{})
		assert.ErrorIs(t, err, audit.ErrEventValidation)
	})

	t.Run("unknown severity", func(t *testing.T) {
		t.Parallel()
		err := log.Log(context.Background(), audit.Event{
			EventType: audit.EventRateLimitViolation,
			Severity:  audit.Severity("shrug"),
		})
		assert.ErrorIs(t, err, audit.ErrEventValidation)
	})
}

func TestLogSecurityOptions(t *testing.T) {
	t.Parallel()

	store := audit.NewMemoryStorage()
	log := audit.NewLogger(store)
	userID := uuid.New()

	err := log.LogSecurity(context.Background(), audit.EventRateLimitViolation,
		audit.WithUser(userID),
		audit.WithSeverity(audit.SeverityWarning),
		audit.WithDescription("burst limit exceeded for type like"),
		audit.WithIP("203.0.113.7"),
		audit.WithUserAgent("yapplr-ios/2.4"),
		audit.WithMetadata("notification_type", "like"),
		audit.WithMetadata("violation", "burst"),
	)
	require.NoError(t, err)

	events, err := store.Query(context.Background(), audit.Criteria{UserID: userID})
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, audit.EventRateLimitViolation, got.EventType)
	assert.Equal(t, audit.SeverityWarning, got.Severity)
	assert.Equal(t, "burst limit exceeded for type like", got.Description)
	assert.Equal(t, "203.0.113.7", got.IP)
	assert.Equal(t, "yapplr-ios/2.4", got.UserAgent)
	assert.Equal(t, "like", got.Metadata["notification_type"])
	assert.Equal(t, "burst", got.Metadata["violation"])
}

func TestNewLoggerPanicsOnNilStorage(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		audit.NewLogger(nil)
	})
}
