package telemetry_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapplr/notify/pkg/telemetry"
)

func TestPrometheusBridge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rec := telemetry.NewRecorder(telemetry.WithPrometheus(reg))
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, telemetry.Event{Stage: telemetry.StageStart, Type: "like"}))
	require.NoError(t, rec.Record(ctx, telemetry.Event{Stage: telemetry.StageStart, Type: "like"}))
	require.NoError(t, rec.Record(ctx, telemetry.Event{
		Stage: telemetry.StageComplete, Type: "like", Provider: "realtime",
		Success: true, Latency: 8 * time.Millisecond,
	}))
	require.NoError(t, rec.Record(ctx, telemetry.Event{
		Stage: telemetry.StageComplete, Type: "like", Provider: "webhook",
		Success: false, Latency: 5 * time.Second,
	}))

	expected := `
		# HELP yapplr_notifications_sent_total Notifications accepted into the delivery pipeline
		# TYPE yapplr_notifications_sent_total counter
		yapplr_notifications_sent_total{type="like"} 2
		# HELP yapplr_notifications_delivered_total Notifications delivered to a provider
		# TYPE yapplr_notifications_delivered_total counter
		yapplr_notifications_delivered_total{provider="realtime",type="like"} 1
		# HELP yapplr_notifications_failed_total Notification deliveries that failed
		# TYPE yapplr_notifications_failed_total counter
		yapplr_notifications_failed_total{provider="webhook",type="like"} 1
	`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"yapplr_notifications_sent_total",
		"yapplr_notifications_delivered_total",
		"yapplr_notifications_failed_total",
	))

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "yapplr_notification_delivery_duration_seconds")
}

func TestRecorderWithoutPrometheus(t *testing.T) {
	t.Parallel()

	rec := telemetry.NewRecorder()
	require.NoError(t, rec.Record(context.Background(), telemetry.Event{
		Stage: telemetry.StageComplete, Type: "like", Provider: "realtime", Success: true,
	}))
	assert.Equal(t, uint64(1), rec.Snapshot().Delivered)
}
