package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapplr/notify/pkg/telemetry"
)

func TestRecordRejectsUnknownStage(t *testing.T) {
	t.Parallel()

	rec := telemetry.NewRecorder()
	err := rec.Record(context.Background(), telemetry.Event{Stage: "pending"})
	assert.ErrorIs(t, err, telemetry.ErrUnknownStage)
}

func TestSnapshotCounts(t *testing.T) {
	t.Parallel()

	rec := telemetry.NewRecorder()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, rec.Record(ctx, telemetry.Event{
			TrackingID: uuid.NewString(),
			Stage:      telemetry.StageStart,
			Type:       "like",
		}))
	}
	require.NoError(t, rec.Record(ctx, telemetry.Event{Stage: telemetry.StageComplete, Type: "like", Provider: "realtime", Success: true}))
	require.NoError(t, rec.Record(ctx, telemetry.Event{Stage: telemetry.StageComplete, Type: "like", Provider: "realtime", Success: true}))
	require.NoError(t, rec.Record(ctx, telemetry.Event{Stage: telemetry.StageComplete, Type: "like", Provider: "webhook", Success: false, Error: "timeout"}))

	stats := rec.Snapshot()
	assert.Equal(t, uint64(3), stats.Sent)
	assert.Equal(t, uint64(2), stats.Delivered)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 0.001)
}

func TestAllTimeMetrics(t *testing.T) {
	t.Parallel()

	rec := telemetry.NewRecorder()
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, telemetry.Event{Stage: telemetry.StageStart, Type: "mention"}))
	require.NoError(t, rec.Record(ctx, telemetry.Event{Stage: telemetry.StageStart, Type: "follow"}))
	require.NoError(t, rec.Record(ctx, telemetry.Event{
		Stage: telemetry.StageComplete, Type: "mention", Provider: "realtime",
		Success: true, Latency: 10 * time.Millisecond,
	}))
	require.NoError(t, rec.Record(ctx, telemetry.Event{
		Stage: telemetry.StageComplete, Type: "follow", Provider: "realtime",
		Success: true, Latency: 30 * time.Millisecond,
	}))

	m := rec.Metrics(telemetry.Window{})
	assert.Equal(t, uint64(2), m.Sent)
	assert.Equal(t, uint64(2), m.Delivered)
	assert.Zero(t, m.Failed)

	assert.Equal(t, telemetry.TypeCounts{Sent: 1, Delivered: 1}, m.ByType["mention"])
	assert.Equal(t, telemetry.TypeCounts{Sent: 1, Delivered: 1}, m.ByType["follow"])

	rt := m.ByProvider["realtime"]
	assert.Equal(t, uint64(2), rt.Attempts)
	assert.Equal(t, uint64(2), rt.Successes)
	assert.Equal(t, 1.0, rt.SuccessRate)
	assert.Equal(t, 20*time.Millisecond, rt.AvgLatency)
}

func TestWindowedMetrics(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	rec := telemetry.NewRecorder(telemetry.WithClock(func() time.Time { return base.Add(2 * time.Hour) }))
	ctx := context.Background()

	stamps := []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)}
	for _, at := range stamps {
		require.NoError(t, rec.Record(ctx, telemetry.Event{
			Stage: telemetry.StageStart, Type: "reply", At: at,
		}))
	}

	m := rec.Metrics(telemetry.Window{
		From: base.Add(30 * time.Minute),
		To:   base.Add(90 * time.Minute),
	})
	assert.Equal(t, uint64(1), m.Sent)

	all := rec.Metrics(telemetry.Window{From: base, To: base.Add(3 * time.Hour)})
	assert.Equal(t, uint64(3), all.Sent)
}

func TestWindowedMetricsHonorRetention(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	rec := telemetry.NewRecorder(
		telemetry.WithRetention(time.Hour),
		telemetry.WithClock(func() time.Time { return base.Add(3 * time.Hour) }),
	)
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, telemetry.Event{Stage: telemetry.StageStart, Type: "like", At: base}))
	require.NoError(t, rec.Record(ctx, telemetry.Event{Stage: telemetry.StageStart, Type: "like", At: base.Add(150 * time.Minute)}))

	m := rec.Metrics(telemetry.Window{From: base, To: base.Add(3 * time.Hour)})
	assert.Equal(t, uint64(1), m.Sent, "event older than retention must be excluded")
}

func TestRingBufferOverflow(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	rec := telemetry.NewRecorder(
		telemetry.WithBufferSize(4),
		telemetry.WithClock(func() time.Time { return base.Add(time.Hour) }),
	)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, rec.Record(ctx, telemetry.Event{
			Stage: telemetry.StageStart, Type: "like", At: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	windowed := rec.Metrics(telemetry.Window{From: base, To: base.Add(time.Hour)})
	assert.Equal(t, uint64(4), windowed.Sent, "ring keeps only the newest events")

	assert.Equal(t, uint64(6), rec.Snapshot().Sent, "all-time counters are unaffected by the ring")
}

func TestConcurrentRecords(t *testing.T) {
	t.Parallel()

	rec := telemetry.NewRecorder()
	ctx := context.Background()

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_ = rec.Record(ctx, telemetry.Event{Stage: telemetry.StageStart, Type: "like"})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(goroutines*perGoroutine), rec.Snapshot().Sent)
}
