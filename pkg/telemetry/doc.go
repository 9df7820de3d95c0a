// Package telemetry tracks what the notification pipeline actually
// did: how many notifications were accepted, delivered and failed, per
// type and per provider, with delivery latency.
//
// A Recorder keeps all-time counters in atomics plus a bounded ring
// buffer of recent events for windowed queries. Insights ranks
// providers and produces operator recommendations. WithPrometheus
// mirrors every event into prometheus counters and a latency
// histogram:
//
//	rec := telemetry.NewRecorder(telemetry.WithPrometheus(prometheus.DefaultRegisterer))
//	_ = rec.Record(ctx, telemetry.Event{
//		TrackingID: trackingID,
//		Stage:      telemetry.StageComplete,
//		Type:       "mention",
//		Provider:   "realtime",
//		Success:    true,
//		Latency:    12 * time.Millisecond,
//	})
package telemetry
