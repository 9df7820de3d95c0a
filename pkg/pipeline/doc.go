// Package pipeline is the pre-send gate and telemetry surface of the
// notification system. It composes the rate limiter, content filter,
// payload compressor, security audit log and telemetry recorder into one
// component the orchestrator talks to, so gating policy and observability
// stay out of the send path's business logic.
//
// Every part is optional and wired through options; a missing part reads
// as a disabled feature in the health report and its operation becomes a
// permissive no-op:
//
//	gate := pipeline.New(
//		pipeline.WithRateLimiter(limiter),
//		pipeline.WithContentFilter(contentfilter.New()),
//		pipeline.WithCompressor(payload.New()),
//		pipeline.WithAuditLogger(auditLog),
//		pipeline.WithRecorder(recorder),
//	)
//
//	decision, err := gate.CheckRateLimit(ctx, userID, notify.TypeMention)
//
// Rate-limit denials and high-risk content findings are mirrored into the
// audit log best-effort; audit or telemetry failures never fail a send.
package pipeline
