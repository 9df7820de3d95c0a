package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yapplr/notify/pkg/audit"
	"github.com/yapplr/notify/pkg/contentfilter"
	"github.com/yapplr/notify/pkg/logger"
	"github.com/yapplr/notify/pkg/payload"
	"github.com/yapplr/notify/pkg/ratelimit"
	"github.com/yapplr/notify/pkg/telemetry"
)

// Pipeline composes the pre-send gates (rate limiter, content filter) with
// the cross-cutting services (compression, security auditing, telemetry)
// behind one surface. Every component is optional: an absent component is a
// disabled feature, its operation degrades to a permissive no-op and the
// health report shows the flag off.
type Pipeline struct {
	limiter    *ratelimit.Limiter
	filter     *contentfilter.Filter
	compressor *payload.Compressor
	auditor    audit.Logger
	recorder   *telemetry.Recorder

	log *slog.Logger
	now func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRateLimiter enables the rate-limit gate.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(p *Pipeline) { p.limiter = l }
}

// WithContentFilter enables the content gate.
func WithContentFilter(f *contentfilter.Filter) Option {
	return func(p *Pipeline) { p.filter = f }
}

// WithCompressor enables payload compression.
func WithCompressor(c *payload.Compressor) Option {
	return func(p *Pipeline) { p.compressor = c }
}

// WithAuditLogger enables security audit logging.
func WithAuditLogger(a audit.Logger) Option {
	return func(p *Pipeline) { p.auditor = a }
}

// WithRecorder enables telemetry recording and metrics.
func WithRecorder(r *telemetry.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithLogger sets the logger (default slog.Default).
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a pipeline from whichever components the options carry.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckRateLimit evaluates the burst and sustained caps for one user and
// notification type. Without a limiter every check is allowed. Denials are
// audited best-effort; the audit outcome never changes the decision.
func (p *Pipeline) CheckRateLimit(ctx context.Context, userID uuid.UUID, notificationType string) (ratelimit.Decision, error) {
	if p.limiter == nil {
		return ratelimit.Decision{Allowed: true}, nil
	}

	decision, err := p.limiter.Allow(ctx, userID, notificationType)
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("rate limit check: %w", err)
	}
	if decision.Allowed {
		return decision, nil
	}

	p.log.WarnContext(ctx, "notification rate limited",
		logger.Component("pipeline"),
		logger.UserID(userID),
		logger.NotificationType(notificationType),
		slog.String("violation", decision.Violation),
		slog.Duration("retry_after", decision.RetryAfter))

	p.logAudit(ctx, audit.EventRateLimitViolation,
		audit.WithUser(userID),
		audit.WithSeverity(audit.SeverityWarning),
		audit.WithDescription(fmt.Sprintf("%s limit exceeded for %q notifications", decision.Violation, notificationType)),
		audit.WithMetadata("violation", decision.Violation),
		audit.WithMetadata("notification_type", notificationType),
		audit.WithMetadata("retry_after", decision.RetryAfter.String()),
	)
	return decision, nil
}

// FilterContent classifies and sanitizes notification text. Without a filter
// the input passes through as valid low-risk content. High and critical
// findings are audited best-effort.
func (p *Pipeline) FilterContent(ctx context.Context, text string) (contentfilter.Result, error) {
	if p.filter == nil {
		return contentfilter.Result{Valid: true, Risk: contentfilter.RiskLow, Sanitized: text}, nil
	}

	res := p.filter.Check(text)
	if res.Risk < contentfilter.RiskHigh {
		return res, nil
	}

	severity := audit.SeverityWarning
	eventType := audit.EventContentFiltered
	if res.Risk == contentfilter.RiskCritical {
		severity = audit.SeverityCritical
		eventType = audit.EventSuspiciousLink
	}

	p.log.WarnContext(ctx, "notification content flagged",
		logger.Component("pipeline"),
		slog.String("risk", res.Risk.String()),
		slog.Any("violations", res.Violations))

	p.logAudit(ctx, eventType,
		audit.WithSeverity(severity),
		audit.WithDescription("notification content flagged by filter"),
		audit.WithMetadata("risk", res.Risk.String()),
		audit.WithMetadata("violations", res.Violations),
	)
	return res, nil
}

// CompressPayload serializes and, past the threshold, compresses a
// structured payload. Without a compressor the payload is serialized and
// passed through with method "none".
func (p *Pipeline) CompressPayload(ctx context.Context, v any) (payload.Result, error) {
	if p.compressor == nil {
		raw, err := json.Marshal(v)
		if err != nil {
			return payload.Result{}, fmt.Errorf("compress payload: %w", err)
		}
		return payload.Result{
			Method:         payload.MethodNone,
			OriginalSize:   len(raw),
			CompressedSize: len(raw),
			Ratio:          1.0,
			Data:           raw,
		}, nil
	}

	res, err := p.compressor.Compress(v)
	if err != nil {
		return payload.Result{}, fmt.Errorf("compress payload: %w", err)
	}
	return res, nil
}

// LogSecurityEvent writes an audit event. Failures never reach the caller;
// auditing is best-effort on the send path.
func (p *Pipeline) LogSecurityEvent(ctx context.Context, event audit.Event) {
	if p.auditor == nil {
		return
	}
	if err := p.auditor.Log(ctx, event); err != nil {
		p.log.ErrorContext(ctx, "audit log write failed",
			logger.Component("pipeline"),
			slog.String("event_type", event.EventType),
			logger.Error(err))
	}
}

// RecordEvent feeds a telemetry event into the recorder. Failures are
// swallowed with internal diagnostics; telemetry never blocks a send.
func (p *Pipeline) RecordEvent(ctx context.Context, event telemetry.Event) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, event); err != nil {
		p.log.DebugContext(ctx, "telemetry event dropped",
			logger.Component("pipeline"),
			logger.TrackingID(event.TrackingID),
			logger.Error(err))
	}
}

// Metrics returns delivery totals and breakdowns, bounded to the window
// when one is given.
func (p *Pipeline) Metrics(ctx context.Context, window telemetry.Window) (telemetry.Metrics, error) {
	if p.recorder == nil {
		return telemetry.Metrics{}, ErrMetricsDisabled
	}
	return p.recorder.Metrics(window), nil
}

// Insights derives provider rankings and operator recommendations from the
// recorded events.
func (p *Pipeline) Insights(ctx context.Context) (telemetry.Insights, error) {
	if p.recorder == nil {
		return telemetry.Insights{}, ErrMetricsDisabled
	}
	return p.recorder.Insights()
}

// Snapshot returns the cheap all-time counters for stats endpoints. Without
// a recorder it is zero.
func (p *Pipeline) Snapshot() telemetry.Stats {
	if p.recorder == nil {
		return telemetry.Stats{}
	}
	return p.recorder.Snapshot()
}

func (p *Pipeline) logAudit(ctx context.Context, eventType string, opts ...audit.EventOption) {
	if p.auditor == nil {
		return
	}
	if err := p.auditor.LogSecurity(ctx, eventType, opts...); err != nil {
		p.log.ErrorContext(ctx, "audit log write failed",
			logger.Component("pipeline"),
			slog.String("event_type", eventType),
			logger.Error(err))
	}
}
