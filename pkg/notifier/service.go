package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yapplr/notify/pkg/logger"
	"github.com/yapplr/notify/pkg/pipeline"
	"github.com/yapplr/notify/pkg/queue"
	"github.com/yapplr/notify/pkg/telemetry"
)

// DefaultDeliveryTimeout bounds one immediate delivery attempt. A provider
// call that outlives it counts as a failure and the notification falls back
// to the queue.
const DefaultDeliveryTimeout = 5 * time.Second

// Service is the notification orchestrator: the single entry point the rest
// of the platform calls to send notifications. Per send it runs the
// preference and pipeline gates, persists the in-app record, and routes
// between immediate provider delivery and the store-and-forward queue based
// on the user's presence.
//
// The returned bool reports acceptance, not delivery: a send that passes
// the gates returns true even when immediate delivery failed and the
// notification went to the queue.
type Service struct {
	storage   Storage
	deliverer Deliverer
	queue     Queue
	prefs     Preferences
	presence  Presence
	gate      *pipeline.Pipeline

	deliveryTimeout time.Duration
	log             *slog.Logger
	now             func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPreferences sets the preference collaborator (default: allow all).
func WithPreferences(p Preferences) Option {
	return func(s *Service) {
		if p != nil {
			s.prefs = p
		}
	}
}

// WithPresence sets the presence oracle (default: every user offline, so
// every send is queued).
func WithPresence(p Presence) Option {
	return func(s *Service) {
		if p != nil {
			s.presence = p
		}
	}
}

// WithPipeline sets the pre-send gate and telemetry surface (default: a
// pipeline with every feature disabled).
func WithPipeline(gate *pipeline.Pipeline) Option {
	return func(s *Service) {
		if gate != nil {
			s.gate = gate
		}
	}
}

// WithDeliveryTimeout bounds immediate delivery attempts.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.deliveryTimeout = d
		}
	}
}

// WithLogger sets the logger (default slog.Default).
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates the orchestrator over its three required collaborators.
func New(storage Storage, deliverer Deliverer, q Queue, opts ...Option) (*Service, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if deliverer == nil {
		return nil, ErrDelivererNil
	}
	if q == nil {
		return nil, ErrQueueNil
	}

	s := &Service{
		storage:         storage,
		deliverer:       deliverer,
		queue:           q,
		prefs:           allowAll{},
		presence:        alwaysOffline{},
		gate:            pipeline.New(),
		deliveryTimeout: DefaultDeliveryTimeout,
		log:             slog.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send runs one notification through the pipeline. The gates run strictly
// before any side effect: a preference or rate-limit rejection returns
// (false, nil) with nothing persisted. Once the record is written the send
// is accepted and the result is (true, nil) regardless of what immediate
// delivery does; a failed or skipped attempt lands the notification in the
// queue.
func (s *Service) Send(ctx context.Context, req Request) (bool, error) {
	if req.UserID == uuid.Nil || req.Type == "" {
		return false, ErrInvalidRequest
	}

	allowed, err := s.prefs.ShouldSend(ctx, req.UserID, req.Type)
	if err != nil {
		return false, fmt.Errorf("preference check: %w", err)
	}
	if !allowed {
		s.log.DebugContext(ctx, "notification disabled by preferences",
			logger.Component("notifier"),
			logger.UserID(req.UserID),
			logger.NotificationType(req.Type))
		return false, nil
	}

	decision, err := s.gate.CheckRateLimit(ctx, req.UserID, req.Type)
	if err != nil {
		return false, err
	}
	if !decision.Allowed {
		return false, nil
	}

	filtered, err := s.gate.FilterContent(ctx, req.Body)
	if err != nil {
		return false, err
	}
	if !filtered.Valid {
		s.log.WarnContext(ctx, "notification body rejected by content filter",
			logger.Component("notifier"),
			logger.UserID(req.UserID),
			logger.NotificationType(req.Type),
			slog.String("risk", filtered.Risk.String()))
		return false, nil
	}
	req.Body = filtered.Sanitized

	if title, err := s.gate.FilterContent(ctx, req.Title); err != nil {
		return false, err
	} else if !title.Valid {
		return false, nil
	} else {
		req.Title = title.Sanitized
	}

	record := &Notification{
		ID:        uuid.New(),
		UserID:    req.UserID,
		ActorID:   req.ActorID,
		Type:      req.Type,
		Message:   req.Body,
		PostID:    req.PostID,
		CommentID: req.CommentID,
		CreatedAt: s.now(),
	}
	if err := s.storage.Create(ctx, record); err != nil {
		return false, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}

	trackingID := uuid.NewString()
	s.gate.RecordEvent(ctx, telemetry.Event{
		TrackingID: trackingID,
		Stage:      telemetry.StageStart,
		UserID:     req.UserID,
		Type:       req.Type,
		At:         s.now(),
	})

	online, err := s.presence.IsOnline(ctx, req.UserID)
	if err != nil {
		s.log.WarnContext(ctx, "presence check failed, falling back to queue",
			logger.Component("notifier"),
			logger.UserID(req.UserID),
			logger.Error(err))
		online = false
	}

	if online {
		if s.deliverNow(ctx, req, trackingID) {
			return true, nil
		}
	}

	if err := s.enqueue(ctx, req); err != nil {
		return false, err
	}
	return true, nil
}

// deliverNow makes one bounded provider attempt and records its outcome.
func (s *Service) deliverNow(ctx context.Context, req Request, trackingID string) bool {
	sendCtx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	started := s.now()
	delivered := s.deliverer.Send(sendCtx, req.DeliveryRequest())
	cancel()

	event := telemetry.Event{
		TrackingID: trackingID,
		Stage:      telemetry.StageComplete,
		UserID:     req.UserID,
		Type:       req.Type,
		Success:    delivered,
		Latency:    s.now().Sub(started),
		At:         s.now(),
	}
	if !delivered {
		event.Error = "provider delivery failed"
	}
	s.gate.RecordEvent(ctx, event)

	if delivered {
		s.log.InfoContext(ctx, "notification delivered",
			logger.Component("notifier"),
			logger.UserID(req.UserID),
			logger.NotificationType(req.Type),
			logger.TrackingID(trackingID),
			logger.Latency(event.Latency))
	} else {
		s.log.WarnContext(ctx, "immediate delivery failed, queueing",
			logger.Component("notifier"),
			logger.UserID(req.UserID),
			logger.NotificationType(req.Type),
			logger.TrackingID(trackingID))
	}
	return delivered
}

func (s *Service) enqueue(ctx context.Context, req Request) error {
	err := s.queue.Enqueue(ctx, queue.Notification{
		UserID:   req.UserID,
		Type:     req.Type,
		Title:    req.Title,
		Body:     req.Body,
		Priority: req.Priority,
		Data:     req.Data,
	})
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// SendMulticast fans a request out to several users, each going through the
// full per-user gates independently. Per-user failures are logged and do
// not fail the whole call; only context cancellation does.
func (s *Service) SendMulticast(ctx context.Context, userIDs []uuid.UUID, req Request) (bool, error) {
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		perUser := req
		perUser.UserID = userID
		if _, err := s.Send(ctx, perUser); err != nil {
			s.log.ErrorContext(ctx, "multicast send failed for user",
				logger.Component("notifier"),
				logger.UserID(userID),
				logger.NotificationType(req.Type),
				logger.Error(err))
		}
	}
	return true, nil
}

// UserNotifications returns the user's notification center page, newest
// first. Message-type notifications are excluded; they live on the
// conversational surface.
func (s *Service) UserNotifications(ctx context.Context, userID uuid.UUID, page Page) ([]Notification, error) {
	items, err := s.storage.List(ctx, userID, page.normalized())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}
	return items, nil
}

// UnreadCount returns the unread badge value, message-type excluded.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.storage.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}
	return count, nil
}

// MarkRead stamps a single notification read.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.storage.MarkRead(ctx, id)
}

// MarkSeen stamps a single notification seen.
func (s *Service) MarkSeen(ctx context.Context, id uuid.UUID) error {
	return s.storage.MarkSeen(ctx, id)
}

// MarkAllRead stamps every unread non-message notification of the user.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.storage.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}
	return n, nil
}

// MarkAllSeen stamps every unseen non-message notification of the user.
func (s *Service) MarkAllSeen(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.storage.MarkAllSeen(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}
	return n, nil
}

// Healthy reports whether the service can accept sends: storage reachable
// and at least one provider available. Storage backends without a Ping
// count as reachable.
func (s *Service) Healthy(ctx context.Context) bool {
	if pg, ok := s.storage.(interface {
		Ping(ctx context.Context) error
	}); ok {
		if err := pg.Ping(ctx); err != nil {
			s.log.ErrorContext(ctx, "notification storage unreachable",
				logger.Component("notifier"),
				logger.Error(err))
			return false
		}
	}
	return s.deliverer.Available(ctx)
}

// Stats reports send totals from the pipeline's telemetry counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	metrics, err := s.gate.Metrics(ctx, telemetry.Window{})
	if err != nil {
		// Telemetry disabled: the stats surface stays usable, just empty.
		return Stats{LastUpdated: s.now()}, nil
	}

	byType := make(map[string]uint64, len(metrics.ByType))
	for t, counts := range metrics.ByType {
		byType[t] = counts.Sent
	}
	return Stats{
		TotalSent:   metrics.Sent,
		ByType:      byType,
		LastUpdated: s.now(),
	}, nil
}
