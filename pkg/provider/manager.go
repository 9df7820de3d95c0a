package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/yapplr/notify"
)

// DefaultAttemptTimeout bounds a single provider delivery attempt.
const DefaultAttemptTimeout = 5 * time.Second

// Attempt describes one provider delivery attempt for observers.
type Attempt struct {
	Provider string
	Success  bool
	Latency  time.Duration
}

// Manager walks an ordered provider list until one delivers.
// Unavailable providers are skipped, every attempt is timeout-bounded,
// and a provider that panics counts as a failed attempt instead of
// taking the process down.
type Manager struct {
	providers []Provider
	timeout   time.Duration
	log       *slog.Logger
	observer  func(notify.DeliveryRequest, Attempt)
}

// ManagerOption configures the manager.
type ManagerOption func(*Manager)

// WithAttemptTimeout overrides the per-attempt timeout.
func WithAttemptTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger attaches a logger for skip and panic diagnostics.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithObserver registers a callback invoked after every delivery
// attempt. Telemetry hangs off this.
func WithObserver(fn func(notify.DeliveryRequest, Attempt)) ManagerOption {
	return func(m *Manager) {
		m.observer = fn
	}
}

// NewManager creates a manager trying providers in the given order.
func NewManager(providers []Provider, opts ...ManagerOption) *Manager {
	m := &Manager{
		timeout: DefaultAttemptTimeout,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, p := range providers {
		if p != nil {
			m.providers = append(m.providers, p)
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send walks the providers in order and returns true as soon as one
// delivers. False means no provider could deliver right now.
func (m *Manager) Send(ctx context.Context, req notify.DeliveryRequest) bool {
	for _, p := range m.providers {
		if !m.available(ctx, p) {
			m.log.DebugContext(ctx, "skipping unavailable provider",
				slog.String("provider", p.Name()),
			)
			continue
		}

		start := time.Now()
		ok := m.attempt(ctx, p, req)
		if m.observer != nil {
			m.observer(req, Attempt{
				Provider: p.Name(),
				Success:  ok,
				Latency:  time.Since(start),
			})
		}
		if ok {
			return true
		}
	}
	return false
}

// Available reports whether any provider is currently usable.
func (m *Manager) Available(ctx context.Context) bool {
	for _, p := range m.providers {
		if m.available(ctx, p) {
			return true
		}
	}
	return false
}

// Names lists the providers in delivery order.
func (m *Manager) Names() []string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return names
}

// attempt runs one delivery bounded by the attempt timeout. A provider
// that blocks past the deadline or panics is a failed attempt.
func (m *Manager) attempt(ctx context.Context, p Provider, req notify.DeliveryRequest) bool {
	attemptCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	result := make(chan bool, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				m.log.ErrorContext(ctx, "provider panicked during send",
					slog.String("provider", p.Name()),
					slog.Any("panic", r),
				)
				result <- false
			}
		}()
		result <- p.Send(attemptCtx, req)
	}()

	select {
	case ok := <-result:
		return ok
	case <-attemptCtx.Done():
		return false
	}
}

func (m *Manager) available(ctx context.Context, p Provider) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.ErrorContext(ctx, "provider panicked during availability check",
				slog.String("provider", p.Name()),
				slog.Any("panic", r),
			)
			ok = false
		}
	}()
	return p.Available(ctx)
}
