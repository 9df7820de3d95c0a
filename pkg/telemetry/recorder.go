package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultBufferSize bounds the in-memory event buffer backing
	// windowed queries.
	DefaultBufferSize = 10000

	// DefaultRetention is how far back windowed queries reach.
	DefaultRetention = 24 * time.Hour
)

// Recorder aggregates delivery telemetry. All-time counters are kept
// in atomics and monotonic aggregates; recent events are kept in a
// bounded ring buffer so metrics can be answered for a time window.
type Recorder struct {
	mu         sync.RWMutex
	ring       []Event
	next       int
	count      int
	byType     map[string]*TypeCounts
	byProvider map[string]*providerAgg

	sent      atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64

	retention time.Duration
	now       func() time.Time
	prom      *instruments
}

type providerAgg struct {
	attempts     uint64
	successes    uint64
	failures     uint64
	totalLatency time.Duration
}

// Option configures the recorder.
type Option func(*Recorder)

// WithBufferSize bounds how many recent events windowed queries can
// see. Values below one are ignored.
func WithBufferSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.ring = make([]Event, n)
		}
	}
}

// WithRetention caps how old a buffered event may be and still count
// toward a windowed query.
func WithRetention(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.retention = d
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithPrometheus mirrors every recorded event into prometheus
// instruments registered against reg.
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(r *Recorder) {
		if reg != nil {
			r.prom = newInstruments(reg)
		}
	}
}

// NewRecorder creates a recorder with an empty buffer.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		byType:     make(map[string]*TypeCounts),
		byProvider: make(map[string]*providerAgg),
		retention:  DefaultRetention,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ring == nil {
		r.ring = make([]Event, DefaultBufferSize)
	}
	return r
}

// Record ingests one pipeline event. Counter updates are atomic; a
// concurrent burst of records loses nothing.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !event.Stage.Valid() {
		return ErrUnknownStage
	}
	if event.At.IsZero() {
		event.At = r.now()
	}

	switch event.Stage {
	case StageStart:
		r.sent.Add(1)
	case StageComplete:
		if event.Success {
			r.delivered.Add(1)
		} else {
			r.failed.Add(1)
		}
	}

	r.mu.Lock()
	r.push(event)
	if event.Type != "" {
		tc, ok := r.byType[event.Type]
		if !ok {
			tc = &TypeCounts{}
			r.byType[event.Type] = tc
		}
		switch {
		case event.Stage == StageStart:
			tc.Sent++
		case event.Success:
			tc.Delivered++
		default:
			tc.Failed++
		}
	}
	if event.Stage == StageComplete && event.Provider != "" {
		pa, ok := r.byProvider[event.Provider]
		if !ok {
			pa = &providerAgg{}
			r.byProvider[event.Provider] = pa
		}
		pa.attempts++
		if event.Success {
			pa.successes++
		} else {
			pa.failures++
		}
		pa.totalLatency += event.Latency
	}
	r.mu.Unlock()

	if r.prom != nil {
		r.prom.observe(event)
	}
	return nil
}

// Snapshot returns the all-time counters.
func (r *Recorder) Snapshot() Stats {
	stats := Stats{
		Sent:      r.sent.Load(),
		Delivered: r.delivered.Load(),
		Failed:    r.failed.Load(),
	}
	if completed := stats.Delivered + stats.Failed; completed > 0 {
		stats.SuccessRate = float64(stats.Delivered) / float64(completed)
	}
	return stats
}

// Metrics aggregates events. The zero window answers from all-time
// aggregates; a bounded window scans the event buffer, so its reach is
// limited by the buffer size and the retention period.
func (r *Recorder) Metrics(window Window) Metrics {
	if window.IsZero() {
		return r.allTimeMetrics()
	}
	return r.windowedMetrics(window)
}

func (r *Recorder) allTimeMetrics() Metrics {
	m := Metrics{
		Sent:       r.sent.Load(),
		Delivered:  r.delivered.Load(),
		Failed:     r.failed.Load(),
		ByType:     make(map[string]TypeCounts),
		ByProvider: make(map[string]ProviderStats),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, tc := range r.byType {
		m.ByType[name] = *tc
	}
	for name, pa := range r.byProvider {
		m.ByProvider[name] = pa.finalize()
	}
	return m
}

func (r *Recorder) windowedMetrics(window Window) Metrics {
	m := Metrics{
		ByType:     make(map[string]TypeCounts),
		ByProvider: make(map[string]ProviderStats),
		Window:     window,
	}
	cutoff := r.now().Add(-r.retention)
	providers := make(map[string]*providerAgg)

	r.mu.RLock()
	r.scan(func(e Event) {
		if e.At.Before(cutoff) || !window.contains(e.At) {
			return
		}

		tc := m.ByType[e.Type]
		switch {
		case e.Stage == StageStart:
			m.Sent++
			tc.Sent++
		case e.Success:
			m.Delivered++
			tc.Delivered++
		default:
			m.Failed++
			tc.Failed++
		}
		if e.Type != "" {
			m.ByType[e.Type] = tc
		}

		if e.Stage == StageComplete && e.Provider != "" {
			pa, ok := providers[e.Provider]
			if !ok {
				pa = &providerAgg{}
				providers[e.Provider] = pa
			}
			pa.attempts++
			if e.Success {
				pa.successes++
			} else {
				pa.failures++
			}
			pa.totalLatency += e.Latency
		}
	})
	r.mu.RUnlock()

	for name, pa := range providers {
		m.ByProvider[name] = pa.finalize()
	}
	return m
}

// push appends to the ring, overwriting the oldest event when full.
// Callers hold mu.
func (r *Recorder) push(e Event) {
	r.ring[r.next] = e
	r.next = (r.next + 1) % len(r.ring)
	if r.count < len(r.ring) {
		r.count++
	}
}

// scan visits buffered events oldest first. Callers hold mu.
func (r *Recorder) scan(fn func(Event)) {
	start := r.next - r.count
	if start < 0 {
		start += len(r.ring)
	}
	for i := 0; i < r.count; i++ {
		fn(r.ring[(start+i)%len(r.ring)])
	}
}

func (pa *providerAgg) finalize() ProviderStats {
	ps := ProviderStats{
		Attempts:  pa.attempts,
		Successes: pa.successes,
		Failures:  pa.failures,
	}
	if pa.attempts > 0 {
		ps.SuccessRate = float64(pa.successes) / float64(pa.attempts)
		ps.AvgLatency = pa.totalLatency / time.Duration(pa.attempts)
	}
	return ps
}
