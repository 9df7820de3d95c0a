package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Stage marks which side of a delivery attempt an event records.
type Stage string

const (
	// StageStart marks a notification accepted into the pipeline.
	StageStart Stage = "start"
	// StageComplete marks the delivery outcome for a tracking id.
	StageComplete Stage = "complete"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s == StageStart || s == StageComplete
}

// Event is a single pipeline measurement. A send produces one start
// event and, once the outcome is known, one complete event sharing the
// same tracking id.
type Event struct {
	TrackingID string
	Stage      Stage
	UserID     uuid.UUID
	Type       string
	Provider   string
	Success    bool
	Latency    time.Duration
	Error      string
	At         time.Time
}

// Window bounds a metrics query. The zero window means all time.
type Window struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the window is unbounded.
func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

func (w Window) contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// TypeCounts aggregates outcomes for one notification type.
type TypeCounts struct {
	Sent      uint64 `json:"sent"`
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`
}

// ProviderStats aggregates outcomes for one delivery provider.
type ProviderStats struct {
	Attempts    uint64        `json:"attempts"`
	Successes   uint64        `json:"successes"`
	Failures    uint64        `json:"failures"`
	SuccessRate float64       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}

// Metrics is the aggregated view over a window.
type Metrics struct {
	Sent       uint64                   `json:"sent"`
	Delivered  uint64                   `json:"delivered"`
	Failed     uint64                   `json:"failed"`
	ByType     map[string]TypeCounts    `json:"by_type"`
	ByProvider map[string]ProviderStats `json:"by_provider"`
	Window     Window                   `json:"-"`
}

// Stats is the cheap all-time snapshot used by health and stats
// endpoints.
type Stats struct {
	Sent        uint64  `json:"sent"`
	Delivered   uint64  `json:"delivered"`
	Failed      uint64  `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// Insights summarizes provider behavior and suggests operator actions.
type Insights struct {
	BestProvider    string                   `json:"best_provider"`
	WorstProvider   string                   `json:"worst_provider"`
	ProviderStats   map[string]ProviderStats `json:"provider_stats"`
	Recommendations []string                 `json:"recommendations"`
}
