package pipeline

import (
	"context"
	"time"
)

// Feature flag names reported by Health.
const (
	FeatureMetrics          = "metrics"
	FeatureAuditing         = "auditing"
	FeatureRateLimiting     = "rate_limiting"
	FeatureContentFiltering = "content_filtering"
	FeatureCompression      = "compression"
)

// HealthReport describes which pipeline features are enabled and whether
// the ones with backing storage are reachable.
type HealthReport struct {
	Features    map[string]bool `json:"features"`
	Healthy     bool            `json:"healthy"`
	LastChecked time.Time       `json:"last_checked"`
}

// pinger is asserted dynamically on components whose backends can be probed.
type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports the feature map and probes every component that exposes a
// Ping. A pipeline with no failing probes is healthy, disabled features
// included.
func (p *Pipeline) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Features: map[string]bool{
			FeatureMetrics:          p.recorder != nil,
			FeatureAuditing:         p.auditor != nil,
			FeatureRateLimiting:     p.limiter != nil,
			FeatureContentFiltering: p.filter != nil,
			FeatureCompression:      p.compressor != nil,
		},
		Healthy:     true,
		LastChecked: p.now(),
	}

	for _, component := range []any{p.auditor, p.limiter, p.recorder} {
		if pg, ok := component.(pinger); ok && pg != nil {
			if err := pg.Ping(ctx); err != nil {
				report.Healthy = false
			}
		}
	}
	return report
}
