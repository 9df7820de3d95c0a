package telemetry

import (
	"fmt"
	"sort"
	"time"
)

const (
	lowSuccessRate = 0.5
	slowProvider   = 2 * time.Second
)

// Insights ranks providers by all-time success rate and produces
// operator recommendations. It fails with ErrNoData until at least one
// provider has completed a delivery attempt.
func (r *Recorder) Insights() (Insights, error) {
	r.mu.RLock()
	stats := make(map[string]ProviderStats, len(r.byProvider))
	for name, pa := range r.byProvider {
		stats[name] = pa.finalize()
	}
	r.mu.RUnlock()

	if len(stats) == 0 {
		return Insights{}, ErrNoData
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	// Rank by success rate, then by latency, then by name so results
	// are stable across calls.
	sort.Slice(names, func(i, j int) bool {
		a, b := stats[names[i]], stats[names[j]]
		if a.SuccessRate != b.SuccessRate {
			return a.SuccessRate > b.SuccessRate
		}
		if a.AvgLatency != b.AvgLatency {
			return a.AvgLatency < b.AvgLatency
		}
		return names[i] < names[j]
	})

	in := Insights{
		BestProvider:  names[0],
		WorstProvider: names[len(names)-1],
		ProviderStats: stats,
	}

	for _, name := range names {
		ps := stats[name]
		if ps.SuccessRate < lowSuccessRate {
			in.Recommendations = append(in.Recommendations,
				fmt.Sprintf("provider %s succeeds on %.0f%% of attempts; review its configuration or disable it", name, ps.SuccessRate*100))
		}
		if ps.AvgLatency > slowProvider {
			in.Recommendations = append(in.Recommendations,
				fmt.Sprintf("provider %s averages %s per delivery; consider moving it later in the provider order", name, ps.AvgLatency.Round(time.Millisecond)))
		}
	}

	snapshot := r.Snapshot()
	if snapshot.Failed > snapshot.Delivered && snapshot.Failed > 0 {
		in.Recommendations = append(in.Recommendations,
			"more failures than deliveries overall; check provider availability and queue backlog")
	}
	return in, nil
}
