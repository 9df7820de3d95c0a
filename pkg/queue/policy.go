package queue

import (
	"math/rand"
	"time"

	"github.com/yapplr/notify"
)

// DefaultExpiration applies to priorities without an explicit policy row.
const DefaultExpiration = 7 * 24 * time.Hour

// DefaultRetryStep is the per-attempt increment of the default linear backoff.
const DefaultRetryStep = 30 * time.Second

// ExpirationPolicy maps a priority to how long an enqueued notification stays
// eligible for delivery before cleanup removes it.
type ExpirationPolicy map[notify.Priority]time.Duration

// DefaultExpirationPolicy keeps low-priority notifications for six hours and
// everything else for a week.
func DefaultExpirationPolicy() ExpirationPolicy {
	return ExpirationPolicy{
		notify.PriorityCritical: 7 * 24 * time.Hour,
		notify.PriorityHigh:     7 * 24 * time.Hour,
		notify.PriorityNormal:   7 * 24 * time.Hour,
		notify.PriorityLow:      6 * time.Hour,
	}
}

// TTL returns the retention for p, falling back to DefaultExpiration when the
// policy has no positive row for it.
func (ep ExpirationPolicy) TTL(p notify.Priority) time.Duration {
	if d, ok := ep[p]; ok && d > 0 {
		return d
	}
	return DefaultExpiration
}

// Backoff computes the delay before retry attempt n. The first retry is 1.
// Implementations must return delays that grow with the attempt number so a
// failing entry backs off rather than hot-loops.
type Backoff func(retry int) time.Duration

// LinearBackoff returns step, 2*step, 3*step and so on. A non-positive step
// falls back to DefaultRetryStep.
func LinearBackoff(step time.Duration) Backoff {
	if step <= 0 {
		step = DefaultRetryStep
	}
	return func(retry int) time.Duration {
		if retry < 1 {
			retry = 1
		}
		return time.Duration(retry) * step
	}
}

// ExponentialBackoff doubles the delay each attempt starting at base, capped
// at max. Below the cap up to a quarter of the delay is added as jitter;
// the jittered delays still grow strictly between attempts.
func ExponentialBackoff(base, max time.Duration) Backoff {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return func(retry int) time.Duration {
		if retry < 1 {
			retry = 1
		}
		d := base
		for i := 1; i < retry && d < max; i++ {
			d *= 2
		}
		if d >= max {
			return max
		}
		return d + time.Duration(rand.Int63n(int64(d/4)+1))
	}
}
