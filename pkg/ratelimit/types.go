package ratelimit

import (
	"context"
	"time"
)

// Violation tags identify which window denied a send.
const (
	ViolationBurst     = "burst"
	ViolationSustained = "sustained"
)

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed    bool
	Violation  string        // empty when allowed
	Remaining  int           // sends left in the tighter window
	RetryAfter time.Duration // zero when allowed
}

// Limit configures the two windows evaluated on every send.
type Limit struct {
	Burst           int
	BurstWindow     time.Duration
	Sustained       int
	SustainedWindow time.Duration
}

func (l Limit) validate() error {
	if l.Burst <= 0 || l.Sustained <= 0 || l.BurstWindow <= 0 || l.SustainedWindow <= 0 {
		return ErrInvalidLimit
	}
	return nil
}

// DefaultLimit mirrors the platform's default notification caps.
func DefaultLimit() Limit {
	return Limit{
		Burst:           10,
		BurstWindow:     time.Minute,
		Sustained:       100,
		SustainedWindow: time.Hour,
	}
}

// Config carries environment-driven limits.
type Config struct {
	Burst           int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	BurstWindow     time.Duration `env:"RATE_LIMIT_BURST_WINDOW" envDefault:"1m"`
	Sustained       int           `env:"RATE_LIMIT_SUSTAINED" envDefault:"100"`
	SustainedWindow time.Duration `env:"RATE_LIMIT_SUSTAINED_WINDOW" envDefault:"1h"`
}

// Limit converts env config to a Limit.
func (c Config) Limit() Limit {
	return Limit{
		Burst:           c.Burst,
		BurstWindow:     c.BurstWindow,
		Sustained:       c.Sustained,
		SustainedWindow: c.SustainedWindow,
	}
}

// Hit reports the state of one window after an attempt.
type Hit struct {
	Count   int64
	Allowed bool
	ResetAt time.Time // when the window frees a slot
}

// Store is the counting backend. Hit records one attempt against key within
// window when the count is under limit and reports the resulting state; the
// check and the record must be atomic with respect to concurrent callers.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (Hit, error)
	Reset(ctx context.Context, key string, window time.Duration) error
}
