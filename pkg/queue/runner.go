package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yapplr/notify/pkg/logger"
)

// Runner drives a Queue on fixed intervals when the host application has no
// scheduler of its own. It is optional: ProcessPending and CleanupExpired
// can just as well be invoked from cron, a k8s job, or any other external
// trigger — the queue's single-flight guard holds either way.
type Runner struct {
	queue *Queue
	log   *slog.Logger

	processInterval time.Duration
	cleanupInterval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithProcessInterval sets how often a processing pass runs.
func WithProcessInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.processInterval = d
		}
	}
}

// WithCleanupInterval sets how often an expiration sweep runs.
func WithCleanupInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.cleanupInterval = d
		}
	}
}

// WithRunnerLogger sets the logger (default: the queue's logger).
func WithRunnerLogger(log *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRunner creates a runner over q with intervals taken from the queue's
// config unless overridden.
func NewRunner(q *Queue, opts ...RunnerOption) (*Runner, error) {
	if q == nil {
		return nil, ErrQueueNil
	}

	r := &Runner{
		queue:           q,
		log:             q.log,
		processInterval: q.cfg.ProcessInterval,
		cleanupInterval: q.cfg.CleanupInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start launches the tick loop in the background. It returns
// ErrRunnerStarted when the runner is already running.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return ErrRunnerStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)

	r.log.InfoContext(ctx, "queue runner started",
		logger.Component("queue"),
		slog.Duration("process_interval", r.processInterval),
		slog.Duration("cleanup_interval", r.cleanupInterval))
	return nil
}

// Stop cancels the loop and waits for an in-flight pass to finish. Stopping
// a runner that was never started is a no-op.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.log.Info("queue runner stopped", logger.Component("queue"))
}

// Run returns a function suitable for errgroup.Group: it starts the runner,
// blocks until ctx is done, then stops it.
func (r *Runner) Run(ctx context.Context) func() error {
	return func() error {
		if err := r.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		r.Stop()
		return nil
	}
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	process := time.NewTicker(r.processInterval)
	defer process.Stop()
	cleanup := time.NewTicker(r.cleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-process.C:
			attempts, err := r.queue.ProcessPending(ctx)
			if err != nil && ctx.Err() == nil {
				r.log.ErrorContext(ctx, "processing pass failed",
					logger.Component("queue"),
					logger.Error(err))
			} else if attempts > 0 {
				r.log.DebugContext(ctx, "processing pass finished",
					logger.Component("queue"),
					slog.Int("attempts", attempts))
			}
		case <-cleanup.C:
			if _, err := r.queue.CleanupExpired(ctx); err != nil && ctx.Err() == nil {
				r.log.ErrorContext(ctx, "cleanup sweep failed",
					logger.Component("queue"),
					logger.Error(err))
			}
		}
	}
}
