package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// AsyncOptions tunes the buffering and batching of AsyncStorage.
type AsyncOptions struct {
	BufferSize     int           // events queued in memory before new ones are dropped
	BatchSize      int           // target events per flush
	BatchTimeout   time.Duration // max wait before flushing a partial batch
	StorageTimeout time.Duration // per-flush timeout against the backend
}

// AsyncStorage decouples audit writes from the notification send path.
// Store enqueues and returns immediately; a background worker flushes
// batches to the wrapped storage. When the buffer is full the event is
// dropped and counted rather than blocking the caller.
//
// Query and Count pass through to the wrapped storage, so recently
// enqueued events may not be visible until the next flush.
type AsyncStorage struct {
	backend Storage
	events  chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	opts    AsyncOptions
	dropped atomic.Uint64
	closed  atomic.Bool
}

// NewAsyncStorage wraps backend with a buffered background writer.
// The returned close function flushes whatever is still buffered.
func NewAsyncStorage(backend Storage, opts AsyncOptions) (*AsyncStorage, func(context.Context) error) {
	if backend == nil {
		panic("audit: storage cannot be nil")
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}

	as := &AsyncStorage{
		backend: backend,
		events:  make(chan Event, opts.BufferSize),
		done:    make(chan struct{}),
		opts:    opts,
	}

	as.wg.Add(1)
	go as.worker()

	return as, as.Close
}

func (as *AsyncStorage) Store(ctx context.Context, event Event) error {
	if as.closed.Load() {
		return ErrStorageNotAvailable
	}

	select {
	case as.events <- event:
		return nil
	default:
		as.dropped.Add(1)
		return nil
	}
}

func (as *AsyncStorage) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	return as.backend.Query(ctx, criteria)
}

func (as *AsyncStorage) Count(ctx context.Context, criteria Criteria) (int64, error) {
	if counter, ok := as.backend.(StorageCounter); ok {
		return counter.Count(ctx, criteria)
	}
	events, err := as.backend.Query(ctx, criteria)
	if err != nil {
		return 0, err
	}
	return int64(len(events)), nil
}

// Dropped reports how many events were discarded because the buffer
// was full.
func (as *AsyncStorage) Dropped() uint64 {
	return as.dropped.Load()
}

// Close stops accepting events, flushes the buffer and waits for the
// worker to exit or ctx to expire.
func (as *AsyncStorage) Close(ctx context.Context) error {
	if !as.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(as.done)

	finished := make(chan struct{})
	go func() {
		as.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (as *AsyncStorage) worker() {
	defer as.wg.Done()

	batch := make([]Event, 0, as.opts.BatchSize)
	ticker := time.NewTicker(as.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), as.opts.StorageTimeout)
		as.writeBatch(ctx, batch)
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case event := <-as.events:
			batch = append(batch, event)
			if len(batch) >= as.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-as.done:
			// Drain whatever made it into the channel before Close.
			for {
				select {
				case event := <-as.events:
					batch = append(batch, event)
					if len(batch) >= as.opts.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// writeBatch prefers the backend's bulk capability and falls back to
// one write per event. Batches that fail are counted as dropped.
func (as *AsyncStorage) writeBatch(ctx context.Context, batch []Event) {
	if bw, ok := as.backend.(BatchWriter); ok {
		if err := bw.StoreBatch(ctx, batch); err != nil {
			as.dropped.Add(uint64(len(batch)))
		}
		return
	}

	for _, event := range batch {
		if err := as.backend.Store(ctx, event); err != nil {
			as.dropped.Add(1)
		}
	}
}
