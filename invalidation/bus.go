package invalidation

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/questline/gamecache/cache"
	"github.com/questline/gamecache/types"
)

// maxConcurrentDispatch bounds the fan-out when a drained batch is dispatched.
const maxConcurrentDispatch = 8

// Options configures a Bus instance.
type Options struct {
	// BatchDelay is the coalescing window for queued events.
	BatchDelay time.Duration

	// MaxBatchSize triggers a drain before the window elapses.
	MaxBatchSize int

	// BatchingEnabled turns queued dispatch on. When false, QueueInvalidation
	// dispatches synchronously, for latency-sensitive callers that cannot
	// tolerate a coalescing window.
	BatchingEnabled bool

	// Logger receives dispatch logging. If nil, defaults to no-op.
	Logger cache.Logger

	// DebugMode enables per-event debug logging.
	DebugMode bool
}

// DefaultOptions returns default bus options.
func DefaultOptions() Options {
	return Options{
		BatchDelay:      time.Second,
		MaxBatchSize:    50,
		BatchingEnabled: true,
	}
}

// Bus consumes invalidation events and drives deletions through the cache
// façade. Events pass through Received -> Resolved -> Dispatched: resolution
// computes the affected keys and patterns, dispatch calls the façade.
//
// Queued events are drained in FIFO order by a coalescing window or a size
// threshold, whichever comes first; events queued while a drain is in flight
// are deferred to the next batch. Duplicate events within a window are not
// deduplicated: dispatch is idempotent, so duplicates are harmless and the
// bookkeeping to coalesce them is not worth carrying.
type Bus struct {
	cache  cache.Cache
	opts   Options
	logger cache.Logger

	mu      sync.Mutex
	pending []types.Event
	closed  bool

	notify chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewBus creates a bus bound to a cache façade and starts its drain worker.
func NewBus(c cache.Cache, opts Options) *Bus {
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = time.Second
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 50
	}
	if opts.Logger == nil {
		opts.Logger = cache.NewNoOpLogger()
	}

	b := &Bus{
		cache:  c,
		opts:   opts,
		logger: opts.Logger,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	if opts.BatchingEnabled {
		b.wg.Add(1)
		go b.run()
	}
	return b
}

// Invalidate resolves and dispatches an event synchronously. The returned
// error reports a malformed event only; dispatch failures against the durable
// backend are logged and dropped, with the fallback tier already cleared by
// the façade.
func (b *Bus) Invalidate(ctx context.Context, ev types.Event) error {
	return b.dispatch(ctx, ev)
}

// QueueInvalidation appends an event to the pending batch. The batch drains
// when it reaches MaxBatchSize or when the coalescing window elapses. With
// batching disabled the event dispatches synchronously instead.
func (b *Bus) QueueInvalidation(ev types.Event) {
	if !b.opts.BatchingEnabled {
		if err := b.Invalidate(context.Background(), ev); err != nil {
			b.logger.Warn("invalidation: dropping malformed event", "event", ev.String(), "error", err)
		}
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.Warn("invalidation: event queued after close", "event", ev.String())
		return
	}
	b.pending = append(b.pending, ev)
	trigger := len(b.pending) >= b.opts.MaxBatchSize
	b.mu.Unlock()

	if trigger {
		select {
		case b.notify <- struct{}{}:
		default:
		}
	}
}

// Flush force-drains the pending queue synchronously.
func (b *Bus) Flush(ctx context.Context) {
	b.processPending(ctx)
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close stops the drain worker and flushes any pending events synchronously
// so invalidations are not lost on shutdown. Safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.done)
	b.wg.Wait()

	b.processPending(context.Background())
	return nil
}

// run is the drain worker: it fires on the coalescing window and on
// size-threshold kicks.
func (b *Bus) run() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.opts.BatchDelay)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.processPending(context.Background())
		case <-b.notify:
			// A burst can keep queueing while the drain is in flight; keep
			// draining so the kick empties everything the burst produced.
			for b.processPending(context.Background()) > 0 {
			}
		}
	}
}

// processPending snapshots and clears the queue, then dispatches the snapshot
// concurrently. Events queued during the dispatch land in the next batch,
// never in the in-flight one. Returns the number of events dispatched.
func (b *Bus) processPending(ctx context.Context) int {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	if b.opts.DebugMode {
		b.logger.Debug("invalidation: draining batch", "events", len(batch))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDispatch)
	for _, ev := range batch {
		ev := ev
		g.Go(func() error {
			if err := b.dispatch(gctx, ev); err != nil {
				b.logger.Warn("invalidation: dropping malformed event", "event", ev.String(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return len(batch)
}

func (b *Bus) dispatch(ctx context.Context, ev types.Event) error {
	res, err := Resolve(ev)
	if err != nil {
		return err
	}

	if res.FlushAll {
		b.cache.FlushAll(ctx)
		if b.opts.DebugMode {
			b.logger.Debug("invalidation: flushed all", "event", ev.String())
		}
		return nil
	}

	for _, key := range res.Keys {
		b.cache.Delete(ctx, key)
	}
	for _, pattern := range res.Patterns {
		if _, derr := b.cache.DeletePattern(ctx, pattern); derr != nil {
			// Malformed resolver output would be a bug in this package, not
			// the caller's event. Log and drop.
			b.logger.Warn("invalidation: pattern delete rejected", "pattern", pattern, "error", derr)
		}
	}

	if b.opts.DebugMode {
		b.logger.Debug("invalidation: dispatched", "event", ev.String(),
			"keys", len(res.Keys), "patterns", len(res.Patterns))
	}
	return nil
}
