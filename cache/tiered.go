package cache

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/questline/gamecache/storage"
)

// TieredCache is the cache façade: a durable backend client composed with an
// in-process fallback store. Every operation tries the durable tier first and
// degrades to the fallback tier on failure; successful writes mirror into
// both tiers so fallback reads stay warm through an outage. The façade is
// never the source of a user-visible error for availability reasons.
type TieredCache struct {
	remote     RemoteStore
	fallback   FallbackStore
	marshaller Marshaller
	metrics    *Collector
	logger     Logger
	options    Options

	closed    int32
	sweepDone chan struct{}
	sweepWG   sync.WaitGroup
}

// New creates a new TieredCache instance.
func New(opts Options) (*TieredCache, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	// Set defaults for optional collaborators
	if opts.FallbackFactory == nil {
		opts.FallbackFactory = NewLRUFallbackFactory(opts.FallbackMaxEntries)
	}
	if opts.Marshaller == nil {
		opts.Marshaller = NewJSONMarshaller()
	}
	if opts.Logger == nil {
		opts.Logger = NewNoOpLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewCollector()
	}

	fallback, err := opts.FallbackFactory.Create()
	if err != nil {
		return nil, err
	}

	remote := opts.RemoteStore
	if remote == nil {
		remote, err = storage.NewRedisStore(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.ConnectTimeout)
		if err != nil {
			fallback.Close()
			return nil, err
		}
	}

	tc := &TieredCache{
		remote:     remote,
		fallback:   fallback,
		marshaller: opts.Marshaller,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		options:    opts,
		sweepDone:  make(chan struct{}),
	}

	if opts.SweepInterval > 0 {
		tc.sweepWG.Add(1)
		go tc.sweepLoop()
	}

	return tc, nil
}

// Get retrieves a value. The durable tier is the source of truth when
// reachable: an authoritative miss does not consult the fallback store.
func (tc *TieredCache) Get(ctx context.Context, key string) (any, bool) {
	if tc.isClosed() {
		return nil, false
	}

	start := time.Now()
	cctx, cancel := tc.opCtx(ctx)
	defer cancel()

	data, err := tc.remote.Get(cctx, key)
	switch {
	case err == nil:
		var value any
		if uerr := tc.marshaller.Unmarshal(data, &value); uerr != nil {
			tc.metrics.RecordError(time.Since(start))
			tc.reportError(fmt.Errorf("%w: %v", storage.ErrSerialization, uerr))
			return tc.fallbackGet(key, start)
		}
		tc.metrics.RecordHit(time.Since(start))
		tc.debug("Get: durable hit", "key", key)
		return value, true

	case errors.Is(err, storage.ErrNotFound):
		tc.metrics.RecordMiss(time.Since(start))
		tc.debug("Get: durable miss", "key", key)
		return nil, false

	default:
		tc.metrics.RecordError(time.Since(start))
		tc.reportError(err)
		tc.debug("Get: durable tier failed, using fallback", "key", key, "error", err)
		return tc.fallbackGet(key, start)
	}
}

func (tc *TieredCache) fallbackGet(key string, start time.Time) (any, bool) {
	value, found := tc.fallback.Get(key)
	if found {
		tc.metrics.RecordHit(time.Since(start))
		return value, true
	}
	tc.metrics.RecordMiss(time.Since(start))
	return nil, false
}

// Set stores a value in both tiers. If the durable write fails the value is
// still written to the fallback store and the result is reported degraded,
// never failed.
func (tc *TieredCache) Set(ctx context.Context, key string, value any, ttl time.Duration) SetResult {
	if tc.isClosed() {
		return SetResult{}
	}
	if ttl <= 0 {
		ttl = tc.options.DefaultTTL
	}

	start := time.Now()

	data, err := tc.marshaller.Marshal(value)
	if err != nil {
		tc.fallback.Set(key, value, ttl)
		tc.metrics.RecordError(time.Since(start))
		tc.metrics.RecordSet(time.Since(start))
		tc.reportError(fmt.Errorf("%w: %v", storage.ErrSerialization, err))
		return SetResult{OK: true, Degraded: true}
	}

	cctx, cancel := tc.opCtx(ctx)
	defer cancel()

	if err := tc.remote.Set(cctx, key, data, ttl); err != nil {
		tc.fallback.Set(key, value, ttl)
		tc.metrics.RecordError(time.Since(start))
		tc.metrics.RecordSet(time.Since(start))
		tc.reportError(err)
		tc.debug("Set: durable tier failed, wrote fallback only", "key", key, "error", err)
		return SetResult{OK: true, Degraded: true}
	}

	tc.fallback.Set(key, value, ttl)
	tc.metrics.RecordSet(time.Since(start))
	tc.debug("Set: wrote both tiers", "key", key, "ttl", ttl)
	return SetResult{OK: true}
}

// Delete removes a key from both tiers. It reports whether a live entry was
// removed from either tier; deleting an absent key is a no-op.
func (tc *TieredCache) Delete(ctx context.Context, key string) bool {
	if tc.isClosed() {
		return false
	}

	start := time.Now()
	cctx, cancel := tc.opCtx(ctx)
	defer cancel()

	removedRemote, err := tc.remote.Delete(cctx, key)
	removedFallback := tc.fallback.Delete(key)

	if err != nil {
		tc.metrics.RecordError(time.Since(start))
		tc.reportError(err)
		tc.metrics.RecordDelete(time.Since(start))
		return removedFallback
	}

	tc.metrics.RecordDelete(time.Since(start))
	return removedRemote || removedFallback
}

// Exists reports whether a key is present.
func (tc *TieredCache) Exists(ctx context.Context, key string) bool {
	if tc.isClosed() {
		return false
	}

	start := time.Now()
	cctx, cancel := tc.opCtx(ctx)
	defer cancel()

	found, err := tc.remote.Exists(cctx, key)
	if err != nil {
		tc.metrics.RecordError(time.Since(start))
		tc.reportError(err)
		_, found = tc.fallback.Get(key)
	}

	if found {
		tc.metrics.RecordHit(time.Since(start))
	} else {
		tc.metrics.RecordMiss(time.Since(start))
	}
	return found
}

// MGet retrieves multiple keys in one backend round trip. Results are merged
// per key: a key absent in the durable tier may still resolve from the
// fallback store and vice versa. A nil slot marks a key absent in both tiers.
func (tc *TieredCache) MGet(ctx context.Context, keys []string) []any {
	results := make([]any, len(keys))
	if tc.isClosed() || len(keys) == 0 {
		return results
	}

	start := time.Now()
	cctx, cancel := tc.opCtx(ctx)
	defer cancel()

	blobs, err := tc.remote.MGet(cctx, keys)
	if err != nil {
		tc.metrics.RecordError(time.Since(start))
		tc.reportError(err)
		tc.debug("MGet: durable tier failed, using fallback", "keys", len(keys), "error", err)
		blobs = make([][]byte, len(keys))
	}

	for i, key := range keys {
		if blobs[i] == nil {
			if value, found := tc.fallback.Get(key); found {
				results[i] = value
				tc.metrics.RecordHit(time.Since(start))
			} else {
				tc.metrics.RecordMiss(time.Since(start))
			}
			continue
		}

		var value any
		if uerr := tc.marshaller.Unmarshal(blobs[i], &value); uerr != nil {
			tc.metrics.RecordError(time.Since(start))
			tc.reportError(fmt.Errorf("%w: %v", storage.ErrSerialization, uerr))
			if fv, found := tc.fallback.Get(key); found {
				results[i] = fv
				tc.metrics.RecordHit(time.Since(start))
			} else {
				tc.metrics.RecordMiss(time.Since(start))
			}
			continue
		}

		results[i] = value
		tc.metrics.RecordHit(time.Since(start))
	}
	return results
}

// MSet stores multiple entries in one pipelined backend round trip, mirroring
// each entry into the fallback store. Entries whose values cannot be
// serialized reach the fallback tier only and degrade the result.
func (tc *TieredCache) MSet(ctx context.Context, entries []Entry) SetResult {
	if tc.isClosed() {
		return SetResult{}
	}
	if len(entries) == 0 {
		return SetResult{OK: true}
	}

	start := time.Now()
	degraded := false

	remoteEntries := make([]storage.Entry, 0, len(entries))
	for _, e := range entries {
		ttl := e.TTL
		if ttl <= 0 {
			ttl = tc.options.DefaultTTL
		}
		data, err := tc.marshaller.Marshal(e.Value)
		if err != nil {
			tc.metrics.RecordError(time.Since(start))
			tc.reportError(fmt.Errorf("%w: %v", storage.ErrSerialization, err))
			degraded = true
			continue
		}
		remoteEntries = append(remoteEntries, storage.Entry{Key: e.Key, Value: data, TTL: ttl})
	}

	cctx, cancel := tc.opCtx(ctx)
	defer cancel()

	if err := tc.remote.MSet(cctx, remoteEntries); err != nil {
		tc.metrics.RecordError(time.Since(start))
		tc.reportError(err)
		tc.debug("MSet: durable tier failed, wrote fallback only", "entries", len(entries), "error", err)
		degraded = true
	}

	for _, e := range entries {
		ttl := e.TTL
		if ttl <= 0 {
			ttl = tc.options.DefaultTTL
		}
		tc.fallback.Set(e.Key, e.Value, ttl)
		tc.metrics.RecordSet(time.Since(start))
	}
	return SetResult{OK: true, Degraded: degraded}
}

// DeletePattern removes every key matching a glob pattern from both tiers.
// The count reflects the durable tier when it is reachable, otherwise the
// fallback tier; the tiers overlap, so the counts are never summed. A
// malformed pattern is a caller bug and is surfaced, not degraded.
func (tc *TieredCache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	if tc.isClosed() {
		return 0, ErrCacheClosed
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("%w: %q", storage.ErrInvalidPattern, pattern)
	}

	start := time.Now()
	cctx, cancel := tc.opCtx(ctx)
	defer cancel()

	remoteCount, err := tc.remote.DeletePattern(cctx, pattern)
	fallbackCount, _ := tc.fallback.DeletePattern(pattern)

	if err != nil {
		if errors.Is(err, storage.ErrInvalidPattern) {
			return 0, err
		}
		tc.metrics.RecordError(time.Since(start))
		tc.reportError(err)
		tc.metrics.RecordDelete(time.Since(start))
		tc.debug("DeletePattern: durable tier failed, fallback only", "pattern", pattern, "error", err)
		return fallbackCount, nil
	}

	tc.metrics.RecordDelete(time.Since(start))
	tc.debug("DeletePattern: removed", "pattern", pattern, "count", remoteCount)
	return remoteCount, nil
}

// FlushAll removes every key from both tiers.
func (tc *TieredCache) FlushAll(ctx context.Context) {
	if tc.isClosed() {
		return
	}

	start := time.Now()
	cctx, cancel := tc.opCtx(ctx)
	defer cancel()

	if err := tc.remote.FlushAll(cctx); err != nil {
		tc.metrics.RecordError(time.Since(start))
		tc.reportError(err)
	} else {
		tc.metrics.RecordDelete(time.Since(start))
	}
	tc.fallback.Flush()
}

// HealthCheck reports per-tier health. The fallback tier has no unreachable
// dependencies and is operational whenever the process is.
func (tc *TieredCache) HealthCheck(ctx context.Context) Health {
	h := Health{
		Fallback: FallbackHealth{
			Operational: !tc.isClosed(),
			Entries:     tc.fallback.Len(),
		},
	}

	if tc.isClosed() {
		h.Durable.Err = ErrCacheClosed.Error()
		return h
	}

	cctx, cancel := tc.opCtx(ctx)
	defer cancel()

	latency, err := tc.remote.Ping(cctx)
	if err != nil {
		h.Durable.Err = err.Error()
		return h
	}
	h.Durable.Connected = true
	h.Durable.Latency = latency
	return h
}

// Metrics returns a point-in-time metrics snapshot.
func (tc *TieredCache) Metrics() MetricsSnapshot {
	return tc.metrics.Snapshot()
}

// ResetMetrics zeroes all counters.
func (tc *TieredCache) ResetMetrics() {
	tc.metrics.Reset()
}

// Close stops the fallback sweeper and releases both tiers. Safe to call
// more than once.
func (tc *TieredCache) Close() error {
	if !atomic.CompareAndSwapInt32(&tc.closed, 0, 1) {
		return nil
	}

	close(tc.sweepDone)
	tc.sweepWG.Wait()

	err := tc.remote.Close()
	tc.fallback.Close()
	return err
}

func (tc *TieredCache) sweepLoop() {
	defer tc.sweepWG.Done()

	ticker := time.NewTicker(tc.options.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-tc.sweepDone:
			return
		case <-ticker.C:
			if removed := tc.fallback.Cleanup(); removed > 0 {
				tc.debug("sweep: removed expired fallback entries", "count", removed)
			}
		}
	}
}

// opCtx bounds a durable call with the configured operation timeout when the
// caller's context has no earlier deadline.
func (tc *TieredCache) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, tc.options.OperationTimeout)
}

func (tc *TieredCache) isClosed() bool {
	return atomic.LoadInt32(&tc.closed) != 0
}

func (tc *TieredCache) reportError(err error) {
	if tc.options.OnError != nil {
		tc.options.OnError(err)
	}
}

func (tc *TieredCache) debug(msg string, args ...any) {
	if tc.options.DebugMode {
		tc.logger.Debug(msg, args...)
	}
}
