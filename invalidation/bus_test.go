package invalidation

import (
	"context"
	"testing"
	"time"

	"github.com/questline/gamecache/cache"
	"github.com/questline/gamecache/storage"
	"github.com/questline/gamecache/types"
)

func newBusCache(t *testing.T) *cache.TieredCache {
	t.Helper()

	opts := cache.DefaultOptions()
	opts.RemoteStore = storage.NewMemoryStore()
	opts.SweepInterval = 0

	tc, err := cache.New(opts)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	t.Cleanup(func() { tc.Close() })
	return tc
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestBusImmediateScopedInvalidation(t *testing.T) {
	tc := newBusCache(t)
	ctx := context.Background()

	tc.Set(ctx, PlayerKey("P1", "score"), 100, time.Minute)
	tc.Set(ctx, PlayerKey("P1", "profile"), "alice", time.Minute)
	tc.Set(ctx, PlayerKey("P2", "score"), 50, time.Minute)

	bus := NewBus(tc, DefaultOptions())
	defer bus.Close()

	ev := types.NewEvent(types.EventPlayerUpdate, types.ScopePlayer, "P1")
	if err := bus.Invalidate(ctx, ev); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	if _, found := tc.Get(ctx, PlayerKey("P1", "score")); found {
		t.Fatal("player:P1:score should be invalidated")
	}
	if _, found := tc.Get(ctx, PlayerKey("P1", "profile")); found {
		t.Fatal("player:P1:profile should be invalidated")
	}
	if _, found := tc.Get(ctx, PlayerKey("P2", "score")); !found {
		t.Fatal("player:P2:score should survive")
	}
}

func TestBusGlobalEventFlushesEverything(t *testing.T) {
	tc := newBusCache(t)
	ctx := context.Background()

	tc.Set(ctx, PlayerKey("P1", "score"), 100, time.Minute)
	tc.Set(ctx, ConfigKey("branding"), "blue", time.Minute)

	bus := NewBus(tc, DefaultOptions())
	defer bus.Close()

	if err := bus.Invalidate(ctx, types.NewEvent(types.EventManual, types.ScopeGlobal, "")); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	if _, found := tc.Get(ctx, PlayerKey("P1", "score")); found {
		t.Fatal("Global invalidation should remove player keys")
	}
	if _, found := tc.Get(ctx, ConfigKey("branding")); found {
		t.Fatal("Global invalidation should remove config keys")
	}
}

func TestBusInvalidateRejectsMalformedEvent(t *testing.T) {
	bus := NewBus(newBusCache(t), DefaultOptions())
	defer bus.Close()

	ev := types.NewEvent(types.EventManual, "universe", "")
	if err := bus.Invalidate(context.Background(), ev); err == nil {
		t.Fatal("Malformed event should be rejected synchronously")
	}
}

func TestBusSizeTriggeredDrain(t *testing.T) {
	tc := newBusCache(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		tc.Set(ctx, LeaderboardKey("weekly", "page", string(rune('a'+i))), i, time.Minute)
	}

	opts := DefaultOptions()
	opts.MaxBatchSize = 10
	opts.BatchDelay = time.Minute // far enough out that only size can trigger

	bus := NewBus(tc, opts)
	defer bus.Close()

	for i := 0; i < 15; i++ {
		bus.QueueInvalidation(types.NewEvent(types.EventLeaderboardUpdate, types.ScopeLeaderboard, "weekly"))
	}

	waitFor(t, 2*time.Second, func() bool { return bus.Pending() == 0 },
		"Size threshold should drain the queue before the timer fires")

	if _, found := tc.Get(ctx, LeaderboardKey("weekly", "page", "a")); found {
		t.Fatal("Leaderboard keys should be invalidated by the drained batch")
	}
}

func TestBusTimerTriggeredDrain(t *testing.T) {
	tc := newBusCache(t)
	ctx := context.Background()

	tc.Set(ctx, TeamKey("T1", "roster"), "r", time.Minute)

	opts := DefaultOptions()
	opts.BatchDelay = 20 * time.Millisecond

	bus := NewBus(tc, opts)
	defer bus.Close()

	bus.QueueInvalidation(types.NewEvent(types.EventTeamChange, types.ScopeTeam, "T1"))

	waitFor(t, 2*time.Second, func() bool {
		_, found := tc.Get(ctx, TeamKey("T1", "roster"))
		return !found
	}, "Coalescing window should drain the queued event")

	if bus.Pending() != 0 {
		t.Fatalf("Queue should be empty after the drain, got %d", bus.Pending())
	}
}

func TestBusFlushDrainsSynchronously(t *testing.T) {
	tc := newBusCache(t)
	ctx := context.Background()

	tc.Set(ctx, PlayerKey("P5", "score"), 1, time.Minute)

	opts := DefaultOptions()
	opts.BatchDelay = time.Minute

	bus := NewBus(tc, opts)
	defer bus.Close()

	bus.QueueInvalidation(types.NewEvent(types.EventPlayerUpdate, types.ScopePlayer, "P5"))
	bus.Flush(ctx)

	if bus.Pending() != 0 {
		t.Fatalf("Queue should be empty after flush, got %d", bus.Pending())
	}
	if _, found := tc.Get(ctx, PlayerKey("P5", "score")); found {
		t.Fatal("Flushed event should have been dispatched")
	}
}

func TestBusCloseFlushesPending(t *testing.T) {
	tc := newBusCache(t)
	ctx := context.Background()

	tc.Set(ctx, ConfigKey("branding"), "blue", time.Minute)

	opts := DefaultOptions()
	opts.BatchDelay = time.Minute

	bus := NewBus(tc, opts)
	bus.QueueInvalidation(types.NewEvent(types.EventConfigChange, types.ScopeConfig, "branding"))

	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, found := tc.Get(ctx, ConfigKey("branding")); found {
		t.Fatal("Pending invalidations should flush on close")
	}

	// Events after close are dropped, not queued.
	bus.QueueInvalidation(types.NewEvent(types.EventConfigChange, types.ScopeConfig, "branding"))
	if bus.Pending() != 0 {
		t.Fatal("Closed bus should not accept events")
	}
}

func TestBusBatchingDisabledDispatchesInline(t *testing.T) {
	tc := newBusCache(t)
	ctx := context.Background()

	tc.Set(ctx, PlayerKey("P7", "score"), 1, time.Minute)

	opts := DefaultOptions()
	opts.BatchingEnabled = false

	bus := NewBus(tc, opts)
	defer bus.Close()

	bus.QueueInvalidation(types.NewEvent(types.EventPlayerUpdate, types.ScopePlayer, "P7"))

	if _, found := tc.Get(ctx, PlayerKey("P7", "score")); found {
		t.Fatal("Immediate-only mode should dispatch synchronously")
	}
	if bus.Pending() != 0 {
		t.Fatal("Immediate-only mode should never queue")
	}
}

func TestBusDuplicateEventsAreHarmless(t *testing.T) {
	tc := newBusCache(t)
	ctx := context.Background()

	tc.Set(ctx, PlayerKey("P9", "score"), 1, time.Minute)

	bus := NewBus(tc, DefaultOptions())
	defer bus.Close()

	ev := types.NewEvent(types.EventPlayerUpdate, types.ScopePlayer, "P9")
	for i := 0; i < 3; i++ {
		if err := bus.Invalidate(ctx, ev); err != nil {
			t.Fatalf("Duplicate dispatch %d failed: %v", i, err)
		}
	}
}
