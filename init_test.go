package gamecache

import (
	"context"
	"testing"
	"time"

	"github.com/questline/gamecache/storage"
	"github.com/questline/gamecache/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RedisAddr == "" {
		t.Fatal("RedisAddr should not be empty")
	}
	if cfg.OperationTimeout == 0 {
		t.Fatal("OperationTimeout should not be zero")
	}
	if cfg.DefaultTTL == 0 {
		t.Fatal("DefaultTTL should not be zero")
	}
	if cfg.BatchDelay == 0 {
		t.Fatal("BatchDelay should not be zero")
	}
	if cfg.MaxBatchSize == 0 {
		t.Fatal("MaxBatchSize should not be zero")
	}
	if !cfg.BatchingEnabled {
		t.Fatal("Batching should be enabled by default")
	}
	if cfg.SerializationFormat != "json" {
		t.Fatalf("Expected json serialization, got %q", cfg.SerializationFormat)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CACHE_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("CACHE_OPERATION_TIMEOUT", "750ms")
	t.Setenv("CACHE_MAX_BATCH_SIZE", "25")
	t.Setenv("CACHE_BATCHING_ENABLED", "false")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}

	if cfg.RedisAddr != "redis.internal:6380" {
		t.Fatalf("Unexpected RedisAddr: %q", cfg.RedisAddr)
	}
	if cfg.OperationTimeout != 750*time.Millisecond {
		t.Fatalf("Unexpected OperationTimeout: %v", cfg.OperationTimeout)
	}
	if cfg.MaxBatchSize != 25 {
		t.Fatalf("Unexpected MaxBatchSize: %d", cfg.MaxBatchSize)
	}
	if cfg.BatchingEnabled {
		t.Fatal("Batching should be disabled via env")
	}

	// Unset variables keep their defaults.
	if cfg.DefaultTTL != 5*time.Minute {
		t.Fatalf("Unexpected DefaultTTL: %v", cfg.DefaultTTL)
	}
}

func TestNewWithInjectedStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RemoteStore = storage.NewMemoryStore()
	cfg.SweepInterval = 0

	c, bus, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()
	defer bus.Close()

	ctx := context.Background()

	res := c.Set(ctx, "player:P1:profile", "alice", time.Minute)
	if !res.OK || res.Degraded {
		t.Fatalf("Set should succeed undegraded: %+v", res)
	}

	if err := bus.Invalidate(ctx, NewEvent(types.EventPlayerUpdate, types.ScopePlayer, "P1")); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	if _, found := c.Get(ctx, "player:P1:profile"); found {
		t.Fatal("Invalidation should remove the player's keys")
	}
}

func TestNewRejectsUnknownSerialization(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RemoteStore = storage.NewMemoryStore()
	cfg.SerializationFormat = "protobuf"

	if _, _, err := New(cfg); err == nil {
		t.Fatal("Unknown serialization format should be rejected")
	}
}
