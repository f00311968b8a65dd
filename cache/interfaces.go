package cache

import (
	"context"
	"time"

	"github.com/questline/gamecache/storage"
)

// Logger defines the interface for logging inside the cache subsystem.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...any)

	// Info logs an info message.
	Info(msg string, args ...any)

	// Warn logs a warning message.
	Warn(msg string, args ...any)

	// Error logs an error message.
	Error(msg string, args ...any)
}

// Marshaller defines the interface for value marshalling/unmarshalling.
type Marshaller interface {
	// Marshal serializes a value to bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes a value from bytes.
	Unmarshal(data []byte, v any) error
}

// FallbackStore defines the capability set of the in-process fallback tier.
// It has no unreachable dependencies, so no operation can fail for
// availability reasons; the only error surface is a malformed pattern.
type FallbackStore interface {
	// Get retrieves a value if present and not expired. An expired entry is
	// removed and treated as absent.
	Get(key string) (any, bool)

	// Set stores a value with a per-entry TTL, overwriting any existing entry.
	Set(key string, value any, ttl time.Duration)

	// Delete removes a key and reports whether it was present.
	Delete(key string) bool

	// DeletePattern removes every key matching a glob pattern and returns the
	// number removed. The scan is linear over stored keys.
	DeletePattern(pattern string) (int, error)

	// Cleanup sweeps and removes all expired entries, returning the number
	// removed. Called on a timer to bound memory growth from entries that are
	// never re-read.
	Cleanup() int

	// Flush removes all entries.
	Flush()

	// Len returns the number of stored entries.
	Len() int

	// Close releases the store.
	Close()
}

// FallbackFactory creates fallback store instances.
type FallbackFactory interface {
	// Create creates a new fallback store.
	Create() (FallbackStore, error)
}

// RemoteStore defines the capability set of the durable backend client. Every
// operation is a network call bounded by the context deadline; failures
// surface as storage.ErrUnavailable and absent keys as storage.ErrNotFound.
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	MSet(ctx context.Context, entries []storage.Entry) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
	FlushAll(ctx context.Context) error
	Ping(ctx context.Context) (time.Duration, error)
	Close() error
}

// Entry is a key/value/TTL triple for batched façade writes.
type Entry struct {
	Key   string
	Value any
	TTL   time.Duration
}

// SetResult reports the outcome of a write. Writes never fail outright:
// Degraded marks a write that only reached the fallback tier.
type SetResult struct {
	OK       bool
	Degraded bool
}

// DurableHealth describes the durable backend's reachability.
type DurableHealth struct {
	Connected bool          `json:"connected"`
	Latency   time.Duration `json:"latency,omitempty"`
	Err       string        `json:"error,omitempty"`
}

// FallbackHealth describes the in-process fallback tier.
type FallbackHealth struct {
	Operational bool `json:"operational"`
	Entries     int  `json:"entries"`
}

// Health is the health-check surface polled by operator dashboards.
type Health struct {
	Durable  DurableHealth  `json:"durable"`
	Fallback FallbackHealth `json:"fallback"`
}

// Cache is the façade consumed by the rest of the system. Reads and writes
// never fail due to backend trouble; they degrade to the fallback tier, with
// the degradation observable only through metrics, SetResult, and HealthCheck.
type Cache interface {
	// Get retrieves a value. Returns the value and true if found.
	Get(ctx context.Context, key string) (any, bool)

	// Set stores a value in both tiers. A zero or negative TTL uses the
	// configured default.
	Set(ctx context.Context, key string, value any, ttl time.Duration) SetResult

	// Delete removes a key from both tiers and reports whether it existed in
	// either.
	Delete(ctx context.Context, key string) bool

	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) bool

	// MGet retrieves multiple keys in one backend round trip. The result is
	// aligned with keys; a nil slot marks an absent key.
	MGet(ctx context.Context, keys []string) []any

	// MSet stores multiple entries in one backend round trip.
	MSet(ctx context.Context, entries []Entry) SetResult

	// DeletePattern removes every key matching a glob pattern from both tiers.
	// The only possible error is storage.ErrInvalidPattern.
	DeletePattern(ctx context.Context, pattern string) (int, error)

	// FlushAll removes every key from both tiers.
	FlushAll(ctx context.Context)

	// HealthCheck reports per-tier health.
	HealthCheck(ctx context.Context) Health

	// Metrics returns a point-in-time metrics snapshot.
	Metrics() MetricsSnapshot

	// ResetMetrics zeroes all counters.
	ResetMetrics()

	// Close stops the fallback sweeper and releases the backend connection.
	Close() error
}
