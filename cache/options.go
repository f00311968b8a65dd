package cache

import (
	"errors"
	"time"
)

// ErrCacheClosed is returned when operations are performed on a closed cache.
var ErrCacheClosed = errors.New("cache is closed")

// ErrInvalidConfig is returned when options are invalid.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// DefaultOperationTimeout bounds every durable backend call that arrives
// without a context deadline. After it elapses the call is treated as a
// backend failure and the façade falls back, so a hung backend never blocks
// a request handler for more than this long.
const DefaultOperationTimeout = 2 * time.Second

// Options configures a TieredCache instance.
type Options struct {
	// RedisAddr is the durable backend address (e.g., "localhost:6379").
	RedisAddr string

	// RedisPassword is the optional backend password.
	RedisPassword string

	// RedisDB is the backend database number.
	RedisDB int

	// ConnectTimeout bounds the initial connection check.
	ConnectTimeout time.Duration

	// OperationTimeout bounds each durable call when the caller's context has
	// no earlier deadline.
	OperationTimeout time.Duration

	// DefaultTTL is applied to writes that pass a zero or negative TTL.
	DefaultTTL time.Duration

	// SweepInterval is how often the fallback store is swept for expired
	// entries. Zero disables the background sweeper.
	SweepInterval time.Duration

	// FallbackMaxEntries bounds the fallback store.
	FallbackMaxEntries int

	// FallbackFactory creates the fallback store.
	// If nil, defaults to the LRU factory.
	FallbackFactory FallbackFactory

	// RemoteStore overrides the durable backend client.
	// If nil, a Redis client is created from RedisAddr.
	RemoteStore RemoteStore

	// Marshaller serializes values for the durable tier.
	// If nil, defaults to JSON.
	Marshaller Marshaller

	// Logger receives subsystem log output.
	// If nil, defaults to no-op.
	Logger Logger

	// DebugMode enables per-operation debug logging.
	DebugMode bool

	// Metrics is the injected metrics collector, so tests can isolate and
	// reset instances. If nil, a fresh collector is created.
	Metrics *Collector

	// OnError is called when an error occurs in background operations.
	OnError func(error)
}

// DefaultOptions returns default cache options.
func DefaultOptions() Options {
	return Options{
		RedisAddr:          "localhost:6379",
		RedisDB:            0,
		ConnectTimeout:     5 * time.Second,
		OperationTimeout:   DefaultOperationTimeout,
		DefaultTTL:         5 * time.Minute,
		SweepInterval:      time.Minute,
		FallbackMaxEntries: 10000,
	}
}

// Validate validates the options.
func (o *Options) Validate() error {
	if o.RedisAddr == "" && o.RemoteStore == nil {
		return ErrInvalidConfig
	}
	if o.OperationTimeout <= 0 {
		return ErrInvalidConfig
	}
	if o.DefaultTTL <= 0 {
		return ErrInvalidConfig
	}
	if o.SweepInterval < 0 {
		return ErrInvalidConfig
	}
	if o.FallbackMaxEntries <= 0 {
		return ErrInvalidConfig
	}
	return nil
}
