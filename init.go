package gamecache

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/questline/gamecache/cache"
	"github.com/questline/gamecache/invalidation"
	"github.com/questline/gamecache/storage"
)

// Config configures the cache subsystem: the tiered cache façade plus the
// invalidation bus bound to it.
type Config struct {
	// RedisAddr is the durable backend address (e.g., "localhost:6379").
	RedisAddr string `env:"CACHE_REDIS_ADDR" envDefault:"localhost:6379"`

	// RedisPassword is the optional backend password.
	RedisPassword string `env:"CACHE_REDIS_PASSWORD"`

	// RedisDB is the backend database number.
	RedisDB int `env:"CACHE_REDIS_DB" envDefault:"0"`

	// ConnectTimeout bounds the initial connection check.
	ConnectTimeout time.Duration `env:"CACHE_CONNECT_TIMEOUT" envDefault:"5s"`

	// OperationTimeout bounds each durable call when the caller's context has
	// no earlier deadline.
	OperationTimeout time.Duration `env:"CACHE_OPERATION_TIMEOUT" envDefault:"2s"`

	// DefaultTTL is applied to writes that pass a zero TTL.
	DefaultTTL time.Duration `env:"CACHE_DEFAULT_TTL" envDefault:"5m"`

	// SweepInterval is how often the fallback store is swept for expired
	// entries. Zero disables the sweeper.
	SweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"1m"`

	// FallbackMaxEntries bounds the in-process fallback store.
	FallbackMaxEntries int `env:"CACHE_FALLBACK_MAX_ENTRIES" envDefault:"10000"`

	// BatchDelay is the invalidation coalescing window.
	BatchDelay time.Duration `env:"CACHE_BATCH_DELAY" envDefault:"1s"`

	// MaxBatchSize drains the invalidation queue before the window elapses.
	MaxBatchSize int `env:"CACHE_MAX_BATCH_SIZE" envDefault:"50"`

	// BatchingEnabled turns queued invalidation dispatch on. When false every
	// queued event dispatches immediately.
	BatchingEnabled bool `env:"CACHE_BATCHING_ENABLED" envDefault:"true"`

	// SerializationFormat specifies how values are serialized ("json").
	SerializationFormat string `env:"CACHE_SERIALIZATION_FORMAT" envDefault:"json"`

	// DebugMode enables per-operation debug logging.
	DebugMode bool `env:"CACHE_DEBUG" envDefault:"false"`

	// FallbackFactory creates the fallback store. If nil, defaults to the
	// bounded LRU store.
	FallbackFactory FallbackFactory `env:"-"`

	// RemoteStore overrides the durable backend client; used by tests.
	RemoteStore cache.RemoteStore `env:"-"`

	// Marshaller overrides SerializationFormat when set.
	Marshaller Marshaller `env:"-"`

	// Logger receives subsystem log output. If nil, defaults to no-op.
	Logger Logger `env:"-"`

	// Metrics is the injected metrics collector. If nil, a fresh collector is
	// created.
	Metrics *Collector `env:"-"`

	// OnError is called when an error occurs in background operations.
	OnError func(error) `env:"-"`
}

// DefaultConfig returns the default subsystem configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:           "localhost:6379",
		RedisDB:             0,
		ConnectTimeout:      5 * time.Second,
		OperationTimeout:    cache.DefaultOperationTimeout,
		DefaultTTL:          5 * time.Minute,
		SweepInterval:       time.Minute,
		FallbackMaxEntries:  10000,
		BatchDelay:          time.Second,
		MaxBatchSize:        50,
		BatchingEnabled:     true,
		SerializationFormat: "json",
	}
}

// ConfigFromEnv builds a Config from CACHE_* environment variables, falling
// back to the defaults for anything unset.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// New creates the cache façade and an invalidation bus bound to it. Close the
// bus before the cache on shutdown so pending invalidations flush through a
// live façade.
func New(cfg Config) (Cache, *Bus, error) {
	marshaller := cfg.Marshaller
	if marshaller == nil {
		s, err := storage.GetSerializer(cfg.SerializationFormat)
		if err != nil {
			return nil, nil, err
		}
		marshaller = s
	}

	c, err := cache.New(cache.Options{
		RedisAddr:          cfg.RedisAddr,
		RedisPassword:      cfg.RedisPassword,
		RedisDB:            cfg.RedisDB,
		ConnectTimeout:     cfg.ConnectTimeout,
		OperationTimeout:   cfg.OperationTimeout,
		DefaultTTL:         cfg.DefaultTTL,
		SweepInterval:      cfg.SweepInterval,
		FallbackMaxEntries: cfg.FallbackMaxEntries,
		FallbackFactory:    cfg.FallbackFactory,
		RemoteStore:        cfg.RemoteStore,
		Marshaller:         marshaller,
		Logger:             cfg.Logger,
		DebugMode:          cfg.DebugMode,
		Metrics:            cfg.Metrics,
		OnError:            cfg.OnError,
	})
	if err != nil {
		return nil, nil, err
	}

	bus := invalidation.NewBus(c, invalidation.Options{
		BatchDelay:      cfg.BatchDelay,
		MaxBatchSize:    cfg.MaxBatchSize,
		BatchingEnabled: cfg.BatchingEnabled,
		Logger:          cfg.Logger,
		DebugMode:       cfg.DebugMode,
	})
	return c, bus, nil
}
