package cache

import (
	"sync"
	"time"
)

// MetricsSnapshot is a point-in-time view of cache effectiveness. Rates are
// computed at snapshot time to avoid floating-point drift from incremental
// division; with no recorded operations both rates are 0.
type MetricsSnapshot struct {
	Hits              uint64  `json:"hits"`
	Misses            uint64  `json:"misses"`
	Sets              uint64  `json:"sets"`
	Deletes           uint64  `json:"deletes"`
	Errors            uint64  `json:"errors"`
	HitRate           float64 `json:"hitRate"`
	ErrorRate         float64 `json:"errorRate"`
	AverageResponseMs float64 `json:"averageResponseTimeMs"`
}

// Collector counts cache operations and tracks a simple running mean latency.
// It is process-lifetime state, but constructed explicitly and injected into
// the façade so tests can isolate instances and reset without leakage.
type Collector struct {
	mu      sync.Mutex
	hits    uint64
	misses  uint64
	sets    uint64
	deletes uint64
	errors  uint64

	totalDuration time.Duration
	samples       uint64
}

// NewCollector creates an empty metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordHit records a successful read.
func (c *Collector) RecordHit(d time.Duration) {
	c.record(&c.hits, d)
}

// RecordMiss records a read that found nothing.
func (c *Collector) RecordMiss(d time.Duration) {
	c.record(&c.misses, d)
}

// RecordSet records a completed write.
func (c *Collector) RecordSet(d time.Duration) {
	c.record(&c.sets, d)
}

// RecordDelete records a completed delete.
func (c *Collector) RecordDelete(d time.Duration) {
	c.record(&c.deletes, d)
}

// RecordError records a durable backend failure.
func (c *Collector) RecordError(d time.Duration) {
	c.record(&c.errors, d)
}

func (c *Collector) record(counter *uint64, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*counter++
	c.totalDuration += d
	c.samples++
}

// Snapshot returns the current counters and derived rates.
func (c *Collector) Snapshot() MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := MetricsSnapshot{
		Hits:    c.hits,
		Misses:  c.misses,
		Sets:    c.sets,
		Deletes: c.deletes,
		Errors:  c.errors,
	}

	if reads := c.hits + c.misses; reads > 0 {
		snap.HitRate = float64(c.hits) / float64(reads)
	}
	if total := c.hits + c.misses + c.sets + c.deletes + c.errors; total > 0 {
		snap.ErrorRate = float64(c.errors) / float64(total)
	}
	if c.samples > 0 {
		snap.AverageResponseMs = float64(c.totalDuration.Microseconds()) / float64(c.samples) / 1000
	}
	return snap
}

// Reset zeroes all counters and the latency accumulator.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits, c.misses, c.sets, c.deletes, c.errors = 0, 0, 0, 0, 0
	c.totalDuration = 0
	c.samples = 0
}
