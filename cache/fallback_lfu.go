package cache

import (
	"fmt"
	"path"
	"sync"
	"time"

	lfu "github.com/dgraph-io/ristretto"

	"github.com/questline/gamecache/storage"
)

// LFUFallbackFactory creates Ristretto fallback store instances.
type LFUFallbackFactory struct {
	maxEntries int
}

// NewLFUFallbackFactory creates a new Ristretto fallback factory.
func NewLFUFallbackFactory(maxEntries int) FallbackFactory {
	return &LFUFallbackFactory{maxEntries: maxEntries}
}

// Create creates a new Ristretto fallback store.
func (f *LFUFallbackFactory) Create() (FallbackStore, error) {
	return NewLFUFallback(f.maxEntries)
}

// LFUFallback is a Ristretto-backed fallback store for read-heavy workloads
// where LFU admission beats plain LRU. Ristretto cannot enumerate its keys,
// so a mutex-guarded key index is kept alongside it to serve pattern deletes
// and expiry sweeps. Ristretto may evict behind the index, which makes Len an
// upper bound; lookups always consult Ristretto itself, so correctness is
// unaffected.
type LFUFallback struct {
	cache *lfu.Cache

	mu   sync.Mutex
	keys map[string]time.Time // key -> expiry deadline
}

// NewLFUFallback creates a Ristretto fallback store sized for maxEntries.
func NewLFUFallback(maxEntries int) (*LFUFallback, error) {
	numCounters := int64(maxEntries) * 10
	if numCounters < 1000 {
		numCounters = 1000
	}

	cache, err := lfu.NewCache(&lfu.Config{
		NumCounters:        numCounters,
		MaxCost:            int64(maxEntries),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	return &LFUFallback{
		cache: cache,
		keys:  make(map[string]time.Time),
	}, nil
}

// Get retrieves a value if present and not expired.
func (s *LFUFallback) Get(key string) (any, bool) {
	v, found := s.cache.Get(key)
	if !found {
		return nil, false
	}
	e, ok := v.(fallbackEntry)
	if !ok {
		s.remove(key)
		return nil, false
	}
	if e.expired(time.Now()) {
		s.remove(key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value with a per-entry TTL.
func (s *LFUFallback) Set(key string, value any, ttl time.Duration) {
	expiresAt := time.Now().Add(ttl)
	admitted := s.cache.Set(key, fallbackEntry{value: value, expiresAt: expiresAt}, 1)
	// Wait for the write to clear Ristretto's buffers so a read-after-write
	// round-trips.
	s.cache.Wait()

	s.mu.Lock()
	if admitted {
		s.keys[key] = expiresAt
	} else {
		delete(s.keys, key)
	}
	s.mu.Unlock()
}

// Delete removes a key and reports whether a live entry was present.
func (s *LFUFallback) Delete(key string) bool {
	s.mu.Lock()
	expiresAt, present := s.keys[key]
	delete(s.keys, key)
	s.mu.Unlock()

	s.cache.Del(key)
	return present && !time.Now().After(expiresAt)
}

// DeletePattern removes every key matching a glob pattern via a linear scan
// over the key index.
func (s *LFUFallback) DeletePattern(pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("%w: %q", storage.ErrInvalidPattern, pattern)
	}

	s.mu.Lock()
	var matched []string
	for key := range s.keys {
		if ok, _ := path.Match(pattern, key); ok {
			matched = append(matched, key)
		}
	}
	for _, key := range matched {
		delete(s.keys, key)
	}
	s.mu.Unlock()

	for _, key := range matched {
		s.cache.Del(key)
	}
	return len(matched), nil
}

// Cleanup removes all expired entries and returns the number removed.
func (s *LFUFallback) Cleanup() int {
	now := time.Now()

	s.mu.Lock()
	var expired []string
	for key, expiresAt := range s.keys {
		if now.After(expiresAt) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		delete(s.keys, key)
	}
	s.mu.Unlock()

	for _, key := range expired {
		s.cache.Del(key)
	}
	return len(expired)
}

// Flush removes all entries.
func (s *LFUFallback) Flush() {
	s.mu.Lock()
	s.keys = make(map[string]time.Time)
	s.mu.Unlock()
	s.cache.Clear()
}

// Len returns the number of indexed entries. This is an upper bound when
// Ristretto's admission policy has evicted behind the index.
func (s *LFUFallback) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Close releases the store.
func (s *LFUFallback) Close() {
	s.cache.Close()
}

func (s *LFUFallback) remove(key string) {
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
	s.cache.Del(key)
}
