package cache

import (
	"fmt"
	"path"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/questline/gamecache/storage"
)

// fallbackEntry wraps a stored value with its expiry deadline.
type fallbackEntry struct {
	value     any
	expiresAt time.Time
}

func (e fallbackEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// LRUFallbackFactory creates LRU fallback store instances.
type LRUFallbackFactory struct {
	maxEntries int
}

// NewLRUFallbackFactory creates a new LRU fallback factory.
func NewLRUFallbackFactory(maxEntries int) FallbackFactory {
	return &LRUFallbackFactory{maxEntries: maxEntries}
}

// Create creates a new LRU fallback store.
func (f *LRUFallbackFactory) Create() (FallbackStore, error) {
	return NewLRUFallback(f.maxEntries)
}

// LRUFallback is the default fallback store: a bounded LRU map with per-entry
// expiry. The LRU bound caps memory when the durable backend is down for a
// long stretch and writes keep mirroring in.
type LRUFallback struct {
	entries *lru.Cache[string, fallbackEntry]
}

// NewLRUFallback creates an LRU fallback store holding at most maxEntries.
func NewLRUFallback(maxEntries int) (*LRUFallback, error) {
	entries, err := lru.New[string, fallbackEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &LRUFallback{entries: entries}, nil
}

// Get retrieves a value if present and not expired. An expired entry is
// removed and reported absent.
func (s *LRUFallback) Get(key string) (any, bool) {
	e, ok := s.entries.Get(key)
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		s.entries.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value with a per-entry TTL, overwriting any existing entry.
func (s *LRUFallback) Set(key string, value any, ttl time.Duration) {
	s.entries.Add(key, fallbackEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
}

// Delete removes a key and reports whether a live entry was present.
func (s *LRUFallback) Delete(key string) bool {
	e, ok := s.entries.Peek(key)
	if !ok {
		return false
	}
	s.entries.Remove(key)
	return !e.expired(time.Now())
}

// DeletePattern removes every key matching a glob pattern via a linear scan.
func (s *LRUFallback) DeletePattern(pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("%w: %q", storage.ErrInvalidPattern, pattern)
	}

	removed := 0
	for _, key := range s.entries.Keys() {
		ok, _ := path.Match(pattern, key)
		if ok && s.entries.Remove(key) {
			removed++
		}
	}
	return removed, nil
}

// Cleanup removes all expired entries and returns the number removed.
func (s *LRUFallback) Cleanup() int {
	now := time.Now()
	removed := 0
	for _, key := range s.entries.Keys() {
		e, ok := s.entries.Peek(key)
		if ok && e.expired(now) && s.entries.Remove(key) {
			removed++
		}
	}
	return removed
}

// Flush removes all entries.
func (s *LRUFallback) Flush() {
	s.entries.Purge()
}

// Len returns the number of stored entries, expired ones included until the
// next sweep.
func (s *LRUFallback) Len() int {
	return s.entries.Len()
}

// Close releases the store.
func (s *LRUFallback) Close() {
	s.entries.Purge()
}
