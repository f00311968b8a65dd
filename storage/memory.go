package storage

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process implementation of the durable store's
// capability set. It backs tests and local development where no Redis is
// running; it is not the fallback tier, which has its own expiry-aware
// stores in the cache package.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get retrieves a value if present and not expired.
func (ms *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, ok := ms.entries[key]
	if !ok || e.expired(time.Now()) {
		delete(ms.entries, key)
		return nil, ErrNotFound
	}
	return e.data, nil
}

// Set stores a value with a TTL. A zero TTL stores the value without expiry.
func (ms *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	e := memoryEntry{data: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	ms.entries[key] = e
	return nil
}

// Delete removes a key and reports whether a live entry existed.
func (ms *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, ok := ms.entries[key]
	delete(ms.entries, key)
	return ok && !e.expired(time.Now()), nil
}

// Exists reports whether a key is present and not expired.
func (ms *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, ok := ms.entries[key]
	return ok && !e.expired(time.Now()), nil
}

// MGet retrieves multiple keys; the result is aligned with keys and a nil
// slot marks an absent key.
func (ms *MemoryStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	out := make([][]byte, len(keys))
	for i, key := range keys {
		if e, ok := ms.entries[key]; ok && !e.expired(now) {
			out[i] = e.data
		}
	}
	return out, nil
}

// MSet stores multiple entries.
func (ms *MemoryStore) MSet(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := ms.Set(ctx, e.Key, e.Value, e.TTL); err != nil {
			return err
		}
	}
	return nil
}

// DeletePattern removes every key matching a glob pattern.
func (ms *MemoryStore) DeletePattern(ctx context.Context, pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range ms.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(ms.entries, key)
			if !e.expired(now) {
				removed++
			}
		}
	}
	return removed, nil
}

// FlushAll removes every entry.
func (ms *MemoryStore) FlushAll(ctx context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries = make(map[string]memoryEntry)
	return nil
}

// Ping always succeeds.
func (ms *MemoryStore) Ping(ctx context.Context) (time.Duration, error) {
	return time.Microsecond, nil
}

// Close is a no-op.
func (ms *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.entries)
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}
