package gamecache

import (
	"github.com/questline/gamecache/cache"
	"github.com/questline/gamecache/storage"
)

// ErrNotFound is returned when a key is not present in the durable backend.
var ErrNotFound = storage.ErrNotFound

// ErrBackendUnavailable is returned when the durable backend cannot be
// reached. The façade absorbs it; application code only sees it from direct
// storage-layer use.
var ErrBackendUnavailable = storage.ErrUnavailable

// ErrSerialization is returned when a cache value cannot be encoded or
// decoded.
var ErrSerialization = storage.ErrSerialization

// ErrInvalidPattern is returned for a malformed pattern argument. Unlike
// backend failures it is surfaced to the caller, since silently ignoring it
// would hide a bug.
var ErrInvalidPattern = storage.ErrInvalidPattern

// ErrCacheClosed is returned when operations are performed on a closed cache.
var ErrCacheClosed = cache.ErrCacheClosed

// ErrInvalidConfig is returned when the cache configuration is invalid.
var ErrInvalidConfig = cache.ErrInvalidConfig
