package storage

import "errors"

// ErrNotFound is returned when a key is not present in the durable backend.
var ErrNotFound = errors.New("key not found in durable backend")

// ErrUnavailable is returned when the durable backend cannot be reached,
// including connection failures and operation timeouts.
var ErrUnavailable = errors.New("durable backend unavailable")

// ErrSerialization is returned when a cache value cannot be encoded or decoded.
var ErrSerialization = errors.New("cache value serialization failed")

// ErrInvalidPattern is returned for a malformed key pattern. Unlike backend
// failures, this is a caller bug and is surfaced rather than degraded.
var ErrInvalidPattern = errors.New("invalid key pattern")
