package gamecache

import (
	"github.com/questline/gamecache/cache"
	"github.com/questline/gamecache/invalidation"
	"github.com/questline/gamecache/types"
)

// Cache is an alias for cache.Cache, the façade interface consumers use.
type Cache = cache.Cache

// Logger is an alias for cache.Logger.
type Logger = cache.Logger

// Marshaller is an alias for cache.Marshaller.
type Marshaller = cache.Marshaller

// FallbackStore is an alias for cache.FallbackStore.
type FallbackStore = cache.FallbackStore

// FallbackFactory is an alias for cache.FallbackFactory.
type FallbackFactory = cache.FallbackFactory

// Entry is an alias for cache.Entry.
type Entry = cache.Entry

// SetResult is an alias for cache.SetResult.
type SetResult = cache.SetResult

// Health is an alias for cache.Health.
type Health = cache.Health

// MetricsSnapshot is an alias for cache.MetricsSnapshot.
type MetricsSnapshot = cache.MetricsSnapshot

// Collector is an alias for cache.Collector.
type Collector = cache.Collector

// Bus is an alias for invalidation.Bus.
type Bus = invalidation.Bus

// Event is an alias for types.Event.
type Event = types.Event

// EventType is an alias for types.EventType.
type EventType = types.EventType

// Scope is an alias for types.Scope.
type Scope = types.Scope

// NewEvent creates an invalidation event with the current timestamp.
func NewEvent(t EventType, scope Scope, identifier string) Event {
	return types.NewEvent(t, scope, identifier)
}
