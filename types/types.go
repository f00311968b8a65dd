package types

import (
	"fmt"
	"time"
)

// EventType classifies the upstream change that triggered an invalidation.
type EventType string

// Event types published by the dashboard when gamification state changes.
const (
	EventPlayerUpdate      EventType = "player_update"
	EventTeamChange        EventType = "team_change"
	EventLeaderboardUpdate EventType = "leaderboard_update"
	EventConfigChange      EventType = "config_change"
	EventManual            EventType = "manual"
)

// Scope is the blast radius of an invalidation event.
type Scope string

// Scopes an event can target. ScopeGlobal ignores the identifier and makes
// every cached key eligible for deletion.
const (
	ScopeGlobal      Scope = "global"
	ScopePlayer      Scope = "player"
	ScopeTeam        Scope = "team"
	ScopeLeaderboard Scope = "leaderboard"
	ScopeConfig      Scope = "config"
)

// Event is an application-level change notification consumed by the
// invalidation bus. Events are ephemeral: created by a publisher, consumed
// once, never persisted.
type Event struct {
	Type       EventType         `json:"type"`
	Scope      Scope             `json:"scope"`
	Identifier string            `json:"identifier,omitempty"` // empty means "all of scope"
	Metadata   map[string]string `json:"metadata,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, scope Scope, identifier string) Event {
	return Event{
		Type:       t,
		Scope:      scope,
		Identifier: identifier,
		Timestamp:  time.Now(),
	}
}

// Validate checks that the event carries a known type and scope.
func (e Event) Validate() error {
	switch e.Type {
	case EventPlayerUpdate, EventTeamChange, EventLeaderboardUpdate, EventConfigChange, EventManual:
	default:
		return fmt.Errorf("unknown invalidation event type %q", e.Type)
	}
	switch e.Scope {
	case ScopeGlobal, ScopePlayer, ScopeTeam, ScopeLeaderboard, ScopeConfig:
	default:
		return fmt.Errorf("unknown invalidation scope %q", e.Scope)
	}
	return nil
}

// String renders the event for log lines.
func (e Event) String() string {
	if e.Identifier == "" {
		return fmt.Sprintf("%s/%s", e.Type, e.Scope)
	}
	return fmt.Sprintf("%s/%s:%s", e.Type, e.Scope, e.Identifier)
}
