// Package invalidation translates application-level change notifications
// into concrete cache deletions. Business logic publishes typed events; the
// bus resolves them to key patterns and drives the cache façade, so knowledge
// of the key-naming scheme never leaks out of this package.
package invalidation

import "strings"

// Namespace prefixes for cache keys. Every cached value lives under one of
// these, which is what makes scoped invalidation possible.
const (
	NamespacePlayer      = "player"
	NamespaceTeam        = "team"
	NamespaceLeaderboard = "leaderboard"
	NamespaceConfig      = "config"
)

func buildKey(namespace, id string, parts []string) string {
	elems := append([]string{namespace, id}, parts...)
	return strings.Join(elems, ":")
}

// PlayerKey builds a cache key under a player's namespace,
// e.g. PlayerKey("P1", "profile") -> "player:P1:profile".
func PlayerKey(playerID string, parts ...string) string {
	return buildKey(NamespacePlayer, playerID, parts)
}

// TeamKey builds a cache key under a team's namespace.
func TeamKey(teamID string, parts ...string) string {
	return buildKey(NamespaceTeam, teamID, parts)
}

// LeaderboardKey builds a cache key under a leaderboard's namespace.
func LeaderboardKey(boardID string, parts ...string) string {
	return buildKey(NamespaceLeaderboard, boardID, parts)
}

// ConfigKey builds a cache key under a config entry's namespace.
func ConfigKey(configID string, parts ...string) string {
	return buildKey(NamespaceConfig, configID, parts)
}
