package invalidation

import (
	"github.com/questline/gamecache/types"
)

// Resolution is the set of cache deletions an event resolves to.
type Resolution struct {
	// FlushAll wipes the entire cache; set for global-scope events, in which
	// case Keys and Patterns are empty.
	FlushAll bool

	// Keys are explicit cache keys to delete.
	Keys []string

	// Patterns are glob patterns to pattern-delete.
	Patterns []string
}

// Resolve computes the deletions for an event from its type, scope, and
// identifier. An empty identifier widens the event to all of its scope.
// Player and team changes additionally invalidate all leaderboards, since
// standings are computed from player and team state.
func Resolve(ev types.Event) (Resolution, error) {
	if err := ev.Validate(); err != nil {
		return Resolution{}, err
	}

	if ev.Scope == types.ScopeGlobal {
		return Resolution{FlushAll: true}, nil
	}

	var res Resolution
	namespace := scopeNamespace(ev.Scope)

	if ev.Identifier == "" {
		res.Patterns = append(res.Patterns, namespace+":*")
	} else {
		base := namespace + ":" + ev.Identifier
		res.Keys = append(res.Keys, base)
		res.Patterns = append(res.Patterns, base+":*")
	}

	if affectsLeaderboards(ev) {
		res.Patterns = append(res.Patterns, NamespaceLeaderboard+":*")
	}
	return res, nil
}

func scopeNamespace(scope types.Scope) string {
	switch scope {
	case types.ScopePlayer:
		return NamespacePlayer
	case types.ScopeTeam:
		return NamespaceTeam
	case types.ScopeLeaderboard:
		return NamespaceLeaderboard
	case types.ScopeConfig:
		return NamespaceConfig
	}
	return ""
}

// affectsLeaderboards reports whether the event invalidates leaderboards
// beyond its own scope.
func affectsLeaderboards(ev types.Event) bool {
	if ev.Scope == types.ScopeLeaderboard {
		return false
	}
	return ev.Type == types.EventPlayerUpdate || ev.Type == types.EventTeamChange
}
