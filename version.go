// Package gamecache is the durable/fallback cache subsystem of the
// gamification dashboard: a Redis-backed cache with an in-process fallback
// tier and scoped invalidation of player, team, leaderboard, and config data.
package gamecache

// Version is the current version of the gamecache library.
const Version = "v1.1.0"

// VersionInfo provides version information.
type VersionInfo struct {
	Version   string
	GoVersion string
}

// GetVersionInfo returns the current version information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version: Version,
	}
}
