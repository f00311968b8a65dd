package invalidation

import (
	"testing"

	"github.com/questline/gamecache/types"
)

func TestResolveGlobalFlushesAll(t *testing.T) {
	res, err := Resolve(types.NewEvent(types.EventManual, types.ScopeGlobal, "ignored"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.FlushAll {
		t.Fatal("Global scope should flush everything")
	}
	if len(res.Keys) != 0 || len(res.Patterns) != 0 {
		t.Fatalf("Global resolution should carry no keys or patterns: %+v", res)
	}
}

func TestResolvePlayerWithIdentifier(t *testing.T) {
	res, err := Resolve(types.NewEvent(types.EventPlayerUpdate, types.ScopePlayer, "P1"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(res.Keys) != 1 || res.Keys[0] != "player:P1" {
		t.Fatalf("Expected key player:P1, got %v", res.Keys)
	}
	if len(res.Patterns) != 2 {
		t.Fatalf("Expected namespace and leaderboard patterns, got %v", res.Patterns)
	}
	if res.Patterns[0] != "player:P1:*" {
		t.Fatalf("Expected pattern player:P1:*, got %q", res.Patterns[0])
	}
	if res.Patterns[1] != "leaderboard:*" {
		t.Fatalf("Player updates should spill into leaderboards, got %q", res.Patterns[1])
	}
}

func TestResolvePlayerWithoutIdentifier(t *testing.T) {
	res, err := Resolve(types.NewEvent(types.EventManual, types.ScopePlayer, ""))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(res.Keys) != 0 {
		t.Fatalf("Scope-wide event should carry no explicit keys: %v", res.Keys)
	}
	if len(res.Patterns) != 1 || res.Patterns[0] != "player:*" {
		t.Fatalf("Expected pattern player:*, got %v", res.Patterns)
	}
}

func TestResolveTeamChangeInvalidatesLeaderboards(t *testing.T) {
	res, err := Resolve(types.NewEvent(types.EventTeamChange, types.ScopeTeam, "T9"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := map[string]bool{"team:T9:*": true, "leaderboard:*": true}
	for _, p := range res.Patterns {
		delete(want, p)
	}
	if len(want) != 0 {
		t.Fatalf("Missing patterns %v in %v", want, res.Patterns)
	}
}

func TestResolveLeaderboardStaysInScope(t *testing.T) {
	res, err := Resolve(types.NewEvent(types.EventLeaderboardUpdate, types.ScopeLeaderboard, "weekly"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(res.Patterns) != 1 || res.Patterns[0] != "leaderboard:weekly:*" {
		t.Fatalf("Expected single pattern leaderboard:weekly:*, got %v", res.Patterns)
	}
}

func TestResolveConfig(t *testing.T) {
	res, err := Resolve(types.NewEvent(types.EventConfigChange, types.ScopeConfig, "branding"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(res.Keys) != 1 || res.Keys[0] != "config:branding" {
		t.Fatalf("Expected key config:branding, got %v", res.Keys)
	}
	if len(res.Patterns) != 1 || res.Patterns[0] != "config:branding:*" {
		t.Fatalf("Expected pattern config:branding:*, got %v", res.Patterns)
	}
}

func TestResolveRejectsUnknownScope(t *testing.T) {
	ev := types.NewEvent(types.EventManual, "universe", "")
	if _, err := Resolve(ev); err == nil {
		t.Fatal("Unknown scope should fail resolution")
	}
}

func TestKeyBuilders(t *testing.T) {
	if got := PlayerKey("P1", "profile"); got != "player:P1:profile" {
		t.Fatalf("Unexpected player key: %q", got)
	}
	if got := TeamKey("T2"); got != "team:T2" {
		t.Fatalf("Unexpected team key: %q", got)
	}
	if got := LeaderboardKey("weekly", "page", "1"); got != "leaderboard:weekly:page:1" {
		t.Fatalf("Unexpected leaderboard key: %q", got)
	}
	if got := ConfigKey("branding"); got != "config:branding" {
		t.Fatalf("Unexpected config key: %q", got)
	}
}
