// Package roles implements the tournament role qualification engine.
//
// The resolver is a pure function over a player's aggregated tournament
// snapshot, the guild's configured role rules and the league hierarchy.
// It performs no I/O and reads no ambient state, so it can be invoked
// concurrently from any number of caller tasks.
package roles

import (
	"fmt"
	"math"
	"time"
)

// NoPosition marks a league where the player has never placed.
// It never satisfies a Placement threshold.
const NoPosition = math.MaxInt

// Method selects how a rule qualifies a player for its role.
type Method string

const (
	// MethodChampion assigns based on the player's globally latest
	// tournament being a top-league placement within the threshold.
	MethodChampion Method = "Champion"
	// MethodPlacement assigns based on best placement in a league.
	MethodPlacement Method = "Placement"
	// MethodWave assigns based on best wave count in a league.
	MethodWave Method = "Wave"
)

// LeagueStats is a player's aggregate for a single league, merged
// across all of their linked player IDs.
type LeagueStats struct {
	BestWave           int       `json:"best_wave"`
	BestPosition       int       `json:"best_position"`
	PositionAtBestWave int       `json:"position_at_best_wave"`
	TotalTournaments   int       `json:"total_tournaments"`
	AvgWave            float64   `json:"avg_wave"`
	AvgPosition        float64   `json:"avg_position"`
	LatestWave         int       `json:"latest_wave"`
	LatestPosition     int       `json:"latest_position"`
	LatestDate         time.Time `json:"latest_date"`
}

// LatestTournament is the single most recent tournament across all
// leagues, by date. A zero Placement means the player has none.
type LatestTournament struct {
	League    string    `json:"league"`
	Placement int       `json:"placement"`
	Wave      int       `json:"wave"`
	Date      time.Time `json:"date"`
}

// PatchStats aggregates the player's results in the most recent
// game-balance period across all leagues. MaxWave is patch-scoped;
// BestPlacement carries the all-time best position, because the
// results source publishes a patch-scoped wave column but no
// patch-scoped placement.
type PatchStats struct {
	BestPlacement int `json:"best_placement"` // 0 when the player never placed
	MaxWave       int `json:"max_wave"`
}

// Snapshot is the per-user input to the resolver. It is built fresh
// for every resolution and never persisted by the engine.
type Snapshot struct {
	Leagues          map[string]LeagueStats `json:"leagues"`
	LatestTournament LatestTournament       `json:"latest_tournament"`
	LatestPatch      PatchStats             `json:"latest_patch"`
	TotalTournaments int                    `json:"total_tournaments"`
}

// Rule is one operator-configured tournament role.
type Rule struct {
	Name      string `json:"name"`
	RoleID    string `json:"role_id"`
	Method    Method `json:"method"`
	Threshold int    `json:"threshold"`
	// League is required for the Wave method. Empty on a Placement
	// rule means the rule binds to the top league of the hierarchy.
	League string `json:"league,omitempty"`
}

// Validate checks a rule at configuration-load time so malformed
// configuration fails at the boundary instead of being silently
// skipped during resolution.
func (r Rule) Validate(hierarchy Hierarchy) error {
	switch r.Method {
	case MethodChampion, MethodPlacement, MethodWave:
	default:
		return fmt.Errorf("rule %q: unknown method %q", r.Name, r.Method)
	}
	if r.RoleID == "" {
		return fmt.Errorf("rule %q: missing role id", r.Name)
	}
	if r.Threshold <= 0 {
		return fmt.Errorf("rule %q: threshold must be positive, got %d", r.Name, r.Threshold)
	}
	if r.Method == MethodWave {
		if r.League == "" {
			return fmt.Errorf("rule %q: wave rules require a league", r.Name)
		}
		if !hierarchy.Contains(r.League) {
			return fmt.Errorf("rule %q: league %q is not in the hierarchy", r.Name, r.League)
		}
	}
	if r.League != "" && !hierarchy.Contains(r.League) {
		return fmt.Errorf("rule %q: league %q is not in the hierarchy", r.Name, r.League)
	}
	return nil
}

// Hierarchy is the operator-defined league ordering, highest first.
type Hierarchy []string

// DefaultHierarchy returns the stock league ordering for The Tower.
func DefaultHierarchy() Hierarchy {
	return Hierarchy{"Legend", "Champion", "Platinum", "Gold", "Silver", "Copper"}
}

// Top returns the highest-precedence league, or "" for an empty hierarchy.
func (h Hierarchy) Top() string {
	if len(h) == 0 {
		return ""
	}
	return h[0]
}

// Contains reports whether the hierarchy includes the given league.
func (h Hierarchy) Contains(league string) bool {
	for _, l := range h {
		if l == league {
			return true
		}
	}
	return false
}

// ManagedRoleIDs returns the set of role IDs the rule set manages.
func ManagedRoleIDs(rules []Rule) map[string]struct{} {
	ids := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if r.RoleID != "" {
			ids[r.RoleID] = struct{}{}
		}
	}
	return ids
}
