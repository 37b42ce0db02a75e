package roles

import (
	"sort"

	"github.com/rs/zerolog"
)

// Resolver evaluates role rules against player snapshots. It holds
// only a logger; all configuration arrives per call.
type Resolver struct {
	log zerolog.Logger
}

// NewResolver creates a resolver that reports configuration anomalies
// on the given logger.
func NewResolver(log zerolog.Logger) *Resolver {
	return &Resolver{log: log}
}

// DetermineBestRole returns the single best-fitting tournament role for
// the player, or false when no rule matches.
//
// Methods are evaluated in strict priority order - Champion, then
// Placement, then Wave - and the first method that produces a match
// wins outright. There is no fallthrough and no combining of matches
// across methods.
func (r *Resolver) DetermineBestRole(snap Snapshot, rules []Rule, hierarchy Hierarchy) (string, bool) {
	if len(rules) == 0 {
		return "", false
	}

	if id, ok := r.resolveChampion(snap, rules, hierarchy); ok {
		return id, true
	}
	if id, ok := r.resolvePlacement(snap, rules, hierarchy); ok {
		return id, true
	}
	if id, ok := r.resolveWave(snap, rules, hierarchy); ok {
		return id, true
	}
	return "", false
}

// resolveChampion checks Champion rules. The gate is the player's
// globally latest tournament (by date, across all leagues): it must be
// in the top league and carry a placement. Top-league performance from
// an older tournament never triggers this method.
func (r *Resolver) resolveChampion(snap Snapshot, rules []Rule, hierarchy Hierarchy) (string, bool) {
	var champion []Rule
	for _, rule := range rules {
		if rule.Method == MethodChampion {
			champion = append(champion, rule)
		}
	}
	if len(champion) == 0 {
		return "", false
	}
	if len(champion) > 1 {
		r.log.Warn().Int("count", len(champion)).
			Msg("multiple Champion rules configured, only one should exist")
	}

	latest := snap.LatestTournament
	if latest.Placement <= 0 || latest.League == "" {
		return "", false
	}
	if latest.League != hierarchy.Top() {
		return "", false
	}

	// Configured order, mirroring how operators entered the rules.
	for _, rule := range champion {
		if rule.Threshold <= 0 {
			r.log.Warn().Str("rule", rule.Name).Msg("skipping Champion rule with invalid threshold")
			continue
		}
		if latest.Placement <= rule.Threshold {
			return rule.RoleID, true
		}
	}
	return "", false
}

// resolvePlacement checks Placement rules league by league in
// hierarchy order. Within a league, thresholds sort ascending so the
// strictest qualifying rule (e.g. Top1 before Top10) wins; the first
// league that yields a match short-circuits all lower leagues.
func (r *Resolver) resolvePlacement(snap Snapshot, rules []Rule, hierarchy Hierarchy) (string, bool) {
	top := hierarchy.Top()

	byLeague := make(map[string][]Rule)
	for _, rule := range rules {
		if rule.Method != MethodPlacement {
			continue
		}
		league := rule.League
		if league == "" {
			// "Top N" rules without an explicit league bind to the
			// top league of the hierarchy.
			league = top
		}
		if league == "" {
			r.log.Warn().Str("rule", rule.Name).Msg("skipping Placement rule, no league and empty hierarchy")
			continue
		}
		byLeague[league] = append(byLeague[league], rule)
	}

	for _, league := range hierarchy {
		leagueRules, ok := byLeague[league]
		if !ok {
			continue
		}
		stats, ok := snap.Leagues[league]
		if !ok {
			continue
		}
		best := stats.BestPosition
		if best <= 0 || best == NoPosition {
			continue
		}

		sort.SliceStable(leagueRules, func(i, j int) bool {
			return leagueRules[i].Threshold < leagueRules[j].Threshold
		})
		for _, rule := range leagueRules {
			if best <= rule.Threshold {
				return rule.RoleID, true
			}
		}
	}
	return "", false
}

// resolveWave checks Wave rules league by league in hierarchy order.
// Thresholds sort descending so the highest wave bar the player clears
// wins. Comparison uses the league-specific best wave, not the global
// patch maximum.
func (r *Resolver) resolveWave(snap Snapshot, rules []Rule, hierarchy Hierarchy) (string, bool) {
	byLeague := make(map[string][]Rule)
	for _, rule := range rules {
		if rule.Method != MethodWave {
			continue
		}
		if rule.League == "" {
			r.log.Warn().Str("rule", rule.Name).Msg("skipping Wave rule without a league")
			continue
		}
		byLeague[rule.League] = append(byLeague[rule.League], rule)
	}

	for _, league := range hierarchy {
		leagueRules, ok := byLeague[league]
		if !ok {
			continue
		}

		sort.SliceStable(leagueRules, func(i, j int) bool {
			return leagueRules[i].Threshold > leagueRules[j].Threshold
		})
		bestWave := snap.Leagues[league].BestWave
		for _, rule := range leagueRules {
			if bestWave >= rule.Threshold {
				return rule.RoleID, true
			}
		}
	}
	return "", false
}
