// Package stats builds per-user tournament snapshots for the role
// resolver. A Discord user may link several in-game player IDs; the
// snapshot merges all of their league records into one aggregate.
package stats

import (
	"time"

	"github.com/towerbot/internal/roles"
)

// LeagueRecord is one player ID's aggregate for a single league, as
// reported by the results source.
type LeagueRecord struct {
	League             string    `json:"league"`
	BestWave           int       `json:"best_wave"`
	PositionAtBestWave int       `json:"position_at_best_wave"`
	BestPosition       int       `json:"best_position"` // 0 when the player never placed
	MaxWave            int       `json:"max_wave"`      // best wave in the current patch
	TotalTournaments   int       `json:"total_tournaments"`
	AvgWave            float64   `json:"avg_wave"`
	AvgPosition        float64   `json:"avg_position"`
	LatestWave         int       `json:"latest_wave"`
	LatestPosition     int       `json:"latest_position"`
	LatestDate         time.Time `json:"latest_date"`
}

// PlayerRecord holds all league records for one linked player ID.
type PlayerRecord struct {
	PlayerID string         `json:"player_id"`
	Leagues  []LeagueRecord `json:"leagues"`
}

// BuildSnapshot merges the league records of every linked player ID
// into a single resolver snapshot. Best wave and best position are
// kept independently per league, averages are weighted by tournament
// count, and the latest tournament is the most recent one by date
// across all leagues and player IDs.
func BuildSnapshot(records []PlayerRecord) roles.Snapshot {
	snap := roles.Snapshot{
		Leagues: make(map[string]roles.LeagueStats),
	}

	var latestDate time.Time
	patchBest := roles.NoPosition

	for _, record := range records {
		for _, rec := range record.Leagues {
			if rec.TotalTournaments == 0 {
				continue
			}

			agg, ok := snap.Leagues[rec.League]
			if !ok {
				agg = roles.LeagueStats{BestPosition: roles.NoPosition}
			}

			prev := agg.TotalTournaments
			agg.TotalTournaments += rec.TotalTournaments
			snap.TotalTournaments += rec.TotalTournaments

			if prev > 0 {
				total := float64(prev + rec.TotalTournaments)
				agg.AvgWave = (agg.AvgWave*float64(prev) + rec.AvgWave*float64(rec.TotalTournaments)) / total
				agg.AvgPosition = (agg.AvgPosition*float64(prev) + rec.AvgPosition*float64(rec.TotalTournaments)) / total
			} else {
				agg.AvgWave = rec.AvgWave
				agg.AvgPosition = rec.AvgPosition
			}

			if rec.BestWave > agg.BestWave {
				agg.BestWave = rec.BestWave
				agg.PositionAtBestWave = rec.PositionAtBestWave
			}
			if rec.BestPosition > 0 && rec.BestPosition < agg.BestPosition {
				agg.BestPosition = rec.BestPosition
			}

			// The results table has no patch-scoped placement column,
			// so the all-time best position stands in here. MaxWave
			// below is genuinely patch-scoped.
			if rec.BestPosition > 0 && rec.BestPosition < patchBest {
				patchBest = rec.BestPosition
			}
			if rec.MaxWave > snap.LatestPatch.MaxWave {
				snap.LatestPatch.MaxWave = rec.MaxWave
			}

			if !rec.LatestDate.IsZero() && rec.LatestDate.After(latestDate) {
				latestDate = rec.LatestDate
				snap.LatestTournament = roles.LatestTournament{
					League:    rec.League,
					Wave:      rec.LatestWave,
					Placement: rec.LatestPosition,
					Date:      rec.LatestDate,
				}
			}

			if rec.LatestDate.After(agg.LatestDate) {
				agg.LatestDate = rec.LatestDate
				agg.LatestWave = rec.LatestWave
				agg.LatestPosition = rec.LatestPosition
			}

			snap.Leagues[rec.League] = agg
		}
	}

	if patchBest != roles.NoPosition {
		snap.LatestPatch.BestPlacement = patchBest
	}
	return snap
}
