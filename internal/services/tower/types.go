package tower

import "github.com/towerbot/internal/stats"

// PlayerStats is the scraped per-player payload: one aggregate row per
// league the player has entered.
type PlayerStats struct {
	PlayerID string               `json:"player_id"`
	Leagues  []stats.LeagueRecord `json:"leagues"`
}
