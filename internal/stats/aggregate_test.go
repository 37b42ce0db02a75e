package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/towerbot/internal/roles"
)

func day(n int) time.Time {
	return time.Date(2026, time.August, n, 0, 0, 0, 0, time.UTC)
}

func TestBuildSnapshotMergesLinkedPlayers(t *testing.T) {
	records := []PlayerRecord{
		{
			PlayerID: "abc123",
			Leagues: []LeagueRecord{
				{
					League: "Champion", BestWave: 900, PositionAtBestWave: 40,
					BestPosition: 12, MaxWave: 900, TotalTournaments: 4,
					AvgWave: 700, AvgPosition: 30,
					LatestWave: 850, LatestPosition: 20, LatestDate: day(10),
				},
			},
		},
		{
			PlayerID: "def456",
			Leagues: []LeagueRecord{
				{
					League: "Champion", BestWave: 1100, PositionAtBestWave: 8,
					BestPosition: 25, MaxWave: 1100, TotalTournaments: 2,
					AvgWave: 1000, AvgPosition: 15,
					LatestWave: 1100, LatestPosition: 8, LatestDate: day(17),
				},
				{
					League: "Legend", BestWave: 600, PositionAtBestWave: 90,
					BestPosition: 80, MaxWave: 600, TotalTournaments: 1,
					AvgWave: 600, AvgPosition: 80,
					LatestWave: 600, LatestPosition: 80, LatestDate: day(3),
				},
			},
		},
	}

	snap := BuildSnapshot(records)

	require.Contains(t, snap.Leagues, "Champion")
	champ := snap.Leagues["Champion"]

	// Best wave and best position are kept independently.
	assert.Equal(t, 1100, champ.BestWave)
	assert.Equal(t, 8, champ.PositionAtBestWave)
	assert.Equal(t, 12, champ.BestPosition)
	assert.Equal(t, 6, champ.TotalTournaments)

	// Averages weight by tournament count: (700*4 + 1000*2) / 6.
	assert.InDelta(t, 800.0, champ.AvgWave, 0.001)
	assert.InDelta(t, 25.0, champ.AvgPosition, 0.001)

	// Latest tournament is the most recent by date across everything.
	assert.Equal(t, "Champion", snap.LatestTournament.League)
	assert.Equal(t, 8, snap.LatestTournament.Placement)
	assert.Equal(t, day(17), snap.LatestTournament.Date)

	assert.Equal(t, 12, snap.LatestPatch.BestPlacement)
	assert.Equal(t, 1100, snap.LatestPatch.MaxWave)
	assert.Equal(t, 7, snap.TotalTournaments)
}

func TestBuildSnapshotSkipsEmptyLeagues(t *testing.T) {
	records := []PlayerRecord{
		{
			PlayerID: "abc123",
			Leagues: []LeagueRecord{
				{League: "Gold", TotalTournaments: 0, BestWave: 500},
			},
		},
	}

	snap := BuildSnapshot(records)
	assert.Empty(t, snap.Leagues)
	assert.Zero(t, snap.TotalTournaments)
}

func TestBuildSnapshotNeverPlacedSentinel(t *testing.T) {
	records := []PlayerRecord{
		{
			PlayerID: "abc123",
			Leagues: []LeagueRecord{
				{
					League: "Silver", BestWave: 300, BestPosition: 0,
					MaxWave: 300, TotalTournaments: 2, AvgWave: 250,
					LatestWave: 300, LatestDate: day(5),
				},
			},
		},
	}

	snap := BuildSnapshot(records)
	require.Contains(t, snap.Leagues, "Silver")

	// No placement anywhere: the per-league sentinel survives and the
	// patch best placement stays at its zero "none" value.
	assert.Equal(t, roles.NoPosition, snap.Leagues["Silver"].BestPosition)
	assert.Zero(t, snap.LatestPatch.BestPlacement)
}

func TestBuildSnapshotEmptyInput(t *testing.T) {
	snap := BuildSnapshot(nil)
	assert.Empty(t, snap.Leagues)
	assert.Zero(t, snap.TotalTournaments)
	assert.Zero(t, snap.LatestTournament.Placement)
}
