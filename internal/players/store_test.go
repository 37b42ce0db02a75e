package players

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/towerbot/internal/config"
	"github.com/towerbot/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	redis := storage.NewRedisClient(&config.Config{}, zerolog.Nop())
	return NewStore(redis, "test:known_players", zerolog.Nop())
}

func TestGetReturnsCopy(t *testing.T) {
	store := newTestStore(t)
	store.Set("u1", &KnownPlayer{
		DiscordID: "u1",
		PrimaryID: "ID1",
		PlayerIDs: []string{"ID1"},
		Verified:  true,
	})

	p, ok := store.Get("u1")
	require.True(t, ok)

	p.Verified = false
	p.Sus = true
	p.PlayerIDs = append(p.PlayerIDs, "ID2")

	again, ok := store.Get("u1")
	require.True(t, ok)
	assert.True(t, again.Verified, "mutating a returned copy must not touch the store")
	assert.False(t, again.Sus)
	assert.Equal(t, []string{"ID1"}, again.PlayerIDs)
}

func TestSetDetachesCallerPointer(t *testing.T) {
	store := newTestStore(t)

	player := &KnownPlayer{DiscordID: "u1", PlayerIDs: []string{"ID1"}}
	store.Set("u1", player)

	player.Sus = true
	player.PlayerIDs[0] = "tampered"

	got, ok := store.Get("u1")
	require.True(t, ok)
	assert.False(t, got.Sus)
	assert.Equal(t, "ID1", got.PlayerIDs[0])
}

func TestFlagSettersVisibleThroughGet(t *testing.T) {
	store := newTestStore(t)
	store.Set("u1", &KnownPlayer{DiscordID: "u1"})

	require.True(t, store.SetVerified("u1", true))
	got, _ := store.Get("u1")
	assert.True(t, got.Verified)
	assert.True(t, got.Eligible())

	require.True(t, store.SetSus("u1", true))
	got, _ = store.Get("u1")
	assert.True(t, got.Sus)
	assert.False(t, got.Eligible())

	assert.False(t, store.SetVerified("missing", true))
	assert.False(t, store.SetSus("missing", true))
}

func TestAllReturnsDetachedSnapshot(t *testing.T) {
	store := newTestStore(t)
	store.Set("u1", &KnownPlayer{DiscordID: "u1", Verified: true})
	store.Set("u2", &KnownPlayer{DiscordID: "u2"})

	snapshot := store.All()
	require.Len(t, snapshot, 2)

	// Mutations on the snapshot stay in the snapshot.
	snapshot["u1"].Verified = false
	got, _ := store.Get("u1")
	assert.True(t, got.Verified)

	// Store writes after the snapshot do not appear in it.
	store.SetSus("u2", true)
	assert.False(t, snapshot["u2"].Sus)
}

func TestConcurrentTogglesAndSnapshotReads(t *testing.T) {
	store := newTestStore(t)
	store.Set("u1", &KnownPlayer{DiscordID: "u1", PlayerIDs: []string{"ID1"}})

	const iterations = 200
	var wg sync.WaitGroup
	wg.Add(2)

	// Moderator side: flips flags and relinks IDs through the store.
	go func() {
		defer wg.Done()
		for n := 0; n < iterations; n++ {
			store.SetVerified("u1", n%2 == 0)
			store.SetSus("u1", n%3 == 0)
			if p, ok := store.Get("u1"); ok {
				p.PlayerIDs = append(p.PlayerIDs, "ID2")
				store.Set("u1", p)
			}
		}
	}()

	// Updater side: walks snapshots and reads eligibility.
	go func() {
		defer wg.Done()
		for n := 0; n < iterations; n++ {
			for _, p := range store.All() {
				_ = p.Eligible()
				_ = len(p.PlayerIDs)
			}
		}
	}()

	wg.Wait()

	got, ok := store.Get("u1")
	require.True(t, ok)
	assert.NotEmpty(t, got.PlayerIDs)
}
