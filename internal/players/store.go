// Package players maintains the known-players registry: which Discord
// users are linked to which in-game player IDs, and their moderation
// state.
package players

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/towerbot/internal/storage"
)

// KnownPlayer links a Discord user to their in-game identities.
type KnownPlayer struct {
	DiscordID string   `json:"discord_id"`
	Name      string   `json:"name"`
	PrimaryID string   `json:"primary_id"`
	PlayerIDs []string `json:"player_ids"`
	// Verified must be true before any managed tournament role is
	// assigned; an unverified user gets every managed role removed.
	Verified bool `json:"verified"`
	// Sus flags a player record under moderation review. Treated the
	// same as unverified by the role updater.
	Sus bool `json:"sus"`
}

// Eligible reports whether the player may hold managed tournament
// roles at all.
func (p *KnownPlayer) Eligible() bool {
	return p.Verified && !p.Sus
}

func (p *KnownPlayer) clone() *KnownPlayer {
	cp := *p
	cp.PlayerIDs = append([]string(nil), p.PlayerIDs...)
	return &cp
}

// Store manages known players persistence.
type Store struct {
	redis   *storage.RedisClient
	key     string
	log     zerolog.Logger
	players map[string]*KnownPlayer
	mu      sync.RWMutex
}

// NewStore creates a known-players store persisted under the given key.
func NewStore(redis *storage.RedisClient, key string, log zerolog.Logger) *Store {
	return &Store{
		redis:   redis,
		key:     key,
		log:     log,
		players: make(map[string]*KnownPlayer),
	}
}

// Load loads known players from Redis.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.redis.Get(s.key)
	if err != nil {
		return err
	}
	if data == "" {
		s.players = make(map[string]*KnownPlayer)
		return nil
	}

	var players map[string]*KnownPlayer
	if err := json.Unmarshal([]byte(data), &players); err != nil {
		return err
	}

	s.players = players
	s.log.Info().Int("count", len(s.players)).Msg("loaded known players")
	return nil
}

// Save persists known players to Redis.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.Marshal(s.players)
	s.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal known players: %w", err)
	}
	return s.redis.Set(s.key, string(data))
}

// Get returns a copy of a known player by Discord ID. Mutations only
// take effect through Set or the flag setters, so handler goroutines
// never share a player struct with the updater.
func (s *Store) Get(discordID string) (*KnownPlayer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[discordID]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// Set adds or updates a known player. The store keeps its own copy.
func (s *Store) Set(discordID string, player *KnownPlayer) {
	s.mu.Lock()
	s.players[discordID] = player.clone()
	s.mu.Unlock()
}

// Delete removes a known player.
func (s *Store) Delete(discordID string) {
	s.mu.Lock()
	delete(s.players, discordID)
	s.mu.Unlock()
}

// All returns a snapshot of the registry: copied entries, detached
// from later store writes.
func (s *Store) All() map[string]*KnownPlayer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*KnownPlayer, len(s.players))
	for k, v := range s.players {
		result[k] = v.clone()
	}
	return result
}

// Count returns the number of known players.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// SetVerified updates a player's verification flag.
func (s *Store) SetVerified(discordID string, verified bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[discordID]
	if !ok {
		return false
	}
	p.Verified = verified
	return true
}

// SetSus updates a player's moderation flag.
func (s *Store) SetSus(discordID string, sus bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[discordID]
	if !ok {
		return false
	}
	p.Sus = sus
	return true
}
