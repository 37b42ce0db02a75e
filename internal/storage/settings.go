package storage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/towerbot/internal/colors"
	"github.com/towerbot/internal/roles"
)

// GuildSettings is the operator-authored configuration for one guild.
// It is persisted as a JSON blob and read fresh by callers on each
// resolution pass; the engines themselves never touch it.
type GuildSettings struct {
	LeagueHierarchy roles.Hierarchy `json:"league_hierarchy"`
	RoleRules       []roles.Rule    `json:"role_rules"`
	ColorConfig     colors.Config   `json:"color_categories"`

	UpdateInterval   time.Duration `json:"update_interval"`
	ProcessBatchSize int           `json:"process_batch_size"`
	ProcessDelay     time.Duration `json:"process_delay"`
	AdCooldown       time.Duration `json:"ad_cooldown"`

	DryRun          bool   `json:"dry_run"`
	Paused          bool   `json:"paused"`
	UpdateOnStartup bool   `json:"update_on_startup"`
	LogChannelID    string `json:"log_channel_id,omitempty"`
}

// DefaultSettings returns the stock configuration for a new guild.
func DefaultSettings() *GuildSettings {
	return &GuildSettings{
		LeagueHierarchy:  roles.DefaultHierarchy(),
		UpdateInterval:   6 * time.Hour,
		ProcessBatchSize: 50,
		ProcessDelay:     5 * time.Second,
		AdCooldown:       24 * time.Hour,
		UpdateOnStartup:  true,
	}
}

// Clone returns a deep copy. The store hands out clones so a handler
// mutating its settings never shares a backing array with the updater
// goroutine iterating the rules mid-run.
func (g *GuildSettings) Clone() *GuildSettings {
	out := *g
	out.LeagueHierarchy = append(roles.Hierarchy(nil), g.LeagueHierarchy...)
	out.RoleRules = append([]roles.Rule(nil), g.RoleRules...)
	out.ColorConfig = g.ColorConfig.Clone()
	return &out
}

// GuildSettingsStore caches per-guild settings backed by Redis.
type GuildSettingsStore struct {
	redis     *RedisClient
	keyPrefix string
	log       zerolog.Logger
	mu        sync.RWMutex
	cache     map[string]*GuildSettings
}

// NewGuildSettingsStore creates a settings store with the given key
// prefix (one Redis key per guild).
func NewGuildSettingsStore(redis *RedisClient, keyPrefix string, log zerolog.Logger) *GuildSettingsStore {
	return &GuildSettingsStore{
		redis:     redis,
		keyPrefix: keyPrefix,
		log:       log,
		cache:     make(map[string]*GuildSettings),
	}
}

func (s *GuildSettingsStore) key(guildID string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, guildID)
}

// Get returns a deep copy of the settings for a guild, loading from
// Redis on first access and falling back to defaults when nothing is
// stored. Rules are validated at this boundary: malformed ones are
// dropped with a warning so resolution never sees them. Callers own
// the returned value; changes only take effect through Save.
func (s *GuildSettingsStore) Get(guildID string) *GuildSettings {
	s.mu.RLock()
	if settings, ok := s.cache[guildID]; ok {
		s.mu.RUnlock()
		return settings.Clone()
	}
	s.mu.RUnlock()

	settings := s.load(guildID)

	s.mu.Lock()
	s.cache[guildID] = settings
	s.mu.Unlock()
	return settings.Clone()
}

func (s *GuildSettingsStore) load(guildID string) *GuildSettings {
	data, err := s.redis.Get(s.key(guildID))
	if err != nil {
		s.log.Error().Err(err).Str("guild_id", guildID).Msg("failed to load guild settings")
		return DefaultSettings()
	}
	if data == "" {
		return DefaultSettings()
	}

	settings := DefaultSettings()
	if err := json.Unmarshal([]byte(data), settings); err != nil {
		s.log.Error().Err(err).Str("guild_id", guildID).Msg("corrupt guild settings, using defaults")
		return DefaultSettings()
	}
	if len(settings.LeagueHierarchy) == 0 {
		settings.LeagueHierarchy = roles.DefaultHierarchy()
	}
	settings.RoleRules = SanitizeRules(settings.RoleRules, settings.LeagueHierarchy, s.log)
	return settings
}

// Save persists a guild's settings and refreshes the cache. The cache
// keeps its own clone, so the caller may go on mutating their copy
// without it bleeding into later Gets.
func (s *GuildSettingsStore) Save(guildID string, settings *GuildSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal guild settings: %w", err)
	}
	if err := s.redis.Set(s.key(guildID), string(data)); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[guildID] = settings.Clone()
	s.mu.Unlock()
	return nil
}

// SanitizeRules drops rules that fail validation, logging each one.
// Duplicate Champion rules survive with a warning; the resolver copes.
func SanitizeRules(rules []roles.Rule, hierarchy roles.Hierarchy, log zerolog.Logger) []roles.Rule {
	valid := rules[:0]
	champions := 0
	for _, rule := range rules {
		if err := rule.Validate(hierarchy); err != nil {
			log.Warn().Err(err).Str("rule", rule.Name).Msg("dropping invalid role rule")
			continue
		}
		if rule.Method == roles.MethodChampion {
			champions++
		}
		valid = append(valid, rule)
	}
	if champions > 1 {
		log.Warn().Int("count", champions).Msg("multiple Champion rules configured, only one should exist")
	}
	return valid
}
