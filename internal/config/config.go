// Package config provides configuration management for TowerBot.
package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application.
type Config struct {
	// Discord
	DiscordToken string

	// Tower results site
	TowerBaseURL string

	// Redis
	RedisURL              string
	RedisKeyKnownPlayers  string
	RedisKeyGuildSettings string
	RedisKeyStatsCache    string
	RedisKeyAdCooldown    string

	// Logging
	LogLevel string

	// Health check
	HealthAddr string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken: os.Getenv("DISCORD_TOKEN"),

		TowerBaseURL: getEnvOrDefault("TOWER_BASE_URL", "https://thetower.lol"),

		RedisURL:              os.Getenv("REDIS_URL"),
		RedisKeyKnownPlayers:  getEnvOrDefault("REDIS_KEY_KNOWN_PLAYERS", "towerbot:known_players"),
		RedisKeyGuildSettings: getEnvOrDefault("REDIS_KEY_GUILD_SETTINGS", "towerbot:guild_settings"),
		RedisKeyStatsCache:    getEnvOrDefault("REDIS_KEY_STATS_CACHE", "towerbot:stats"),
		RedisKeyAdCooldown:    getEnvOrDefault("REDIS_KEY_AD_COOLDOWN", "towerbot:ad_cooldown"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		HealthAddr: getEnvOrDefault("HEALTH_ADDR", ":8080"),
	}

	return cfg, nil
}

// Validate checks if all required configuration values are set.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is missing")
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
