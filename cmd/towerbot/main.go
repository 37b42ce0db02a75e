// TowerBot - Discord bot for The Tower community servers.
// Manages tournament performance roles and name color roles.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/towerbot/internal/bot"
	"github.com/towerbot/internal/config"
	"github.com/towerbot/internal/logger"
	"github.com/towerbot/pkg/healthcheck"
)

func main() {
	// Health check flag for Docker
	healthFlag := flag.Bool("health", false, "Run health check and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if *healthFlag {
		if err := runHealthCheck(cfg.HealthAddr); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}

	log := logger.New(cfg.LogLevel)
	log.Info().Msg("starting TowerBot")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	discordBot, err := bot.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	healthServer := healthcheck.New(cfg.HealthAddr, healthcheck.WithReadiness(discordBot.Ready))
	go func() {
		if err := healthServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	if err := discordBot.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start bot")
	}

	log.Info().Msg("TowerBot running")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthServer.Stop(ctx)
	if err := discordBot.Stop(); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	log.Info().Msg("stopped")
}

// runHealthCheck probes the local health endpoint, for use as a Docker
// HEALTHCHECK command.
func runHealthCheck(addr string) error {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://localhost%s/health", addr))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: %d", resp.StatusCode)
	}
	return nil
}
