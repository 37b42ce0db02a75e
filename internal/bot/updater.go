package bot

import (
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/towerbot/internal/embeds"
	"github.com/towerbot/internal/players"
	"github.com/towerbot/internal/roles"
	"github.com/towerbot/internal/stats"
	"github.com/towerbot/internal/storage"
)

// updateCheckInterval is how often the scheduler wakes up to check
// whether any guild is due for a full update.
const updateCheckInterval = time.Minute

var errUpdateRunning = errors.New("a role update is already running")

// runPeriodicUpdates drives scheduled full role updates until Stop.
func (b *Bot) runPeriodicUpdates() {
	ticker := time.NewTicker(updateCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopUpdates:
			return
		case <-ticker.C:
			b.checkScheduledUpdates()
		}
	}
}

func (b *Bot) checkScheduledUpdates() {
	for _, guild := range b.session.State.Guilds {
		settings := b.settings.Get(guild.ID)
		if settings.Paused || len(settings.RoleRules) == 0 {
			continue
		}

		b.updateMu.Lock()
		last, ran := b.lastFullUpdate[guild.ID]
		b.updateMu.Unlock()

		due := false
		switch {
		case !ran:
			due = settings.UpdateOnStartup
		case time.Since(last) >= settings.UpdateInterval:
			due = true
		}
		if !due {
			continue
		}

		if _, err := b.updateAllRoles(guild.ID); err != nil && !errors.Is(err, errUpdateRunning) {
			b.log.Error().Err(err).Str("guild_id", guild.ID).Msg("scheduled role update failed")
		}
	}
}

// updateAllRoles runs one full tournament-role pass over every known
// player in the guild and returns a summary embed. Only one update may
// run at a time across all guilds; the scraper and Discord API budget
// is shared.
func (b *Bot) updateAllRoles(guildID string) (*discordgo.MessageEmbed, error) {
	b.updateMu.Lock()
	if b.updating {
		b.updateMu.Unlock()
		return nil, errUpdateRunning
	}
	b.updating = true
	b.updateMu.Unlock()

	defer func() {
		b.updateMu.Lock()
		b.updating = false
		b.lastFullUpdate[guildID] = time.Now()
		b.updateMu.Unlock()
	}()

	settings := b.settings.Get(guildID)
	runID := uuid.NewString()
	start := time.Now()

	log := b.log.With().Str("run_id", runID).Str("guild_id", guildID).Logger()
	log.Info().Int("players", b.players.Count()).Bool("dry_run", settings.DryRun).Msg("starting role update")

	var processed, assigned, removed, noData int
	var batch int

	for discordID, player := range b.players.All() {
		if batch == settings.ProcessBatchSize {
			batch = 0
			select {
			case <-b.stopUpdates:
				log.Warn().Msg("role update interrupted by shutdown")
				return nil, errors.New("update interrupted")
			case <-time.After(settings.ProcessDelay):
			}
		}
		batch++

		add, rem, ok := b.updateMemberRoles(guildID, discordID, player, settings, log)
		if !ok {
			noData++
			continue
		}
		processed++
		assigned += add
		removed += rem
	}

	duration := time.Since(start)
	log.Info().
		Int("processed", processed).
		Int("assigned", assigned).
		Int("removed", removed).
		Int("no_data", noData).
		Dur("duration", duration).
		Msg("role update complete")

	summary := embeds.UpdateSummary(runID, processed, assigned, removed, noData, duration, settings.DryRun)
	if settings.LogChannelID != "" {
		if _, err := b.session.ChannelMessageSendEmbed(settings.LogChannelID, summary); err != nil {
			log.Error().Err(err).Str("channel_id", settings.LogChannelID).Msg("failed to post update summary")
		}
	}
	return summary, nil
}

// updateMemberRoles reconciles one member's tournament roles. Returns
// the number of roles added and removed, and false when the member or
// their stats could not be resolved.
func (b *Bot) updateMemberRoles(guildID, discordID string, player *players.KnownPlayer, settings *storage.GuildSettings, log zerolog.Logger) (added, removed int, ok bool) {
	member, err := b.session.State.Member(guildID, discordID)
	if err != nil {
		member, err = b.session.GuildMember(guildID, discordID)
		if err != nil {
			log.Debug().Str("discord_id", discordID).Msg("member not in guild, skipping")
			return 0, 0, false
		}
	}

	winner := ""
	if player.Eligible() {
		var records []stats.PlayerRecord
		for _, playerID := range player.PlayerIDs {
			playerStats, err := b.towerClient.GetPlayerStats(playerID)
			if err != nil {
				log.Warn().Err(err).Str("player_id", playerID).Msg("failed to fetch player stats")
				continue
			}
			records = append(records, stats.PlayerRecord{PlayerID: playerStats.PlayerID, Leagues: playerStats.Leagues})
		}
		if len(records) == 0 {
			return 0, 0, false
		}

		snapshot := stats.BuildSnapshot(records)
		if role, found := b.roleResolver.DetermineBestRole(snapshot, settings.RoleRules, settings.LeagueHierarchy); found {
			winner = role
		}
	}

	plan := roles.PlanReconciliation(member.Roles, settings.RoleRules, winner, player.Eligible())
	if plan.Empty() {
		return 0, 0, true
	}

	if settings.DryRun {
		log.Info().
			Str("discord_id", discordID).
			Strs("add", plan.Add).
			Strs("remove", plan.Remove).
			Msg("dry run, not applying role changes")
		return len(plan.Add), len(plan.Remove), true
	}

	for _, roleID := range plan.Remove {
		if err := b.session.GuildMemberRoleRemove(guildID, discordID, roleID); err != nil {
			log.Error().Err(err).Str("discord_id", discordID).Str("role_id", roleID).Msg("failed to remove role")
			continue
		}
		removed++
	}
	for _, roleID := range plan.Add {
		if err := b.session.GuildMemberRoleAdd(guildID, discordID, roleID); err != nil {
			log.Error().Err(err).Str("discord_id", discordID).Str("role_id", roleID).Msg("failed to add role")
			continue
		}
		added++
	}
	return added, removed, true
}
