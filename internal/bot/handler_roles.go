package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/towerbot/internal/embeds"
	"github.com/towerbot/internal/roles"
	"github.com/towerbot/internal/storage"
)

// handleTourneyRoles routes the /tourneyroles subcommands.
func (b *Bot) handleTourneyRoles(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	if i.GuildID == "" {
		respondEmbed(s, i, embeds.Error("This command only works inside a server.", ""))
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "list":
		b.rolesList(s, i)
	case "add":
		b.rolesAdd(s, i, opts)
	case "remove":
		b.rolesRemove(s, i, opts)
	case "hierarchy":
		b.rolesHierarchy(s, i, opts)
	case "update":
		b.rolesUpdate(s, i)
	case "pause":
		b.rolesToggle(s, i, "pause")
	case "dryrun":
		b.rolesToggle(s, i, "dryrun")
	}
}

func (b *Bot) rolesList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	settings := b.settings.Get(i.GuildID)
	if len(settings.RoleRules) == 0 {
		respondEmbed(s, i, embeds.Info("No tournament roles configured. Use `/tourneyroles add` to create one.", ""))
		return
	}
	respondEmbed(s, i, embeds.RoleRules(settings.RoleRules, settings.LeagueHierarchy))
}

func (b *Bot) rolesAdd(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	settings := b.settings.Get(i.GuildID)

	role := opts["role"].RoleValue(s, i.GuildID)
	method := roles.Method(opts["method"].StringValue())
	threshold := int(opts["threshold"].IntValue())

	league := ""
	if opt, ok := opts["league"]; ok {
		league = strings.TrimSpace(opt.StringValue())
	}

	rule := roles.Rule{
		Name:      ruleName(method, threshold, league, settings.LeagueHierarchy),
		RoleID:    role.ID,
		Method:    method,
		Threshold: threshold,
		League:    league,
	}

	if err := rule.Validate(settings.LeagueHierarchy); err != nil {
		respondEmbed(s, i, embeds.Error(err.Error(), ""))
		return
	}

	for _, existing := range settings.RoleRules {
		if existing.Name == rule.Name {
			respondEmbed(s, i, embeds.Error(fmt.Sprintf("A rule named **%s** already exists. Remove it first.", rule.Name), ""))
			return
		}
	}

	settings.RoleRules = append(settings.RoleRules, rule)
	settings.RoleRules = storage.SanitizeRules(settings.RoleRules, settings.LeagueHierarchy, b.log)

	if err := b.settings.Save(i.GuildID, settings); err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("failed to save role rule")
		respondEmbed(s, i, embeds.Error("Failed to save the rule, try again later.", ""))
		return
	}

	b.log.Info().Str("guild_id", i.GuildID).Str("rule", rule.Name).Str("role_id", rule.RoleID).Msg("role rule added")
	respondEmbed(s, i, embeds.Success(fmt.Sprintf("Added rule **%s** for <@&%s>.", rule.Name, rule.RoleID), ""))
}

func (b *Bot) rolesRemove(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	settings := b.settings.Get(i.GuildID)
	name := strings.TrimSpace(opts["name"].StringValue())

	kept := settings.RoleRules[:0]
	removed := false
	for _, rule := range settings.RoleRules {
		if strings.EqualFold(rule.Name, name) {
			removed = true
			continue
		}
		kept = append(kept, rule)
	}

	if !removed {
		respondEmbed(s, i, embeds.Error(fmt.Sprintf("No rule named **%s**. Use `/tourneyroles list` to see configured rules.", name), ""))
		return
	}

	settings.RoleRules = kept
	if err := b.settings.Save(i.GuildID, settings); err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("failed to save role rules")
		respondEmbed(s, i, embeds.Error("Failed to save, try again later.", ""))
		return
	}

	b.log.Info().Str("guild_id", i.GuildID).Str("rule", name).Msg("role rule removed")
	respondEmbed(s, i, embeds.Success(fmt.Sprintf("Removed rule **%s**. The role itself was not deleted.", name), ""))
}

func (b *Bot) rolesHierarchy(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	settings := b.settings.Get(i.GuildID)

	opt, ok := opts["leagues"]
	if !ok {
		respondEmbed(s, i, embeds.Info(
			fmt.Sprintf("Current hierarchy (highest first):\n```%s```", strings.Join(settings.LeagueHierarchy, " → ")),
			"League Hierarchy"))
		return
	}

	var hierarchy roles.Hierarchy
	for _, part := range strings.Split(opt.StringValue(), ",") {
		if league := strings.TrimSpace(part); league != "" {
			hierarchy = append(hierarchy, league)
		}
	}
	if len(hierarchy) == 0 {
		respondEmbed(s, i, embeds.Error("The hierarchy needs at least one league.", ""))
		return
	}

	// Rules referencing leagues that no longer exist get dropped here,
	// so warn the operator about what survived.
	before := len(settings.RoleRules)
	settings.LeagueHierarchy = hierarchy
	settings.RoleRules = storage.SanitizeRules(settings.RoleRules, hierarchy, b.log)

	if err := b.settings.Save(i.GuildID, settings); err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("failed to save hierarchy")
		respondEmbed(s, i, embeds.Error("Failed to save, try again later.", ""))
		return
	}

	msg := fmt.Sprintf("Hierarchy set to:\n```%s```", strings.Join(hierarchy, " → "))
	if dropped := before - len(settings.RoleRules); dropped > 0 {
		msg += fmt.Sprintf("\n⚠️ %d rule(s) referenced leagues outside the new hierarchy and were removed.", dropped)
	}
	respondEmbed(s, i, embeds.Success(msg, "League Hierarchy"))
}

func (b *Bot) rolesUpdate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	settings := b.settings.Get(i.GuildID)
	if len(settings.RoleRules) == 0 {
		respondEmbed(s, i, embeds.Error("No tournament roles configured, nothing to update.", ""))
		return
	}

	b.updateMu.Lock()
	if b.updating {
		b.updateMu.Unlock()
		respondEmbed(s, i, embeds.Warning("An update is already running, try again when it finishes.", ""))
		return
	}
	b.updateMu.Unlock()

	respondEmbed(s, i, embeds.Info(fmt.Sprintf("Starting role update for %d known players…", b.players.Count()), "Update Started"))

	go func() {
		summary, err := b.updateAllRoles(i.GuildID)
		if err != nil {
			b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("manual role update failed")
			return
		}
		// Follow up in the channel the command came from.
		s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{summary},
		})
	}()
}

func (b *Bot) rolesToggle(s *discordgo.Session, i *discordgo.InteractionCreate, flag string) {
	settings := b.settings.Get(i.GuildID)

	var name string
	var state bool
	switch flag {
	case "dryrun":
		settings.DryRun = !settings.DryRun
		name, state = "Dry run", settings.DryRun
	case "pause":
		settings.Paused = !settings.Paused
		name, state = "Scheduled updates paused", settings.Paused
	}

	if err := b.settings.Save(i.GuildID, settings); err != nil {
		b.log.Error().Err(err).Str("guild_id", i.GuildID).Msg("failed to save settings")
		respondEmbed(s, i, embeds.Error("Failed to save, try again later.", ""))
		return
	}

	word := "off"
	if state {
		word = "on"
	}
	respondEmbed(s, i, embeds.Success(fmt.Sprintf("**%s** is now **%s**.", name, word), ""))
}

// ruleName derives a stable display name for a rule, used as the
// removal handle.
func ruleName(method roles.Method, threshold int, league string, hierarchy roles.Hierarchy) string {
	switch method {
	case roles.MethodChampion:
		return "Champion"
	case roles.MethodPlacement:
		if league == "" || league == hierarchy.Top() {
			return fmt.Sprintf("Top%d", threshold)
		}
		return fmt.Sprintf("%s Top%d", league, threshold)
	case roles.MethodWave:
		return fmt.Sprintf("%s %d", league, threshold)
	}
	return string(method)
}

// optionMap indexes subcommand options by name.
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
