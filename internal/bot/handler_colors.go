package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/towerbot/internal/embeds"
)

// handleColor routes the /color subcommands. Color roles are
// self-service: any member may pick one they qualify for.
func (b *Bot) handleColor(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	if i.GuildID == "" || i.Member == nil {
		respondEmbed(s, i, embeds.Error("This command only works inside a server.", ""))
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "pick":
		b.colorPick(s, i, opts)
	case "clear":
		b.colorClear(s, i)
	case "list":
		b.colorList(s, i)
	}
}

func (b *Bot) colorPick(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	cfg := b.settings.Get(i.GuildID).ColorConfig
	role := opts["role"].RoleValue(s, i.GuildID)

	if _, ok := cfg.Find(role.ID); !ok {
		respondEmbed(s, i, embeds.Error(fmt.Sprintf("<@&%s> is not a configured color role. Use `/color list` to see your options.", role.ID), ""))
		return
	}

	userRoles := make(map[string]struct{}, len(i.Member.Roles))
	for _, id := range i.Member.Roles {
		userRoles[id] = struct{}{}
	}

	if !b.colorResolver.UserQualifies(userRoles, role.ID, cfg) {
		respondEmbed(s, i, embeds.Error(fmt.Sprintf("You do not qualify for <@&%s> yet.", role.ID), ""))
		return
	}

	current, hasCurrent := cfg.CurrentColorRole(i.Member.Roles)
	if hasCurrent && current == role.ID {
		respondEmbed(s, i, embeds.Info(fmt.Sprintf("You already have <@&%s>.", role.ID), ""))
		return
	}

	// One color role at a time: swap out the old one first.
	if hasCurrent {
		if err := s.GuildMemberRoleRemove(i.GuildID, i.Member.User.ID, current); err != nil {
			b.log.Error().Err(err).Str("user_id", i.Member.User.ID).Str("role_id", current).Msg("failed to remove color role")
			respondEmbed(s, i, embeds.Error("Could not swap your color role, check the bot's permissions.", ""))
			return
		}
	}

	if err := s.GuildMemberRoleAdd(i.GuildID, i.Member.User.ID, role.ID); err != nil {
		b.log.Error().Err(err).Str("user_id", i.Member.User.ID).Str("role_id", role.ID).Msg("failed to add color role")
		respondEmbed(s, i, embeds.Error("Could not assign the role, check the bot's permissions.", ""))
		return
	}

	b.log.Info().Str("user_id", i.Member.User.ID).Str("role_id", role.ID).Msg("color role picked")
	respondEmbed(s, i, embeds.Success(fmt.Sprintf("You now have <@&%s>.", role.ID), "🎨 Color Updated"))
}

func (b *Bot) colorClear(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg := b.settings.Get(i.GuildID).ColorConfig

	current, ok := cfg.CurrentColorRole(i.Member.Roles)
	if !ok {
		respondEmbed(s, i, embeds.Info("You have no color role to remove.", ""))
		return
	}

	if err := s.GuildMemberRoleRemove(i.GuildID, i.Member.User.ID, current); err != nil {
		b.log.Error().Err(err).Str("user_id", i.Member.User.ID).Str("role_id", current).Msg("failed to remove color role")
		respondEmbed(s, i, embeds.Error("Could not remove the role, check the bot's permissions.", ""))
		return
	}

	respondEmbed(s, i, embeds.Success("Your color role was removed.", ""))
}

func (b *Bot) colorList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg := b.settings.Get(i.GuildID).ColorConfig

	userRoles := make(map[string]struct{}, len(i.Member.Roles))
	for _, id := range i.Member.Roles {
		userRoles[id] = struct{}{}
	}

	eligible := b.colorResolver.EligibleRoles(userRoles, cfg)
	current, _ := cfg.CurrentColorRole(i.Member.Roles)
	respondEmbed(s, i, embeds.EligibleColors(eligible, current))
}
