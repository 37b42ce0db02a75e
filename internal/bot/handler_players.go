package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/towerbot/internal/embeds"
	"github.com/towerbot/internal/players"
)

// handlePlayer routes the /player registry subcommands.
func (b *Bot) handlePlayer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	if i.GuildID == "" {
		respondEmbed(s, i, embeds.Error("This command only works inside a server.", ""))
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	opts := optionMap(sub.Options)
	user := opts["user"].UserValue(s)

	switch sub.Name {
	case "link":
		b.playerLink(s, i, user, strings.TrimSpace(opts["player_id"].StringValue()))
	case "unlink":
		b.playerUnlink(s, i, user)
	case "verify":
		b.playerToggleVerify(s, i, user)
	case "sus":
		b.playerToggleSus(s, i, user)
	case "info":
		b.playerInfo(s, i, user)
	}
}

func (b *Bot) playerLink(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User, playerID string) {
	if playerID == "" {
		respondEmbed(s, i, embeds.Error("Player ID cannot be empty.", ""))
		return
	}

	player, ok := b.players.Get(user.ID)
	if !ok {
		player = &players.KnownPlayer{
			DiscordID: user.ID,
			Name:      user.Username,
			PrimaryID: playerID,
		}
	}
	for _, id := range player.PlayerIDs {
		if id == playerID {
			respondEmbed(s, i, embeds.Info(fmt.Sprintf("`%s` is already linked to <@%s>.", playerID, user.ID), ""))
			return
		}
	}
	player.PlayerIDs = append(player.PlayerIDs, playerID)
	b.players.Set(user.ID, player)

	if err := b.players.Save(); err != nil {
		b.log.Error().Err(err).Msg("failed to save known players")
		respondEmbed(s, i, embeds.Error("Failed to save, try again later.", ""))
		return
	}

	b.towerClient.InvalidatePlayer(playerID)
	b.log.Info().Str("discord_id", user.ID).Str("player_id", playerID).Msg("player linked")
	respondEmbed(s, i, embeds.Success(fmt.Sprintf("Linked `%s` to <@%s> (%d ID(s) total). Verify them with `/player verify` to enable roles.", playerID, user.ID, len(player.PlayerIDs)), ""))
}

func (b *Bot) playerUnlink(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User) {
	if _, ok := b.players.Get(user.ID); !ok {
		respondEmbed(s, i, embeds.Error(fmt.Sprintf("<@%s> is not in the registry.", user.ID), ""))
		return
	}

	b.players.Delete(user.ID)
	if err := b.players.Save(); err != nil {
		b.log.Error().Err(err).Msg("failed to save known players")
		respondEmbed(s, i, embeds.Error("Failed to save, try again later.", ""))
		return
	}

	b.log.Info().Str("discord_id", user.ID).Msg("player unlinked")
	respondEmbed(s, i, embeds.Success(fmt.Sprintf("Removed <@%s> from the registry. Their managed roles will be stripped on the next update.", user.ID), ""))
}

func (b *Bot) playerToggleVerify(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User) {
	player, ok := b.players.Get(user.ID)
	if !ok {
		respondEmbed(s, i, embeds.Error(fmt.Sprintf("<@%s> is not in the registry. Link a player ID first.", user.ID), ""))
		return
	}

	verified := !player.Verified
	b.players.SetVerified(user.ID, verified)
	if err := b.players.Save(); err != nil {
		b.log.Error().Err(err).Msg("failed to save known players")
		respondEmbed(s, i, embeds.Error("Failed to save, try again later.", ""))
		return
	}

	if verified {
		respondEmbed(s, i, embeds.Success(fmt.Sprintf("<@%s> is now **verified**.", user.ID), ""))
	} else {
		respondEmbed(s, i, embeds.Warning(fmt.Sprintf("<@%s> is now **unverified**. Their managed roles will be stripped on the next update.", user.ID), ""))
	}
}

func (b *Bot) playerToggleSus(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User) {
	player, ok := b.players.Get(user.ID)
	if !ok {
		respondEmbed(s, i, embeds.Error(fmt.Sprintf("<@%s> is not in the registry.", user.ID), ""))
		return
	}

	sus := !player.Sus
	b.players.SetSus(user.ID, sus)
	if err := b.players.Save(); err != nil {
		b.log.Error().Err(err).Msg("failed to save known players")
		respondEmbed(s, i, embeds.Error("Failed to save, try again later.", ""))
		return
	}

	if sus {
		respondEmbed(s, i, embeds.Warning(fmt.Sprintf("<@%s> is flagged for review. They are treated as unverified until cleared.", user.ID), ""))
	} else {
		respondEmbed(s, i, embeds.Success(fmt.Sprintf("Review flag cleared for <@%s>.", user.ID), ""))
	}
}

func (b *Bot) playerInfo(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User) {
	player, ok := b.players.Get(user.ID)
	if !ok {
		respondEmbed(s, i, embeds.Error(fmt.Sprintf("<@%s> is not in the registry.", user.ID), ""))
		return
	}

	status := "❌ Unverified"
	if player.Verified {
		status = "✅ Verified"
	}
	if player.Sus {
		status += " · 🚩 Under review"
	}

	ids := "none"
	if len(player.PlayerIDs) > 0 {
		ids = "`" + strings.Join(player.PlayerIDs, "`, `") + "`"
	}

	embed := embeds.Info(fmt.Sprintf("**User:** <@%s>\n**Status:** %s\n**Player IDs:** %s", user.ID, status, ids), "Registry Entry")
	respondEmbed(s, i, embed)
}
