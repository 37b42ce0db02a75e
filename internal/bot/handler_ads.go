package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/towerbot/internal/embeds"
)

// handleAd routes /ad. One post per user per cooldown window, enforced
// atomically through Redis SETNX so concurrent attempts cannot both
// pass.
func (b *Bot) handleAd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	if i.GuildID == "" || i.Member == nil {
		respondEmbed(s, i, embeds.Error("This command only works inside a server.", ""))
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	if sub.Name != "post" {
		return
	}
	opts := optionMap(sub.Options)
	message := opts["message"].StringValue()

	settings := b.settings.Get(i.GuildID)
	key := fmt.Sprintf("%s:%s:%s", b.cfg.RedisKeyAdCooldown, i.GuildID, i.Member.User.ID)

	ok, err := b.redis.SetNX(key, time.Now().UTC().Format(time.RFC3339), settings.AdCooldown)
	if err != nil {
		b.log.Error().Err(err).Str("user_id", i.Member.User.ID).Msg("ad cooldown check failed")
		respondEmbed(s, i, embeds.Error("Could not verify your cooldown, try again later.", ""))
		return
	}
	if !ok {
		respondEmbed(s, i, embeds.Warning(
			fmt.Sprintf("You already posted an ad recently. The cooldown is %s per user.", settings.AdCooldown),
			"⏳ On Cooldown"))
		return
	}

	ad := &discordgo.MessageEmbed{
		Title:       "📣 Community Ad",
		Description: message,
		Color:       embeds.ColorInfo,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Posted by %s", i.Member.User.Username)},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := s.ChannelMessageSendEmbed(i.ChannelID, ad); err != nil {
		b.log.Error().Err(err).Str("channel_id", i.ChannelID).Msg("failed to post ad")
		// Release the cooldown so a transient send failure does not
		// burn the user's window.
		b.redis.Delete(key)
		respondEmbed(s, i, embeds.Error("Could not post your ad, check the bot's permissions.", ""))
		return
	}

	b.log.Info().Str("user_id", i.Member.User.ID).Str("guild_id", i.GuildID).Msg("ad posted")
	respondEmbed(s, i, embeds.Success("Your ad was posted.", ""))
}
