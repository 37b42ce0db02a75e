package bot

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/towerbot/internal/colors"
)

// onGuildMemberUpdate fires on every individual role change, so a
// single moderator action can emit a burst of events for one user. Each
// event resets a short per-user timer; the color evaluation runs once,
// after the burst settles.
func (b *Bot) onGuildMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.User == nil || m.User.Bot {
		return
	}

	cfg := b.settings.Get(m.GuildID).ColorConfig
	if len(cfg.Categories) == 0 {
		return
	}

	key := m.GuildID + ":" + m.User.ID

	b.debounceMu.Lock()
	defer b.debounceMu.Unlock()

	if timer, ok := b.pending[key]; ok {
		timer.Stop()
	}
	guildID, userID := m.GuildID, m.User.ID
	b.pending[key] = time.AfterFunc(memberUpdateDebounce, func() {
		b.debounceMu.Lock()
		delete(b.pending, key)
		b.debounceMu.Unlock()
		b.evaluateColorRoles(guildID, userID)
	})
}

// evaluateColorRoles re-checks one member's color role after their role
// set changed, demoting or clearing it when prerequisites were lost.
// The member is re-fetched here so the decision uses the post-burst
// role set, not the one from the event that started the timer.
func (b *Bot) evaluateColorRoles(guildID, userID string) {
	cfg := b.settings.Get(guildID).ColorConfig

	member, err := b.session.State.Member(guildID, userID)
	if err != nil {
		member, err = b.session.GuildMember(guildID, userID)
		if err != nil {
			b.log.Debug().Str("user_id", userID).Msg("member left before color evaluation")
			return
		}
	}

	decision := b.colorResolver.PlanMemberUpdate(member.Roles, cfg)

	switch decision.Action {
	case colors.ActionNone, colors.ActionKeep:
		return

	case colors.ActionDemote:
		if err := b.session.GuildMemberRoleRemove(guildID, userID, decision.Current); err != nil {
			b.log.Error().Err(err).Str("user_id", userID).Str("role_id", decision.Current).Msg("failed to remove color role during demotion")
			return
		}
		if err := b.session.GuildMemberRoleAdd(guildID, userID, decision.DemoteTo); err != nil {
			b.log.Error().Err(err).Str("user_id", userID).Str("role_id", decision.DemoteTo).Msg("failed to assign demotion color role")
			return
		}
		b.log.Info().
			Str("user_id", userID).
			Str("from", decision.Current).
			Str("to", decision.DemoteTo).
			Msg("color role demoted")

	case colors.ActionClear:
		if err := b.session.GuildMemberRoleRemove(guildID, userID, decision.Current); err != nil {
			b.log.Error().Err(err).Str("user_id", userID).Str("role_id", decision.Current).Msg("failed to clear color role")
			return
		}
		b.log.Info().Str("user_id", userID).Str("role_id", decision.Current).Msg("color role cleared")
	}
}
