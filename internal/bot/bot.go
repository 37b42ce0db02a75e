// Package bot provides the Discord bot core for TowerBot.
package bot

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/towerbot/internal/colors"
	"github.com/towerbot/internal/config"
	"github.com/towerbot/internal/players"
	"github.com/towerbot/internal/roles"
	"github.com/towerbot/internal/services/tower"
	"github.com/towerbot/internal/storage"
)

// memberUpdateDebounce is how long to wait after the last role-change
// event for a user before re-evaluating their color role. Discord
// fires one event per individual role change, so a single action can
// produce several in quick succession.
const memberUpdateDebounce = 2 * time.Second

// Bot represents the Discord bot.
type Bot struct {
	session       *discordgo.Session
	cfg           *config.Config
	log           zerolog.Logger
	redis         *storage.RedisClient
	settings      *storage.GuildSettingsStore
	players       *players.Store
	towerClient   *tower.Client
	roleResolver  *roles.Resolver
	colorResolver *colors.Resolver

	updateMu       sync.Mutex
	updating       bool
	lastFullUpdate map[string]time.Time // guildID -> completion time

	debounceMu sync.Mutex
	pending    map[string]*time.Timer // guildID:userID -> debounce timer

	stopUpdates chan struct{}
	commands    []*discordgo.ApplicationCommand
}

// New creates a new Bot instance.
func New(cfg *config.Config, log zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Member intent is required to see role changes and enumerate
	// guild members during full updates.
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	redis := storage.NewRedisClient(cfg, log)
	knownPlayers := players.NewStore(redis, cfg.RedisKeyKnownPlayers, log)

	if err := knownPlayers.Load(); err != nil {
		log.Error().Err(err).Msg("failed to load known players")
	}

	bot := &Bot{
		session:        session,
		cfg:            cfg,
		log:            log,
		redis:          redis,
		settings:       storage.NewGuildSettingsStore(redis, cfg.RedisKeyGuildSettings, log),
		players:        knownPlayers,
		towerClient:    tower.NewClient(redis, cfg.TowerBaseURL, cfg.RedisKeyStatsCache, log),
		roleResolver:   roles.NewResolver(log),
		colorResolver:  colors.NewResolver(log),
		lastFullUpdate: make(map[string]time.Time),
		pending:        make(map[string]*time.Timer),
		stopUpdates:    make(chan struct{}),
	}

	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onInteractionCreate)
	session.AddHandler(bot.onGuildMemberUpdate)

	return bot, nil
}

// Start connects to Discord and starts the bot.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	b.log.Info().Msg("connected to Discord")

	if err := b.registerCommands(); err != nil {
		b.log.Error().Err(err).Msg("failed to register commands")
	}

	go b.runPeriodicUpdates()

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	close(b.stopUpdates)

	b.debounceMu.Lock()
	for _, timer := range b.pending {
		timer.Stop()
	}
	b.debounceMu.Unlock()

	if err := b.players.Save(); err != nil {
		b.log.Error().Err(err).Msg("failed to save known players")
	}
	return b.session.Close()
}

// Ready reports whether the gateway session has completed its
// handshake. Backs the readiness probe.
func (b *Bot) Ready() bool {
	return b.session.State != nil && b.session.State.User != nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("bot ready")
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "tourneyroles":
		b.handleTourneyRoles(s, i)
	case "player":
		b.handlePlayer(s, i)
	case "color":
		b.handleColor(s, i)
	case "ad":
		b.handleAd(s, i)
	}
}

// registerCommands registers all slash commands.
func (b *Bot) registerCommands() error {
	manageRoles := int64(discordgo.PermissionManageRoles)

	commands := []*discordgo.ApplicationCommand{
		{
			Name:                     "tourneyroles",
			Description:              "Manage tournament performance roles",
			DefaultMemberPermissions: &manageRoles,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "list",
					Description: "List configured tournament roles",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name:        "add",
					Description: "Add a managed tournament role",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "role",
							Description: "Discord role to manage",
							Type:        discordgo.ApplicationCommandOptionRole,
							Required:    true,
						},
						{
							Name:        "method",
							Description: "Assignment method",
							Type:        discordgo.ApplicationCommandOptionString,
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "Champion (latest tournament winner)", Value: string(roles.MethodChampion)},
								{Name: "Placement (best position)", Value: string(roles.MethodPlacement)},
								{Name: "Wave (best wave count)", Value: string(roles.MethodWave)},
							},
						},
						{
							Name:        "threshold",
							Description: "Placement or wave threshold",
							Type:        discordgo.ApplicationCommandOptionInteger,
							Required:    true,
						},
						{
							Name:        "league",
							Description: "League name (required for Wave)",
							Type:        discordgo.ApplicationCommandOptionString,
						},
					},
				},
				{
					Name:        "remove",
					Description: "Remove a managed tournament role",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "name",
							Description: "Name of the rule to remove",
							Type:        discordgo.ApplicationCommandOptionString,
							Required:    true,
						},
					},
				},
				{
					Name:        "hierarchy",
					Description: "Show or set the league hierarchy",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "leagues",
							Description: "Comma-separated league names, highest first",
							Type:        discordgo.ApplicationCommandOptionString,
						},
					},
				},
				{
					Name:        "update",
					Description: "Run a full role update now",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name:        "pause",
					Description: "Pause or resume scheduled updates",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name:        "dryrun",
					Description: "Toggle dry-run mode (log changes without applying)",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
			},
		},
		{
			Name:                     "player",
			Description:              "Manage the known-players registry",
			DefaultMemberPermissions: &manageRoles,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "link",
					Description: "Link an in-game player ID to a Discord user",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "user",
							Description: "Discord user",
							Type:        discordgo.ApplicationCommandOptionUser,
							Required:    true,
						},
						{
							Name:        "player_id",
							Description: "In-game player ID",
							Type:        discordgo.ApplicationCommandOptionString,
							Required:    true,
						},
					},
				},
				{
					Name:        "unlink",
					Description: "Remove a Discord user from the registry",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "user",
							Description: "Discord user",
							Type:        discordgo.ApplicationCommandOptionUser,
							Required:    true,
						},
					},
				},
				{
					Name:        "verify",
					Description: "Toggle a user's verification",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "user",
							Description: "Discord user",
							Type:        discordgo.ApplicationCommandOptionUser,
							Required:    true,
						},
					},
				},
				{
					Name:        "sus",
					Description: "Toggle a user's moderation flag",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "user",
							Description: "Discord user",
							Type:        discordgo.ApplicationCommandOptionUser,
							Required:    true,
						},
					},
				},
				{
					Name:        "info",
					Description: "Show a user's registry entry",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "user",
							Description: "Discord user",
							Type:        discordgo.ApplicationCommandOptionUser,
							Required:    true,
						},
					},
				},
			},
		},
		{
			Name:        "color",
			Description: "Pick a name color role",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "pick",
					Description: "Pick a color role you qualify for",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "role",
							Description: "The color role",
							Type:        discordgo.ApplicationCommandOptionRole,
							Required:    true,
						},
					},
				},
				{
					Name:        "clear",
					Description: "Remove your color role",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name:        "list",
					Description: "List the color roles you qualify for",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
			},
		},
		{
			Name:        "ad",
			Description: "Post a community advertisement",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "post",
					Description: "Post an advertisement (cooldown applies)",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "message",
							Description: "Advertisement text",
							Type:        discordgo.ApplicationCommandOptionString,
							Required:    true,
						},
					},
				},
			},
		},
	}

	for _, cmd := range commands {
		created, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("failed to register /%s: %w", cmd.Name, err)
		}
		b.commands = append(b.commands, created)
	}

	b.log.Info().Int("count", len(b.commands)).Msg("registered slash commands")
	return nil
}

// respondEmbed edits the deferred interaction response with one embed.
func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
}

// deferResponse acknowledges the interaction with a loading state.
func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}
