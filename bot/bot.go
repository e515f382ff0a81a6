package bot

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"chainjack/events"
	"chainjack/service"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string
	// TableChannelID, when set, receives a live embed of every game snapshot.
	TableChannelID string
}

// Bot is the user chain's Discord surface. Everything it does goes through
// the user service; it holds no game state of its own.
type Bot struct {
	config      Config
	session     *discordgo.Session
	userService service.UserService
	eventBus    *events.Bus
}

func New(config Config, userService service.UserService, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	bot := &Bot{
		config:      config,
		session:     dg,
		userService: userService,
		eventBus:    eventBus,
	}

	dg.AddHandler(bot.handleCommands)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	// Relay game snapshots into the table channel as they commit, whether
	// they come from the local game or a mirrored play chain.
	if bot.config.TableChannelID != "" {
		eventBus.Subscribe(events.EventTypeGameStateChanged, func(ctx context.Context, event events.Event) {
			changed, ok := event.(events.GameStateChangedEvent)
			if !ok {
				return
			}
			if err := bot.postGameSnapshot(changed); err != nil {
				log.Errorf("Failed to post game snapshot: %v", err)
			}
		})
		log.Info("Table channel relay enabled")
	}

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) postGameSnapshot(event events.GameStateChangedEvent) error {
	embed := gameEmbed(event.Chain, &event.Game)
	_, err := b.session.ChannelMessageSendEmbed(b.config.TableChannelID, embed)
	return err
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "balance":
		b.handleBalance(s, i)
	case "blackjack":
		b.handleBlackjackCommand(s, i)
	case "table":
		b.handleTableCommand(s, i)
	}
}
