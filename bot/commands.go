package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "Check your chain's token balance",
		},
		{
			Name:        "blackjack",
			Description: "Play blackjack on your own chain",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "start",
					Description: "Open a single-player table",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "bet",
					Description: "Add chips to your bet",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "amount",
							Description: "Chip amount to add",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "deal",
					Description: "Lock your bet in and deal the cards",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "hit",
					Description: "Take another card",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stand",
					Description: "Stand and let the dealer play",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "exit",
					Description: "Leave the single-player table",
				},
			},
		},
		{
			Name:        "table",
			Description: "Find and join multiplayer tables",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "find",
					Description: "Look for a table with a free seat",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "seat",
					Description: "Request a seat at the found table",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "number",
							Description: "Seat number to request",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leave",
					Description: "Stop watching the table you joined",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show the table you are watching",
				},
			},
		},
	}

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("error creating command %s: %w", cmd.Name, err)
		}
	}
	return nil
}
