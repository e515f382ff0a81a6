package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"chainjack/bot/common"
	"chainjack/models"
)

func (b *Bot) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	balance, err := b.userService.GetBalance(ctx)
	if err != nil {
		log.Errorf("Error getting balance: %v", err)
		common.RespondWithError(s, i, "Unable to retrieve balance. Please try again.")
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("Your current balance: **%s tokens**", common.FormatBalance(balance)))
}

func (b *Bot) handleBlackjackCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "Missing subcommand.")
		return
	}

	var err error
	switch options[0].Name {
	case "start":
		err = b.userService.StartSinglePlayerGame(ctx)
	case "bet":
		amount := options[0].Options[0].IntValue()
		err = b.userService.Bet(ctx, amount)
	case "deal":
		err = b.userService.DealBet(ctx)
	case "hit":
		err = b.userService.Hit(ctx)
	case "stand":
		err = b.userService.Stand(ctx)
	case "exit":
		err = b.userService.ExitSinglePlayerGame(ctx)
	default:
		common.RespondWithError(s, i, "Unknown subcommand.")
		return
	}
	if err != nil {
		log.Errorf("Blackjack %s failed: %v", options[0].Name, err)
		common.RespondWithError(s, i, friendlyError(err))
		return
	}

	state, err := b.userService.State(ctx)
	if err != nil || state.SinglePlayerGame == nil {
		common.RespondWithSuccess(s, i, "Done.")
		return
	}
	embed := gameEmbed("", state.SinglePlayerGame)
	if betData := state.Profile.BetData; betData != nil && state.SinglePlayerGame.Status == models.StatusWaitingForBets {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: chipFooter(betData),
		}
	}
	if err := common.RespondWithEmbed(s, i, embed, false); err != nil {
		log.Errorf("Error responding to blackjack command: %v", err)
	}
}

// friendlyError maps protocol errors to something a player can act on.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, models.ErrBetOutOfRange):
		return "That bet is outside your current limits."
	case errors.Is(err, models.ErrInvalidTransition):
		return "You can't do that right now."
	case errors.Is(err, models.ErrInvalidSeat):
		return "That seat doesn't exist."
	default:
		return "Something went wrong. Please try again."
	}
}
