package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"chainjack/bot/common"
)

func (b *Bot) handleTableCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "Missing subcommand.")
		return
	}

	switch options[0].Name {
	case "find":
		if err := b.userService.FindPlayChain(ctx); err != nil {
			log.Errorf("Table find failed: %v", err)
			common.RespondWithError(s, i, friendlyError(err))
			return
		}
		common.RespondWithSuccess(s, i, "Looking for a table with a free seat…")

	case "seat":
		seat := uint8(options[0].Options[0].IntValue())
		if err := b.userService.RequestTableSeat(ctx, seat); err != nil {
			log.Errorf("Seat request failed: %v", err)
			common.RespondWithError(s, i, friendlyError(err))
			return
		}
		common.RespondWithSuccess(s, i, "Seat requested. You'll see the table once the dealer confirms.")

	case "leave":
		state, err := b.userService.State(ctx)
		if err != nil {
			log.Errorf("Error getting user state: %v", err)
			common.RespondWithError(s, i, "Unable to read table state. Please try again.")
			return
		}
		if state.PlayChain == "" {
			common.RespondWithError(s, i, "You're not watching any table.")
			return
		}
		if err := b.userService.UnsubscribeFrom(ctx, state.PlayChain); err != nil {
			log.Errorf("Table leave failed: %v", err)
			common.RespondWithError(s, i, friendlyError(err))
			return
		}
		common.RespondWithSuccess(s, i, "Left the table.")

	case "status":
		state, err := b.userService.State(ctx)
		if err != nil {
			log.Errorf("Error getting user state: %v", err)
			common.RespondWithError(s, i, "Unable to read table state. Please try again.")
			return
		}
		if state.MirroredGame == nil {
			common.RespondWithError(s, i, "You're not watching any table. Use `/table find` first.")
			return
		}
		embed := gameEmbed(state.PlayChain, state.MirroredGame)
		if err := common.RespondWithEmbed(s, i, embed, false); err != nil {
			log.Errorf("Error responding to table status: %v", err)
		}

	default:
		common.RespondWithError(s, i, "Unknown subcommand.")
	}
}
