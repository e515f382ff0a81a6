package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"chainjack/bot/common"
	"chainjack/models"
)

func gameEmbed(chain models.ChainID, game *models.BlackjackGame) *discordgo.MessageEmbed {
	title := "Blackjack"
	if chain != "" {
		title = fmt.Sprintf("Blackjack table %s", chain)
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Dealer",
			Value:  common.FormatHand(game.Dealer.Hand),
			Inline: false,
		},
	}

	seats := make([]uint8, 0, len(game.Players))
	for seat := range game.Players {
		seats = append(seats, seat)
	}
	sort.Slice(seats, func(a, b int) bool { return seats[a] < seats[b] })

	for _, seat := range seats {
		player := game.Players[seat]
		name := fmt.Sprintf("Seat %d", seat)
		if seat == 0 {
			name = "You"
		}
		if player.CurrentPlayer {
			name += " ▶"
		}
		value := fmt.Sprintf("%s\nBet: %s · Balance: %s",
			common.FormatHand(player.Hand),
			common.FormatBalance(player.Bet),
			common.FormatBalance(player.Balance))
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   name,
			Value:  value,
			Inline: true,
		})
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("**%s** · Pot: %s", game.Status, common.FormatBalance(game.Pot)),
		Fields:      fields,
		Color:       0x2e7d32,
	}
}

func chipFooter(betData *models.BetData) string {
	if betData.ChipSet == nil {
		return fmt.Sprintf("All-in only · max %s", common.FormatBalance(betData.MaxBet))
	}
	chips := make([]string, 0, len(betData.ChipSet))
	for _, chip := range betData.ChipSet {
		if chip.Enable {
			chips = append(chips, chip.Text)
		}
	}
	return fmt.Sprintf("Chips: %s · min %s · max %s",
		strings.Join(chips, " "),
		common.FormatBalance(betData.MinBet),
		common.FormatBalance(betData.MaxBet))
}
