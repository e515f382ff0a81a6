package common

import (
	"strconv"
	"strings"

	"chainjack/models"
)

// FormatBalance renders a token amount with the game's short suffixes.
func FormatBalance(amount int64) string {
	return models.FormatUnits(amount)
}

// FormatHand renders a hand as card labels plus its value, e.g.
// "A♠ K♥ (21)".
func FormatHand(hand []models.Card) string {
	if len(hand) == 0 {
		return "-"
	}
	labels := make([]string, len(hand))
	for i, c := range hand {
		labels[i] = c.String()
	}
	return strings.Join(labels, " ") + " (" + strconv.Itoa(models.HandValue(hand)) + ")"
}
