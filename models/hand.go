package models

// BlackjackTarget is the hand value a player is trying to reach.
const BlackjackTarget = 21

// HandValue scores a Blackjack hand. Face cards and tens count as 10, other
// ranks count at face value, and Aces count as 11 unless that would bust the
// hand, in which case as many Aces as needed are revalued to 1.
func HandValue(hand []Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		rank := c.Rank()
		switch {
		case rank == 1:
			aces++
			total += 11
		case rank >= 10:
			total += 10
		default:
			total += rank
		}
	}
	for total > BlackjackTarget && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsNatural reports whether the hand is a natural Blackjack: exactly two
// cards totaling 21.
func IsNatural(hand []Card) bool {
	return len(hand) == 2 && HandValue(hand) == BlackjackTarget
}

// IsBust reports whether a hand value exceeds 21.
func IsBust(value int) bool {
	return value > BlackjackTarget
}
