package models

import "fmt"

// Card encodes a single playing card as an integer in 1..52.
//
// Spades:   1 = Ace, 2-10 = Rank 2 - Rank 10, 11 = Jack, 12 = Queen, 13 = King
// Hearts:   14 = Ace, ..., 26 = King
// Diamonds: 27 = Ace, ..., 39 = King
// Clubs:    40 = Ace, ..., 52 = King
type Card uint8

// Suit identifies one of the four card suits.
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// CardsPerDeck is the number of cards in a single standard deck.
const CardsPerDeck = 52

// Suit returns the suit group of the card.
func (c Card) Suit() Suit {
	return Suit((c - 1) / 13)
}

// Rank returns the rank of the card: 1 = Ace, 2-10 face value,
// 11 = Jack, 12 = Queen, 13 = King.
func (c Card) Rank() int {
	return int((c-1)%13) + 1
}

// Valid reports whether the card code is within 1..52.
func (c Card) Valid() bool {
	return c >= 1 && c <= CardsPerDeck
}

var suitSymbols = [4]string{"♠", "♥", "♦", "♣"}

var rankLabels = [14]string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// String renders the card as rank plus suit symbol, e.g. "A♠" or "10♥".
func (c Card) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Card(%d)", uint8(c))
	}
	return rankLabels[c.Rank()] + suitSymbols[c.Suit()]
}
