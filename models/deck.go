package models

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// Deck is an ordered sequence of cards owned by exactly one game.
// Dealing removes cards from the end.
type Deck struct {
	Cards []Card `json:"cards"`
}

// NewDeck returns a single unshuffled 52-card deck in code order.
func NewDeck() Deck {
	cards := make([]Card, CardsPerDeck)
	for i := range cards {
		cards[i] = Card(i + 1)
	}
	return Deck{Cards: cards}
}

// NewShoe returns decks*52 cards shuffled with the given commitment and time
// salt. The commitment is chosen before the time salt is known, so the
// permutation is verifiable after the fact but not precomputable.
func NewShoe(decks int, commit, timeSalt string) Deck {
	cards := make([]Card, 0, decks*CardsPerDeck)
	for d := 0; d < decks; d++ {
		cards = append(cards, NewDeck().Cards...)
	}
	shoe := Deck{Cards: cards}
	shoe.Shuffle(commit, timeSalt)
	return shoe
}

// EmptyDeck returns a deck with no cards, used when stripping deck contents
// from published game snapshots.
func EmptyDeck() Deck {
	return Deck{Cards: []Card{}}
}

// Shuffle reorders the deck with a permutation fully determined by the
// commitment string and the time salt: the same two inputs always yield the
// same order.
func (d *Deck) Shuffle(commit, timeSalt string) {
	rng := deckRNG(commit, timeSalt)
	rng.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Deal removes and returns the card at the end of the deck.
// The second return value is false if the deck is empty.
func (d *Deck) Deal() (Card, bool) {
	if len(d.Cards) == 0 {
		return 0, false
	}
	card := d.Cards[len(d.Cards)-1]
	d.Cards = d.Cards[:len(d.Cards)-1]
	return card, true
}

// AddCards appends a replenishment batch and reshuffles the whole deck.
// No external commitment exists at refill time, so the time salt seeds both
// halves of the permutation.
func (d *Deck) AddCards(batch []Card, timeSalt string) {
	d.Cards = append(d.Cards, batch...)
	d.Shuffle(timeSalt, timeSalt)
}

// Size returns the number of cards remaining.
func (d *Deck) Size() int {
	return len(d.Cards)
}

// IsEmpty reports whether the deck has no cards left.
func (d *Deck) IsEmpty() bool {
	return len(d.Cards) == 0
}

// deckRNG derives a deterministic source from the commitment and time salt.
func deckRNG(commit, timeSalt string) *rand.Rand {
	sum := sha256.Sum256([]byte(commit + timeSalt))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	return rand.New(rand.NewSource(seed))
}
