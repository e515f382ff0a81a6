package models

import "fmt"

// ChainID identifies one independently-sequenced chain instance.
type ChainID string

// MaxPlayers is the number of multiplayer seats on a play chain table.
// Seat 0 is reserved for single-player games.
const MaxPlayers = 3

// GameStreamName is the event stream a play chain publishes game snapshots on.
const GameStreamName = "blackjack"

// GameStatus is the round state machine state.
type GameStatus uint8

const (
	StatusWaitingForPlayer GameStatus = iota
	StatusWaitingForBets
	StatusPlayerTurn
	StatusDealerTurn
	StatusRoundEnded
	StatusEnded
)

func (s GameStatus) String() string {
	switch s {
	case StatusWaitingForPlayer:
		return "WaitingForPlayer"
	case StatusWaitingForBets:
		return "WaitingForBets"
	case StatusPlayerTurn:
		return "PlayerTurn"
	case StatusDealerTurn:
		return "DealerTurn"
	case StatusRoundEnded:
		return "RoundEnded"
	case StatusEnded:
		return "Ended"
	default:
		return fmt.Sprintf("GameStatus(%d)", uint8(s))
	}
}

// UserStatus tracks a user chain's position in the coordination protocol.
type UserStatus uint8

const (
	UserIdle UserStatus = iota
	UserFindPlayChain
	UserPlayChainFound
	UserPlayChainUnavailable
	UserRequestingTableSeat
	UserRequestTableSeatFail
	UserInMultiPlayerGame
	UserInSinglePlayerGame
)

func (s UserStatus) String() string {
	switch s {
	case UserIdle:
		return "Idle"
	case UserFindPlayChain:
		return "FindPlayChain"
	case UserPlayChainFound:
		return "PlayChainFound"
	case UserPlayChainUnavailable:
		return "PlayChainUnavailable"
	case UserRequestingTableSeat:
		return "RequestingTableSeat"
	case UserRequestTableSeatFail:
		return "RequestTableSeatFail"
	case UserInMultiPlayerGame:
		return "InMultiPlayerGame"
	case UserInSinglePlayerGame:
		return "InSinglePlayerGame"
	default:
		return fmt.Sprintf("UserStatus(%d)", uint8(s))
	}
}

// GameOutcome is the result of comparing player and dealer hands.
type GameOutcome uint8

const (
	OutcomePlayerWins GameOutcome = iota
	OutcomeDealerWins
	OutcomeDraw
)

func (o GameOutcome) String() string {
	switch o {
	case OutcomePlayerWins:
		return "PlayerWins"
	case OutcomeDealerWins:
		return "DealerWins"
	case OutcomeDraw:
		return "Draw"
	default:
		return fmt.Sprintf("GameOutcome(%d)", uint8(o))
	}
}

// Player is one occupied seat: its current bet, the tracked mirror of the
// ledger balance, the hand, and the chain the player joined from.
type Player struct {
	SeatID        uint8   `json:"seatId"`
	Bet           int64   `json:"bet"`
	Balance       int64   `json:"balance"`
	Hand          []Card  `json:"hand"`
	ChainID       ChainID `json:"chainId,omitempty"`
	CurrentPlayer bool    `json:"currentPlayer"`
}

// NewPlayer binds a fresh player to a seat with no bet and an empty hand.
func NewPlayer(seatID uint8, balance int64, chainID ChainID) *Player {
	return &Player{
		SeatID:  seatID,
		Balance: balance,
		Hand:    []Card{},
		ChainID: chainID,
	}
}

// AddBet accumulates a bet. The tracked balance must equal the profile
// balance it is mirrored from; a disagreement is a consistency bug, not a
// transient condition.
func (p *Player) AddBet(amount, profileBalance int64) error {
	if p.Balance != profileBalance {
		return ErrBalanceMismatch
	}
	newBet := p.Bet + amount
	if newBet > p.Balance {
		return fmt.Errorf("%w: bet %d exceeds balance %d", ErrBetOutOfRange, newBet, p.Balance)
	}
	p.Bet = newBet
	return nil
}

// ResetBet clears the accumulated bet.
func (p *Player) ResetBet() {
	p.Bet = 0
}

// LockBet debits the accumulated bet from the tracked balance, falling back
// to the minimum bet if none was placed. Returns the locked bet and the new
// balance.
func (p *Player) LockBet(minBet, profileBalance int64) (bet, newBalance int64, err error) {
	if p.Balance != profileBalance {
		return 0, 0, ErrBalanceMismatch
	}
	if minBet > p.Balance {
		return 0, 0, fmt.Errorf("%w: minimum bet %d exceeds balance %d", ErrBetOutOfRange, minBet, p.Balance)
	}
	if p.Bet == 0 {
		p.Bet = minBet
	}
	p.Balance -= p.Bet
	return p.Bet, p.Balance, nil
}

// Dealer holds only a hand; it has no balance and places no bets.
type Dealer struct {
	Hand []Card `json:"hand"`
}

// BlackjackGame is the aggregate root of one table: seats, dealer, deck, pot
// and round status. Exactly one chain owns any given game.
type BlackjackGame struct {
	Sequence   uint64            `json:"sequence"`
	Dealer     Dealer            `json:"dealer"`
	Players    map[uint8]*Player `json:"players"`
	Deck       Deck              `json:"deck"`
	Pot        int64             `json:"pot"`
	ActiveSeat uint8             `json:"activeSeat"`
	Status     GameStatus        `json:"status"`
	TimeLimit  int64             `json:"timeLimit"` // micros since epoch, advisory
}

// NewBlackjackGame starts an empty table around a freshly shuffled deck.
func NewBlackjackGame(deck Deck) *BlackjackGame {
	return &BlackjackGame{
		Dealer:  Dealer{Hand: []Card{}},
		Players: make(map[uint8]*Player),
		Deck:    deck,
		Status:  StatusWaitingForPlayer,
	}
}

// Advance increments the sequence counter. Every state-affecting transition
// goes through here so stale reads are detectable by sequence comparison.
func (g *BlackjackGame) Advance() {
	g.Sequence++
}

// IsSeatTaken reports whether a seat is occupied.
func (g *BlackjackGame) IsSeatTaken(seatID uint8) bool {
	_, ok := g.Players[seatID]
	return ok
}

// RegisterPlayer binds a player to a seat, replacing any previous occupant.
func (g *BlackjackGame) RegisterPlayer(seatID uint8, player *Player) {
	g.Players[seatID] = player
}

// RemovePlayer vacates a seat. Removing an empty seat is a no-op.
func (g *BlackjackGame) RemovePlayer(seatID uint8) {
	delete(g.Players, seatID)
}

// Player returns the occupant of a seat, or nil.
func (g *BlackjackGame) Player(seatID uint8) *Player {
	return g.Players[seatID]
}

// DealCard pops one card from the deck onto the given hand.
func (g *BlackjackGame) DealCard(hand *[]Card) error {
	card, ok := g.Deck.Deal()
	if !ok {
		return ErrDeckExhausted
	}
	*hand = append(*hand, card)
	return nil
}

// DrawInitialCards deals two cards to the dealer and two to the seat's
// player.
func (g *BlackjackGame) DrawInitialCards(seatID uint8) error {
	player := g.Players[seatID]
	if player == nil {
		return fmt.Errorf("%w: seat %d is empty", ErrInvalidSeat, seatID)
	}
	for i := 0; i < 2; i++ {
		if err := g.DealCard(&g.Dealer.Hand); err != nil {
			return fmt.Errorf("dealing to dealer: %w", err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := g.DealCard(&player.Hand); err != nil {
			return fmt.Errorf("dealing to seat %d: %w", seatID, err)
		}
	}
	return nil
}

// Snapshot returns the game as published to subscribers: deck contents are
// stripped so nobody can read ahead.
//
// The dealer hand is meant to stay hidden until the round ends, but that is
// currently disabled and snapshots always carry it.
func (g *BlackjackGame) Snapshot() BlackjackGame {
	players := make(map[uint8]*Player, len(g.Players))
	for seat, p := range g.Players {
		cp := *p
		cp.Hand = append([]Card{}, p.Hand...)
		players[seat] = &cp
	}
	return BlackjackGame{
		Sequence:   g.Sequence,
		Dealer:     Dealer{Hand: append([]Card{}, g.Dealer.Hand...)},
		Players:    players,
		Deck:       EmptyDeck(),
		Pot:        g.Pot,
		ActiveSeat: g.ActiveSeat,
		Status:     g.Status,
		TimeLimit:  g.TimeLimit,
	}
}
