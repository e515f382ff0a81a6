package models

import "fmt"

// MessageKind tags the cross-chain message union.
type MessageKind string

const (
	// User chain inbound
	MsgFindPlayChainResult   MessageKind = "find_play_chain_result"
	MsgRequestTableSeatResult MessageKind = "request_table_seat_result"
	// Play chain inbound
	MsgSubscribe        MessageKind = "subscribe"
	MsgUnsubscribe      MessageKind = "unsubscribe"
	MsgRequestTableSeat MessageKind = "request_table_seat"
	// Public chain inbound
	MsgFindPlayChain   MessageKind = "find_play_chain"
	MsgAddPlayChain    MessageKind = "add_play_chain"
	MsgUpdatePlayChain MessageKind = "update_play_chain"
	// Ledger messages (any chain)
	MsgReceivedToken MessageKind = "received_token"
	MsgDebtNotif     MessageKind = "debt_notif"
	MsgDebtPaid      MessageKind = "debt_paid"
	MsgTokenPot      MessageKind = "token_pot"
)

// Message is the closed union of cross-chain messages. Kind selects which
// payload field is set; all others are nil. Handlers match on Kind
// exhaustively per role.
type Message struct {
	Kind MessageKind `json:"kind"`

	FindPlayChainResult   *FindPlayChainResult   `json:"findPlayChainResult,omitempty"`
	RequestTableSeat      *RequestTableSeatData  `json:"requestTableSeat,omitempty"`
	RequestTableSeatResult *RequestTableSeatResult `json:"requestTableSeatResult,omitempty"`
	AddPlayChain          *AddPlayChainData      `json:"addPlayChain,omitempty"`
	UpdatePlayChain       *UpdatePlayChainData   `json:"updatePlayChain,omitempty"`
	ReceivedToken         *ReceivedTokenData     `json:"receivedToken,omitempty"`
	DebtNotif             *DebtNotifData         `json:"debtNotif,omitempty"`
	DebtPaid              *DebtPaidData          `json:"debtPaid,omitempty"`
	TokenPot              *TokenPotData          `json:"tokenPot,omitempty"`
}

// Validate checks that the payload field matching Kind is set. Kinds that
// carry no payload always validate.
func (m Message) Validate() error {
	var ok bool
	switch m.Kind {
	case MsgFindPlayChainResult:
		ok = m.FindPlayChainResult != nil
	case MsgRequestTableSeat:
		ok = m.RequestTableSeat != nil
	case MsgRequestTableSeatResult:
		ok = m.RequestTableSeatResult != nil
	case MsgAddPlayChain:
		ok = m.AddPlayChain != nil
	case MsgUpdatePlayChain:
		ok = m.UpdatePlayChain != nil
	case MsgReceivedToken:
		ok = m.ReceivedToken != nil
	case MsgDebtNotif:
		ok = m.DebtNotif != nil
	case MsgDebtPaid:
		ok = m.DebtPaid != nil
	case MsgTokenPot:
		ok = m.TokenPot != nil
	case MsgSubscribe, MsgUnsubscribe, MsgFindPlayChain:
		ok = true
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	if !ok {
		return fmt.Errorf("message %q is missing its payload", m.Kind)
	}
	return nil
}

// FindPlayChainResult answers a chain discovery query. Chain is empty when
// no table with a free seat was found.
type FindPlayChainResult struct {
	Chain ChainID `json:"chain,omitempty"`
}

// RequestTableSeatData asks a play chain for a seat, carrying the
// requester's current ledger balance.
type RequestTableSeatData struct {
	SeatID  uint8 `json:"seatId"`
	Balance int64 `json:"balance"`
}

// RequestTableSeatResult reports whether the seat was granted.
type RequestTableSeatResult struct {
	SeatID  uint8 `json:"seatId"`
	Success bool  `json:"success"`
}

// AddPlayChainData registers a play chain with a public chain's registry.
type AddPlayChainData struct {
	Chain ChainID `json:"chain"`
}

// UpdatePlayChainData relays a play chain's new seat occupancy to the
// registry.
type UpdatePlayChainData struct {
	Occupancy uint8 `json:"occupancy"`
}

// ReceivedTokenData credits tokens into the receiving chain's pool.
type ReceivedTokenData struct {
	Amount int64 `json:"amount"`
}

// DebtNotifData notifies the house chain of a pool shortfall that was
// already paid out locally.
type DebtNotifData struct {
	DebtID    uint64 `json:"debtId"`
	Amount    int64  `json:"amount"`
	CreatedAt int64  `json:"createdAt"`
}

// DebtPaidData confirms a debt settlement back to the originating chain.
type DebtPaidData struct {
	DebtID uint64 `json:"debtId"`
	Amount int64  `json:"amount"`
	PaidAt int64  `json:"paidAt"`
}

// TokenPotData transfers a finished round's pot to the house chain.
type TokenPotData struct {
	Amount int64 `json:"amount"`
}

// GameStateEvent is the snapshot a play chain publishes on its blackjack
// stream whenever the game changes in a player-visible way.
type GameStateEvent struct {
	Game BlackjackGame `json:"game"`
}
