package service

import (
	"context"

	"chainjack/events"
	"chainjack/models"
	"chainjack/transport"
)

// LedgerRepository defines the interface for a chain's token ledger state:
// local accounts, the shared pool counter, the bonus records and the
// append-only debt and pot logs.
type LedgerRepository interface {
	// GetAccount returns an owner's balance; missing accounts read as -1 so
	// callers can distinguish "never created" from an empty balance.
	GetAccount(ctx context.Context, owner string) (int64, error)

	// SetAccount writes an owner's balance, creating the account if needed.
	SetAccount(ctx context.Context, owner string, balance int64) error

	// GetPool returns the chain's shared token pool.
	GetPool(ctx context.Context) (int64, error)

	// SetPool overwrites the chain's shared token pool.
	SetPool(ctx context.Context, tokens int64) error

	// GetDailyBonus returns an owner's bonus record (zero value if none).
	GetDailyBonus(ctx context.Context, owner string) (models.DailyBonus, error)

	// SetDailyBonus writes an owner's bonus record.
	SetDailyBonus(ctx context.Context, owner string, bonus models.DailyBonus) error

	// InsertDebt appends a debt record.
	InsertDebt(ctx context.Context, debt models.DebtRecord) error

	// GetDebt returns a debt record by id, or nil if unknown.
	GetDebt(ctx context.Context, id uint64) (*models.DebtRecord, error)

	// UpdateDebt overwrites an existing debt record.
	UpdateDebt(ctx context.Context, debt models.DebtRecord) error

	// ListDebtsByStatus returns debts in creation order.
	ListDebtsByStatus(ctx context.Context, status models.DebtStatus) ([]models.DebtRecord, error)

	// InsertPotRecord appends to the pot audit trail.
	InsertPotRecord(ctx context.Context, rec models.TokenPotRecord) error
}

// RegistryRepository defines the interface for the public chain's play-chain
// registry: buckets keyed by seat occupancy plus a reverse index. A chain
// appears in at most one bucket at a time.
type RegistryRepository interface {
	// Add registers a play chain in the given bucket. Adding a chain that is
	// already tracked is a no-op.
	Add(ctx context.Context, chain models.ChainID, occupancy uint8) error

	// Occupancy returns the bucket a chain currently sits in.
	Occupancy(ctx context.Context, chain models.ChainID) (occupancy uint8, tracked bool, err error)

	// Move relocates a chain to a new bucket: removed from its previous
	// bucket and reverse index first, then inserted fresh.
	Move(ctx context.Context, chain models.ChainID, occupancy uint8) error

	// Remove drops a chain from the registry entirely.
	Remove(ctx context.Context, chain models.ChainID) error

	// Bucket lists the chains at one occupancy level, in registration order.
	Bucket(ctx context.Context, occupancy uint8) ([]models.ChainID, error)
}

// GameRepository persists the chain's authoritative game, if it owns one.
type GameRepository interface {
	// Get returns the stored game, or nil if the chain has none.
	Get(ctx context.Context) (*models.BlackjackGame, error)

	// Save overwrites the stored game.
	Save(ctx context.Context, game *models.BlackjackGame) error
}

// UserStateRepository persists a user chain's registers as one record.
type UserStateRepository interface {
	// Get returns the stored state, or a fresh initial state if none.
	Get(ctx context.Context) (*models.UserState, error)

	// Save overwrites the stored state.
	Save(ctx context.Context, state *models.UserState) error
}

// EventPublisher publishes in-process events; inside a unit of work the
// events are held back until the commit.
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork bundles one chain invocation's state access: repositories over
// a single transaction, plus the held-back event bus and transport outbox.
// Commit is all-or-nothing; a rolled-back invocation leaves no state change,
// no event and no outbound message behind.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback() error

	Ledger() LedgerRepository
	Registry() RegistryRepository
	Games() GameRepository
	UserStates() UserStateRepository

	Events() EventPublisher
	Outbox() transport.Sender
}

// UnitOfWorkFactory creates UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UserService drives a user chain: single-player rounds in full, plus the
// client side of chain discovery, seat requests and snapshot mirroring.
type UserService interface {
	// GetBalance reads the ledger balance, crediting the daily bonus if its
	// window elapsed, and refreshes the profile's bet limits.
	GetBalance(ctx context.Context) (int64, error)

	// StartSinglePlayerGame opens a private table with a freshly shuffled
	// shoe.
	StartSinglePlayerGame(ctx context.Context) error

	// ExitSinglePlayerGame closes the private table; rejected mid-round.
	ExitSinglePlayerGame(ctx context.Context) error

	// Bet accumulates a bet within the profile's limits. Zero sits out.
	Bet(ctx context.Context, amount int64) error

	// DealBet locks the bet in and deals the initial cards.
	DealBet(ctx context.Context) error

	// Hit deals one card to the player.
	Hit(ctx context.Context) error

	// Stand passes the turn; the dealer draws to 17 and the round settles.
	Stand(ctx context.Context) error

	// FindPlayChain starts chain discovery against a random public chain.
	FindPlayChain(ctx context.Context) error

	// RequestTableSeat asks the found play chain for a seat.
	RequestTableSeat(ctx context.Context, seatID uint8) error

	// SubscribeTo/UnsubscribeFrom manage a play chain stream subscription.
	SubscribeTo(ctx context.Context, chain models.ChainID) error
	UnsubscribeFrom(ctx context.Context, chain models.ChainID) error

	// State returns a copy of the chain's current user state.
	State(ctx context.Context) (*models.UserState, error)

	// Message handlers (inbound replies and events)
	HandleFindPlayChainResult(ctx context.Context, from models.ChainID, result models.FindPlayChainResult) error
	HandleRequestTableSeatResult(ctx context.Context, from models.ChainID, result models.RequestTableSeatResult) error
	HandleGameState(ctx context.Context, from models.ChainID, event models.GameStateEvent) error
}

// LedgerService handles the cross-chain token protocol on any role.
type LedgerService interface {
	// MintToken authorizes new tokens for a target chain's pool. Rejected
	// unless this chain is the configured master.
	MintToken(ctx context.Context, target models.ChainID, amount int64) error

	// HandleReceivedToken credits tokens into the local pool.
	HandleReceivedToken(ctx context.Context, from models.ChainID, data models.ReceivedTokenData) error

	// HandleTokenPot receives a finished round's pot into the local pool and
	// records it in the audit trail.
	HandleTokenPot(ctx context.Context, from models.ChainID, data models.TokenPotData) error

	// HandleDebtNotif settles a shortfall debt out of the local pool and
	// confirms payment to the originating chain. The pool must cover it.
	HandleDebtNotif(ctx context.Context, from models.ChainID, data models.DebtNotifData) error

	// HandleDebtPaid closes the mirrored debt record. The settlement itself
	// happened on the house side; no tokens move here.
	HandleDebtPaid(ctx context.Context, from models.ChainID, data models.DebtPaidData) error
}

// RegistryService handles the public chain's registry protocol.
type RegistryService interface {
	// HandleAddPlayChain registers a play chain; only relayed master
	// registrations are accepted.
	HandleAddPlayChain(ctx context.Context, from models.ChainID, data models.AddPlayChainData) error

	// HandleUpdatePlayChain moves a play chain to its new occupancy bucket.
	HandleUpdatePlayChain(ctx context.Context, from models.ChainID, data models.UpdatePlayChainData) error

	// HandleFindPlayChain answers a discovery query with the first entry of
	// the lowest non-full bucket.
	HandleFindPlayChain(ctx context.Context, from models.ChainID) error
}

// TableService handles the play chain's side of the protocol: the
// authoritative multiplayer game.
type TableService interface {
	// HandleSeatRequest grants or rejects a seat and publishes the updated
	// snapshot on success.
	HandleSeatRequest(ctx context.Context, from models.ChainID, data models.RequestTableSeatData) error

	// HandleSubscribe attaches the requester to this chain's game stream.
	HandleSubscribe(ctx context.Context, from models.ChainID) error

	// HandleUnsubscribe detaches the requester.
	HandleUnsubscribe(ctx context.Context, from models.ChainID) error
}

// MasterService exposes the master chain's exclusive operations.
type MasterService interface {
	// AddPlayChain registers a play chain with a public chain's registry.
	AddPlayChain(ctx context.Context, targetPublic, playChain models.ChainID) error

	// MintToken mints tokens into a chain's pool.
	MintToken(ctx context.Context, target models.ChainID, amount int64) error
}
