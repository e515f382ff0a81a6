package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainjack/config"
	"chainjack/events"
	"chainjack/models"
	"chainjack/repository/memory"
	"chainjack/transport"
)

// world is a single-process topology: every chain gets its own store, bus
// and hub endpoint, and envelopes are drained deterministically.
type world struct {
	t         *testing.T
	hub       *transport.Hub
	nodes     map[models.ChainID]*Node
	stores    map[models.ChainID]*memory.Store
	factories map[models.ChainID]*memory.UnitOfWorkFactory
	handlers  map[models.ChainID]transport.Handler
	publics   []models.ChainID
}

func newWorld(t *testing.T, publics ...models.ChainID) *world {
	return &world{
		t:         t,
		hub:       transport.NewHub(),
		nodes:     make(map[models.ChainID]*Node),
		stores:    make(map[models.ChainID]*memory.Store),
		factories: make(map[models.ChainID]*memory.UnitOfWorkFactory),
		handlers:  make(map[models.ChainID]transport.Handler),
		publics:   publics,
	}
}

func (w *world) addChain(id models.ChainID, role config.Role) *Node {
	cfg := &config.Config{
		ChainID:          id,
		Role:             role,
		MasterChain:      "master",
		HouseChain:       "house",
		PublicChains:     w.publics,
		StartingBalance:  100_000,
		DailyBonus:       500,
		DeckCount:        6,
		DeckRefillFloor:  80,
		FindChainRetries: 3,
		Environment:      "test",
	}
	store := memory.NewStore()
	tp := w.hub.Chain(id)
	factory := memory.NewUnitOfWorkFactory(store, events.NewBus(), tp)
	node := NewNode(cfg, tp, factory)

	w.nodes[id] = node
	w.stores[id] = store
	w.factories[id] = factory
	w.handlers[id] = node.Handle
	return node
}

func (w *world) drain() {
	w.hub.Drain(context.Background(), w.handlers)
}

func (w *world) userState(id models.ChainID) *models.UserState {
	state, err := w.nodes[id].User().State(context.Background())
	require.NoError(w.t, err)
	return state
}

func (w *world) registryOccupancy(public, play models.ChainID) (uint8, bool) {
	uow := w.factories[public].Create()
	require.NoError(w.t, uow.Begin(context.Background()))
	defer uow.Rollback()
	occ, tracked, err := uow.Registry().Occupancy(context.Background(), play)
	require.NoError(w.t, err)
	return occ, tracked
}

func TestDiscoveryAndSeatFlow(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, "public-1")
	master := w.addChain("master", config.RoleMaster)
	w.addChain("public-1", config.RolePublic)
	w.addChain("play-1", config.RolePlay)
	user := w.addChain("user-1", config.RoleUser)
	w.addChain("house", config.RoleUser)

	require.NoError(t, master.Master().AddPlayChain(ctx, "public-1", "play-1"))
	w.drain()
	_, tracked := w.registryOccupancy("public-1", "play-1")
	require.True(t, tracked)

	require.NoError(t, user.User().FindPlayChain(ctx))
	w.drain()

	state := w.userState("user-1")
	assert.Equal(t, models.UserPlayChainFound, state.Status)
	assert.Equal(t, models.ChainID("play-1"), state.PlayChain)

	require.NoError(t, user.User().RequestTableSeat(ctx, 1))
	w.drain()

	state = w.userState("user-1")
	assert.Equal(t, models.UserInMultiPlayerGame, state.Status)
	require.NotNil(t, state.Profile.Seat)
	assert.Equal(t, uint8(1), *state.Profile.Seat)

	// The published snapshot reached the subscribed user, deck stripped.
	require.NotNil(t, state.MirroredGame)
	assert.Equal(t, models.StatusWaitingForBets, state.MirroredGame.Status)
	assert.NotNil(t, state.MirroredGame.Player(1))
	assert.Empty(t, state.MirroredGame.Deck.Cards)

	// The play chain reported its new occupancy to the registry.
	occ, tracked := w.registryOccupancy("public-1", "play-1")
	require.True(t, tracked)
	assert.Equal(t, uint8(1), occ)
}

func TestSeatConflictAcrossUsers(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, "public-1")
	master := w.addChain("master", config.RoleMaster)
	w.addChain("public-1", config.RolePublic)
	w.addChain("play-1", config.RolePlay)
	first := w.addChain("user-1", config.RoleUser)
	second := w.addChain("user-2", config.RoleUser)
	w.addChain("house", config.RoleUser)

	require.NoError(t, master.Master().AddPlayChain(ctx, "public-1", "play-1"))
	w.drain()

	for _, u := range []*Node{first, second} {
		require.NoError(t, u.User().FindPlayChain(ctx))
		w.drain()
	}

	require.NoError(t, first.User().RequestTableSeat(ctx, 1))
	w.drain()
	require.NoError(t, second.User().RequestTableSeat(ctx, 1))
	w.drain()

	assert.Equal(t, models.UserInMultiPlayerGame, w.userState("user-1").Status)
	assert.Equal(t, models.UserRequestTableSeatFail, w.userState("user-2").Status)

	// The rejected user can take a free seat instead.
	require.NoError(t, second.User().RequestTableSeat(ctx, 2))
	w.drain()
	assert.Equal(t, models.UserInMultiPlayerGame, w.userState("user-2").Status)
}

func TestDiscoveryExhaustsRetries(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, "public-1", "public-2")
	w.addChain("public-1", config.RolePublic)
	w.addChain("public-2", config.RolePublic)
	user := w.addChain("user-1", config.RoleUser)

	// No play chain is registered anywhere: the initial query and all three
	// retries come back empty.
	require.NoError(t, user.User().FindPlayChain(ctx))
	w.drain()

	state := w.userState("user-1")
	assert.Equal(t, models.UserPlayChainUnavailable, state.Status)
	assert.Zero(t, state.FindRetry)
}

func TestMintTokenReachesTargetPool(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, "public-1")
	master := w.addChain("master", config.RoleMaster)
	w.addChain("house", config.RoleUser)

	require.NoError(t, master.Master().MintToken(ctx, "house", 10_000))
	w.drain()

	assert.Equal(t, int64(10_000), w.stores["house"].Pool())
}

func TestMasterGatingByOrigin(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, "public-1")
	w.addChain("public-1", config.RolePublic)
	w.addChain("user-1", config.RoleUser)

	// A registration forged by a non-master chain is refused on receipt.
	msg := models.Message{
		Kind:         models.MsgAddPlayChain,
		AddPlayChain: &models.AddPlayChainData{Chain: "play-9"},
	}
	require.NoError(t, w.hub.Chain("user-1").Send(ctx, "public-1", msg))
	w.drain()

	_, tracked := w.registryOccupancy("public-1", "play-9")
	assert.False(t, tracked)
}

// TestSinglePlayerRoundConservation plays a full round against a live shoe
// and checks that tokens are conserved no matter who wins: the user account,
// the user pool and the house pool always sum to the minted plus starting
// total.
func TestSinglePlayerRoundConservation(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, "public-1")
	master := w.addChain("master", config.RoleMaster)
	user := w.addChain("user-1", config.RoleUser)
	w.addChain("house", config.RoleUser)

	require.NoError(t, master.Master().MintToken(ctx, "user-1", 50_000))
	w.drain()

	svc := user.User()
	require.NoError(t, svc.StartSinglePlayerGame(ctx))
	require.NoError(t, svc.DealBet(ctx))

	state := w.userState("user-1")
	game := state.SinglePlayerGame
	require.NotNil(t, game)
	if game.Status == models.StatusPlayerTurn {
		require.NoError(t, svc.Stand(ctx))
		game = w.userState("user-1").SinglePlayerGame
	}
	require.Equal(t, models.StatusRoundEnded, game.Status)
	w.drain()

	total := w.stores["user-1"].Account("user-1") +
		w.stores["user-1"].Pool() +
		w.stores["house"].Pool()
	// Starting balance plus first bonus claim plus the minted pool stake.
	assert.Equal(t, int64(100_000+500+50_000), total)
}

// rigUserDeck replaces the single-player shoe so the deal is scripted: cards
// are drawn from the end, two to the dealer and then two to the player.
func (w *world) rigUserDeck(id models.ChainID, cards ...models.Card) {
	ctx := context.Background()
	uow := w.factories[id].Create()
	require.NoError(w.t, uow.Begin(ctx))
	state, err := uow.UserStates().Get(ctx)
	require.NoError(w.t, err)
	require.NotNil(w.t, state.SinglePlayerGame)
	state.SinglePlayerGame.Deck = models.Deck{Cards: cards}
	require.NoError(w.t, uow.UserStates().Save(ctx, state))
	require.NoError(w.t, uow.Commit(ctx))
}

func (w *world) debtsByStatus(id models.ChainID, status models.DebtStatus) []models.DebtRecord {
	uow := w.factories[id].Create()
	require.NoError(w.t, uow.Begin(context.Background()))
	defer uow.Rollback()
	debts, err := uow.Ledger().ListDebtsByStatus(context.Background(), status)
	require.NoError(w.t, err)
	return debts
}

// TestPoolShortfallSettlesAcrossChains forces a win the local pool cannot
// cover: the player is paid in full, the shortfall travels to the house as a
// debt, the house pool pays it, and the confirmation closes the mirrored
// record. Token totals must match the minted picture exactly afterwards.
func TestPoolShortfallSettlesAcrossChains(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, "public-1")
	master := w.addChain("master", config.RoleMaster)
	user := w.addChain("user-1", config.RoleUser)
	w.addChain("house", config.RoleUser)

	// Only the house pool is funded; the user pool holds nothing but the bet.
	require.NoError(t, master.Master().MintToken(ctx, "house", 10_000))
	w.drain()

	svc := user.User()
	require.NoError(t, svc.StartSinglePlayerGame(ctx))

	// Dealer draws 9,9; the player draws an ace and a king for a natural.
	w.rigUserDeck("user-1", 13, 1, 9, 9)
	require.NoError(t, svc.DealBet(ctx))

	state := w.userState("user-1")
	require.Equal(t, models.StatusRoundEnded, state.SinglePlayerGame.Status)
	require.Len(t, w.debtsByStatus("user-1", models.DebtPending), 1)

	w.drain()

	// 100,500 starting balance, minus the 1000 bet, plus the 2000 payout.
	assert.Equal(t, int64(101_500), w.stores["user-1"].Account("user-1"))
	assert.Zero(t, w.stores["user-1"].Pool())
	assert.Equal(t, int64(9_000), w.stores["house"].Pool())

	assert.Empty(t, w.debtsByStatus("user-1", models.DebtPending))
	assert.Len(t, w.debtsByStatus("user-1", models.DebtSettled), 1)
	assert.Len(t, w.debtsByStatus("house", models.DebtSettled), 1)

	total := w.stores["user-1"].Account("user-1") +
		w.stores["user-1"].Pool() +
		w.stores["house"].Pool()
	assert.Equal(t, int64(100_000+500+10_000), total)
}
