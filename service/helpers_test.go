package service

import (
	"context"

	"chainjack/config"
	"chainjack/events"
	"chainjack/models"
	"chainjack/transport"
)

// fakeState is the in-memory chain state behind the fake unit of work. Test
// assertions read it directly.
type fakeState struct {
	accounts  map[string]int64
	pool      int64
	bonuses   map[string]models.DailyBonus
	debts     map[uint64]models.DebtRecord
	debtOrder []uint64
	pots      []models.TokenPotRecord
	regOrder  []models.ChainID
	regOcc    map[models.ChainID]uint8
	game      *models.BlackjackGame
	userState *models.UserState
}

func newFakeState() *fakeState {
	return &fakeState{
		accounts: make(map[string]int64),
		bonuses:  make(map[string]models.DailyBonus),
		debts:    make(map[uint64]models.DebtRecord),
		regOcc:   make(map[models.ChainID]uint8),
	}
}

func (s *fakeState) pendingDebts() []models.DebtRecord {
	var debts []models.DebtRecord
	for _, id := range s.debtOrder {
		if d := s.debts[id]; d.Status == models.DebtPending {
			debts = append(debts, d)
		}
	}
	return debts
}

type sentMessage struct {
	dest models.ChainID
	msg  models.Message
}

type subscription struct {
	source     models.ChainID
	stream     string
	subscriber models.ChainID
}

// recorder captures everything a handler tried to publish or send.
type recorder struct {
	sent    []sentMessage
	emitted []models.GameStateEvent
	subs    []subscription
	unsubs  []subscription
	events  []events.Event
}

func (r *recorder) Send(dest models.ChainID, msg models.Message) {
	r.sent = append(r.sent, sentMessage{dest: dest, msg: msg})
}

func (r *recorder) Emit(stream string, event models.GameStateEvent) {
	r.emitted = append(r.emitted, event)
}

func (r *recorder) Subscribe(source models.ChainID, stream string, subscriber models.ChainID) {
	r.subs = append(r.subs, subscription{source: source, stream: stream, subscriber: subscriber})
}

func (r *recorder) Unsubscribe(source models.ChainID, stream string, subscriber models.ChainID) {
	r.unsubs = append(r.unsubs, subscription{source: source, stream: stream, subscriber: subscriber})
}

func (r *recorder) Publish(e events.Event) {
	r.events = append(r.events, e)
}

func (r *recorder) sentOfKind(kind models.MessageKind) []sentMessage {
	var out []sentMessage
	for _, s := range r.sent {
		if s.msg.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func (r *recorder) reset() {
	*r = recorder{}
}

// fakeUnit is a no-transaction unit of work over shared fake state. Handlers
// under test run to completion or fail before mutating, so the missing
// rollback does not matter here.
type fakeUnit struct {
	state *fakeState
	rec   *recorder
}

func (u *fakeUnit) Begin(ctx context.Context) error  { return nil }
func (u *fakeUnit) Commit(ctx context.Context) error { return nil }
func (u *fakeUnit) Rollback() error                  { return nil }

func (u *fakeUnit) Ledger() LedgerRepository        { return &fakeLedger{u.state} }
func (u *fakeUnit) Registry() RegistryRepository    { return &fakeRegistry{u.state} }
func (u *fakeUnit) Games() GameRepository           { return &fakeGames{u.state} }
func (u *fakeUnit) UserStates() UserStateRepository { return &fakeUserStates{u.state} }
func (u *fakeUnit) Events() EventPublisher          { return u.rec }
func (u *fakeUnit) Outbox() transport.Sender        { return u.rec }

type fakeFactory struct {
	unit *fakeUnit
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{unit: &fakeUnit{state: newFakeState(), rec: &recorder{}}}
}

func (f *fakeFactory) Create() UnitOfWork { return f.unit }

func (f *fakeFactory) state() *fakeState { return f.unit.state }
func (f *fakeFactory) rec() *recorder    { return f.unit.rec }

type fakeLedger struct{ s *fakeState }

func (r *fakeLedger) GetAccount(ctx context.Context, owner string) (int64, error) {
	if balance, ok := r.s.accounts[owner]; ok {
		return balance, nil
	}
	return -1, nil
}

func (r *fakeLedger) SetAccount(ctx context.Context, owner string, balance int64) error {
	r.s.accounts[owner] = balance
	return nil
}

func (r *fakeLedger) GetPool(ctx context.Context) (int64, error) { return r.s.pool, nil }

func (r *fakeLedger) SetPool(ctx context.Context, tokens int64) error {
	r.s.pool = tokens
	return nil
}

func (r *fakeLedger) GetDailyBonus(ctx context.Context, owner string) (models.DailyBonus, error) {
	return r.s.bonuses[owner], nil
}

func (r *fakeLedger) SetDailyBonus(ctx context.Context, owner string, bonus models.DailyBonus) error {
	r.s.bonuses[owner] = bonus
	return nil
}

func (r *fakeLedger) InsertDebt(ctx context.Context, debt models.DebtRecord) error {
	r.s.debts[debt.ID] = debt
	r.s.debtOrder = append(r.s.debtOrder, debt.ID)
	return nil
}

func (r *fakeLedger) GetDebt(ctx context.Context, id uint64) (*models.DebtRecord, error) {
	if debt, ok := r.s.debts[id]; ok {
		return &debt, nil
	}
	return nil, nil
}

func (r *fakeLedger) UpdateDebt(ctx context.Context, debt models.DebtRecord) error {
	if _, ok := r.s.debts[debt.ID]; !ok {
		return models.ErrUnknownDebt
	}
	r.s.debts[debt.ID] = debt
	return nil
}

func (r *fakeLedger) ListDebtsByStatus(ctx context.Context, status models.DebtStatus) ([]models.DebtRecord, error) {
	var debts []models.DebtRecord
	for _, id := range r.s.debtOrder {
		if d := r.s.debts[id]; d.Status == status {
			debts = append(debts, d)
		}
	}
	return debts, nil
}

func (r *fakeLedger) InsertPotRecord(ctx context.Context, rec models.TokenPotRecord) error {
	r.s.pots = append(r.s.pots, rec)
	return nil
}

type fakeRegistry struct{ s *fakeState }

func (r *fakeRegistry) Add(ctx context.Context, chain models.ChainID, occupancy uint8) error {
	if _, ok := r.s.regOcc[chain]; ok {
		return nil
	}
	r.s.regOcc[chain] = occupancy
	r.s.regOrder = append(r.s.regOrder, chain)
	return nil
}

func (r *fakeRegistry) Occupancy(ctx context.Context, chain models.ChainID) (uint8, bool, error) {
	occ, ok := r.s.regOcc[chain]
	return occ, ok, nil
}

func (r *fakeRegistry) Move(ctx context.Context, chain models.ChainID, occupancy uint8) error {
	if err := r.Remove(ctx, chain); err != nil {
		return err
	}
	r.s.regOcc[chain] = occupancy
	r.s.regOrder = append(r.s.regOrder, chain)
	return nil
}

func (r *fakeRegistry) Remove(ctx context.Context, chain models.ChainID) error {
	delete(r.s.regOcc, chain)
	order := r.s.regOrder[:0]
	for _, c := range r.s.regOrder {
		if c != chain {
			order = append(order, c)
		}
	}
	r.s.regOrder = order
	return nil
}

func (r *fakeRegistry) Bucket(ctx context.Context, occupancy uint8) ([]models.ChainID, error) {
	var chains []models.ChainID
	for _, c := range r.s.regOrder {
		if r.s.regOcc[c] == occupancy {
			chains = append(chains, c)
		}
	}
	return chains, nil
}

type fakeGames struct{ s *fakeState }

func (r *fakeGames) Get(ctx context.Context) (*models.BlackjackGame, error) { return r.s.game, nil }

func (r *fakeGames) Save(ctx context.Context, game *models.BlackjackGame) error {
	r.s.game = game
	return nil
}

type fakeUserStates struct{ s *fakeState }

func (r *fakeUserStates) Get(ctx context.Context) (*models.UserState, error) {
	if r.s.userState == nil {
		return models.NewUserState(), nil
	}
	return r.s.userState, nil
}

func (r *fakeUserStates) Save(ctx context.Context, state *models.UserState) error {
	r.s.userState = state
	return nil
}

func testConfig(chain models.ChainID, role config.Role) *config.Config {
	return &config.Config{
		ChainID:          chain,
		Role:             role,
		MasterChain:      "master",
		HouseChain:       "house",
		PublicChains:     []models.ChainID{"public-1", "public-2"},
		StartingBalance:  100_000,
		DailyBonus:       500,
		DeckCount:        6,
		DeckRefillFloor:  0,
		FindChainRetries: 3,
		Environment:      "test",
	}
}
