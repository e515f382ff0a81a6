// Package memory provides an in-memory unit of work with the same commit
// semantics as the postgres-backed one: handlers mutate a working copy that
// replaces the store's state only on commit. It backs service and protocol
// tests that need several chains in one process without a database.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"chainjack/events"
	"chainjack/models"
	"chainjack/service"
	"chainjack/transport"
)

type regEntry struct {
	chain     models.ChainID
	occupancy uint8
}

type state struct {
	accounts   map[string]int64
	pool       int64
	bonuses    map[string]models.DailyBonus
	debts      map[uint64]models.DebtRecord
	debtOrder  []uint64
	potRecords []models.TokenPotRecord
	registry   []regEntry // registration order
	game       *models.BlackjackGame
	userState  *models.UserState
}

func newState() *state {
	return &state{
		accounts: make(map[string]int64),
		bonuses:  make(map[string]models.DailyBonus),
		debts:    make(map[uint64]models.DebtRecord),
	}
}

func (s *state) clone() *state {
	cp := &state{
		accounts:   make(map[string]int64, len(s.accounts)),
		pool:       s.pool,
		bonuses:    make(map[string]models.DailyBonus, len(s.bonuses)),
		debts:      make(map[uint64]models.DebtRecord, len(s.debts)),
		debtOrder:  append([]uint64{}, s.debtOrder...),
		potRecords: append([]models.TokenPotRecord{}, s.potRecords...),
		registry:   append([]regEntry{}, s.registry...),
	}
	for k, v := range s.accounts {
		cp.accounts[k] = v
	}
	for k, v := range s.bonuses {
		cp.bonuses[k] = v
	}
	for k, v := range s.debts {
		cp.debts[k] = v
	}
	cp.game = cloneJSON(s.game)
	cp.userState = cloneJSON(s.userState)
	return cp
}

// cloneJSON deep-copies a register through its wire encoding, the same shape
// the postgres JSONB columns hold.
func cloneJSON[T any](v *T) *T {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to encode register: %v", err))
	}
	cp := new(T)
	if err := json.Unmarshal(data, cp); err != nil {
		panic(fmt.Sprintf("failed to decode register: %v", err))
	}
	return cp
}

// Store holds one chain's committed state.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// Pool returns the committed pool balance, for test assertions.
func (s *Store) Pool() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.pool
}

// Account returns the committed balance of an owner, or -1 if absent.
func (s *Store) Account(owner string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if balance, ok := s.state.accounts[owner]; ok {
		return balance
	}
	return -1
}

// UnitOfWorkFactory creates units of work over one store.
type UnitOfWorkFactory struct {
	store     *Store
	bus       *events.Bus
	transport transport.Transport
}

func NewUnitOfWorkFactory(store *Store, bus *events.Bus, tp transport.Transport) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store, bus: bus, transport: tp}
}

func (f *UnitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		store:    f.store,
		eventBus: events.NewTransactionalBus(f.bus),
		outbox:   transport.NewOutbox(f.transport),
	}
}

type unitOfWork struct {
	store    *Store
	working  *state
	eventBus *events.TransactionalBus
	outbox   *transport.Outbox
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.working != nil {
		return fmt.Errorf("unit of work already started")
	}
	u.store.mu.Lock()
	u.working = u.store.state.clone()
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.working == nil {
		return fmt.Errorf("unit of work not started")
	}
	u.store.mu.Lock()
	u.store.state = u.working
	u.store.mu.Unlock()
	u.working = nil

	u.eventBus.Flush(ctx)
	if err := u.outbox.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush outbox: %w", err)
	}
	return nil
}

func (u *unitOfWork) Rollback() error {
	u.working = nil
	u.eventBus.Discard()
	u.outbox.Discard()
	return nil
}

func (u *unitOfWork) Ledger() service.LedgerRepository        { return &ledgerRepo{u} }
func (u *unitOfWork) Registry() service.RegistryRepository    { return &registryRepo{u} }
func (u *unitOfWork) Games() service.GameRepository           { return &gameRepo{u} }
func (u *unitOfWork) UserStates() service.UserStateRepository { return &userStateRepo{u} }
func (u *unitOfWork) Events() service.EventPublisher          { return u.eventBus }
func (u *unitOfWork) Outbox() transport.Sender                { return u.outbox }

type ledgerRepo struct{ u *unitOfWork }

func (r *ledgerRepo) GetAccount(ctx context.Context, owner string) (int64, error) {
	if balance, ok := r.u.working.accounts[owner]; ok {
		return balance, nil
	}
	return -1, nil
}

func (r *ledgerRepo) SetAccount(ctx context.Context, owner string, balance int64) error {
	r.u.working.accounts[owner] = balance
	return nil
}

func (r *ledgerRepo) GetPool(ctx context.Context) (int64, error) {
	return r.u.working.pool, nil
}

func (r *ledgerRepo) SetPool(ctx context.Context, tokens int64) error {
	r.u.working.pool = tokens
	return nil
}

func (r *ledgerRepo) GetDailyBonus(ctx context.Context, owner string) (models.DailyBonus, error) {
	return r.u.working.bonuses[owner], nil
}

func (r *ledgerRepo) SetDailyBonus(ctx context.Context, owner string, bonus models.DailyBonus) error {
	r.u.working.bonuses[owner] = bonus
	return nil
}

func (r *ledgerRepo) InsertDebt(ctx context.Context, debt models.DebtRecord) error {
	if _, ok := r.u.working.debts[debt.ID]; ok {
		return fmt.Errorf("debt %d already exists", debt.ID)
	}
	r.u.working.debts[debt.ID] = debt
	r.u.working.debtOrder = append(r.u.working.debtOrder, debt.ID)
	return nil
}

func (r *ledgerRepo) GetDebt(ctx context.Context, id uint64) (*models.DebtRecord, error) {
	if debt, ok := r.u.working.debts[id]; ok {
		return &debt, nil
	}
	return nil, nil
}

func (r *ledgerRepo) UpdateDebt(ctx context.Context, debt models.DebtRecord) error {
	if _, ok := r.u.working.debts[debt.ID]; !ok {
		return models.ErrUnknownDebt
	}
	r.u.working.debts[debt.ID] = debt
	return nil
}

func (r *ledgerRepo) ListDebtsByStatus(ctx context.Context, status models.DebtStatus) ([]models.DebtRecord, error) {
	var debts []models.DebtRecord
	for _, id := range r.u.working.debtOrder {
		if debt := r.u.working.debts[id]; debt.Status == status {
			debts = append(debts, debt)
		}
	}
	return debts, nil
}

func (r *ledgerRepo) InsertPotRecord(ctx context.Context, rec models.TokenPotRecord) error {
	r.u.working.potRecords = append(r.u.working.potRecords, rec)
	return nil
}

type registryRepo struct{ u *unitOfWork }

func (r *registryRepo) Add(ctx context.Context, chain models.ChainID, occupancy uint8) error {
	for _, e := range r.u.working.registry {
		if e.chain == chain {
			return nil
		}
	}
	r.u.working.registry = append(r.u.working.registry, regEntry{chain: chain, occupancy: occupancy})
	return nil
}

func (r *registryRepo) Occupancy(ctx context.Context, chain models.ChainID) (uint8, bool, error) {
	for _, e := range r.u.working.registry {
		if e.chain == chain {
			return e.occupancy, true, nil
		}
	}
	return 0, false, nil
}

func (r *registryRepo) Move(ctx context.Context, chain models.ChainID, occupancy uint8) error {
	if err := r.Remove(ctx, chain); err != nil {
		return err
	}
	r.u.working.registry = append(r.u.working.registry, regEntry{chain: chain, occupancy: occupancy})
	return nil
}

func (r *registryRepo) Remove(ctx context.Context, chain models.ChainID) error {
	entries := r.u.working.registry[:0]
	for _, e := range r.u.working.registry {
		if e.chain != chain {
			entries = append(entries, e)
		}
	}
	r.u.working.registry = entries
	return nil
}

func (r *registryRepo) Bucket(ctx context.Context, occupancy uint8) ([]models.ChainID, error) {
	var chains []models.ChainID
	for _, e := range r.u.working.registry {
		if e.occupancy == occupancy {
			chains = append(chains, e.chain)
		}
	}
	return chains, nil
}

type gameRepo struct{ u *unitOfWork }

func (r *gameRepo) Get(ctx context.Context) (*models.BlackjackGame, error) {
	return r.u.working.game, nil
}

func (r *gameRepo) Save(ctx context.Context, game *models.BlackjackGame) error {
	r.u.working.game = game
	return nil
}

type userStateRepo struct{ u *unitOfWork }

func (r *userStateRepo) Get(ctx context.Context) (*models.UserState, error) {
	if r.u.working.userState == nil {
		return models.NewUserState(), nil
	}
	return r.u.working.userState, nil
}

func (r *userStateRepo) Save(ctx context.Context, state *models.UserState) error {
	r.u.working.userState = state
	return nil
}
