package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chainjack/events"
	"chainjack/models"
	"chainjack/transport"
)

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) GetAccount(ctx context.Context, owner string) (int64, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) SetAccount(ctx context.Context, owner string, balance int64) error {
	args := m.Called(ctx, owner, balance)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetPool(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) SetPool(ctx context.Context, tokens int64) error {
	args := m.Called(ctx, tokens)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetDailyBonus(ctx context.Context, owner string) (models.DailyBonus, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(models.DailyBonus), args.Error(1)
}

func (m *MockLedgerRepository) SetDailyBonus(ctx context.Context, owner string, bonus models.DailyBonus) error {
	args := m.Called(ctx, owner, bonus)
	return args.Error(0)
}

func (m *MockLedgerRepository) InsertDebt(ctx context.Context, debt models.DebtRecord) error {
	args := m.Called(ctx, debt)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetDebt(ctx context.Context, id uint64) (*models.DebtRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DebtRecord), args.Error(1)
}

func (m *MockLedgerRepository) UpdateDebt(ctx context.Context, debt models.DebtRecord) error {
	args := m.Called(ctx, debt)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListDebtsByStatus(ctx context.Context, status models.DebtStatus) ([]models.DebtRecord, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DebtRecord), args.Error(1)
}

func (m *MockLedgerRepository) InsertPotRecord(ctx context.Context, rec models.TokenPotRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// MockRegistryRepository is a mock implementation of RegistryRepository
type MockRegistryRepository struct {
	mock.Mock
}

func (m *MockRegistryRepository) Add(ctx context.Context, chain models.ChainID, occupancy uint8) error {
	args := m.Called(ctx, chain, occupancy)
	return args.Error(0)
}

func (m *MockRegistryRepository) Occupancy(ctx context.Context, chain models.ChainID) (uint8, bool, error) {
	args := m.Called(ctx, chain)
	return args.Get(0).(uint8), args.Bool(1), args.Error(2)
}

func (m *MockRegistryRepository) Move(ctx context.Context, chain models.ChainID, occupancy uint8) error {
	args := m.Called(ctx, chain, occupancy)
	return args.Error(0)
}

func (m *MockRegistryRepository) Remove(ctx context.Context, chain models.ChainID) error {
	args := m.Called(ctx, chain)
	return args.Error(0)
}

func (m *MockRegistryRepository) Bucket(ctx context.Context, occupancy uint8) ([]models.ChainID, error) {
	args := m.Called(ctx, occupancy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChainID), args.Error(1)
}

// MockGameRepository is a mock implementation of GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) Get(ctx context.Context) (*models.BlackjackGame, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlackjackGame), args.Error(1)
}

func (m *MockGameRepository) Save(ctx context.Context, game *models.BlackjackGame) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

// MockUserStateRepository is a mock implementation of UserStateRepository
type MockUserStateRepository struct {
	mock.Mock
}

func (m *MockUserStateRepository) Get(ctx context.Context) (*models.UserState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserState), args.Error(1)
}

func (m *MockUserStateRepository) Save(ctx context.Context, state *models.UserState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Ledger() LedgerRepository {
	args := m.Called()
	return args.Get(0).(LedgerRepository)
}

func (m *MockUnitOfWork) Registry() RegistryRepository {
	args := m.Called()
	return args.Get(0).(RegistryRepository)
}

func (m *MockUnitOfWork) Games() GameRepository {
	args := m.Called()
	return args.Get(0).(GameRepository)
}

func (m *MockUnitOfWork) UserStates() UserStateRepository {
	args := m.Called()
	return args.Get(0).(UserStateRepository)
}

func (m *MockUnitOfWork) Events() EventPublisher {
	args := m.Called()
	return args.Get(0).(EventPublisher)
}

func (m *MockUnitOfWork) Outbox() transport.Sender {
	args := m.Called()
	return args.Get(0).(transport.Sender)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// NopPublisher drops events; for tests that do not assert on them.
type NopPublisher struct{}

func (NopPublisher) Publish(events.Event) {}
