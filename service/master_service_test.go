package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chainjack/config"
	"chainjack/models"
)

// newMockUnit wires a MockUnitOfWork through a MockUnitOfWorkFactory with the
// transaction and event expectations every handler needs.
func newMockUnit() (*MockUnitOfWorkFactory, *MockUnitOfWork) {
	uow := new(MockUnitOfWork)
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Rollback").Return(nil)
	uow.On("Events").Return(NopPublisher{}).Maybe()

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)
	return factory, uow
}

func TestMasterAddPlayChain_SendsRegistration(t *testing.T) {
	factory, uow := newMockUnit()
	rec := &recorder{}
	uow.On("Outbox").Return(rec)
	uow.On("Commit", mock.Anything).Return(nil)

	cfg := testConfig("master", config.RoleMaster)
	svc := NewMasterService(factory, cfg, NewLedgerService(factory, cfg))

	require.NoError(t, svc.AddPlayChain(context.Background(), "public-1", "play-1"))

	sent := rec.sentOfKind(models.MsgAddPlayChain)
	require.Len(t, sent, 1)
	assert.Equal(t, models.ChainID("public-1"), sent[0].dest)
	assert.Equal(t, models.ChainID("play-1"), sent[0].msg.AddPlayChain.Chain)
	uow.AssertExpectations(t)
}

func TestMasterAddPlayChain_NonMasterRejected(t *testing.T) {
	factory := new(MockUnitOfWorkFactory)
	cfg := testConfig("user-1", config.RoleUser)
	svc := NewMasterService(factory, cfg, NewLedgerService(factory, cfg))

	err := svc.AddPlayChain(context.Background(), "public-1", "play-1")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	factory.AssertNotCalled(t, "Create")
}

func TestMasterMintToken_DelegatesToLedger(t *testing.T) {
	factory, uow := newMockUnit()
	rec := &recorder{}
	uow.On("Outbox").Return(rec)
	uow.On("Commit", mock.Anything).Return(nil)

	cfg := testConfig("master", config.RoleMaster)
	svc := NewMasterService(factory, cfg, NewLedgerService(factory, cfg))

	require.NoError(t, svc.MintToken(context.Background(), "house", 2500))

	sent := rec.sentOfKind(models.MsgReceivedToken)
	require.Len(t, sent, 1)
	assert.Equal(t, models.ChainID("house"), sent[0].dest)
	assert.Equal(t, int64(2500), sent[0].msg.ReceivedToken.Amount)
}

// A repository failure must surface as an error without ever committing.
func TestRepositoryErrorAbortsUnitOfWork(t *testing.T) {
	ctx := context.Background()
	repoErr := errors.New("connection reset")

	t.Run("ledger pool read", func(t *testing.T) {
		factory, uow := newMockUnit()
		ledger := new(MockLedgerRepository)
		ledger.On("GetPool", mock.Anything).Return(int64(0), repoErr)
		uow.On("Ledger").Return(ledger)

		svc := NewLedgerService(factory, testConfig("house", config.RoleUser))
		err := svc.HandleReceivedToken(ctx, "master", models.ReceivedTokenData{Amount: 100})
		assert.ErrorIs(t, err, repoErr)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("registry occupancy read", func(t *testing.T) {
		factory, uow := newMockUnit()
		registry := new(MockRegistryRepository)
		registry.On("Occupancy", mock.Anything, models.ChainID("play-1")).Return(uint8(0), false, repoErr)
		uow.On("Registry").Return(registry)

		svc := NewRegistryService(factory, testConfig("public-1", config.RolePublic))
		err := svc.HandleUpdatePlayChain(ctx, "play-1", models.UpdatePlayChainData{Occupancy: 1})
		assert.ErrorIs(t, err, repoErr)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("game load", func(t *testing.T) {
		factory, uow := newMockUnit()
		games := new(MockGameRepository)
		games.On("Get", mock.Anything).Return(nil, repoErr)
		uow.On("Games").Return(games)

		svc := NewTableService(factory, testConfig("play-1", config.RolePlay))
		err := svc.HandleSeatRequest(ctx, "user-1", models.RequestTableSeatData{SeatID: 1, Balance: 1000})
		assert.ErrorIs(t, err, repoErr)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("user state load", func(t *testing.T) {
		factory, uow := newMockUnit()
		states := new(MockUserStateRepository)
		states.On("Get", mock.Anything).Return(nil, repoErr)
		uow.On("UserStates").Return(states)

		svc := NewUserService(factory, testConfig("user-1", config.RoleUser))
		_, err := svc.State(ctx)
		assert.ErrorIs(t, err, repoErr)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})
}
