package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainjack/config"
	"chainjack/models"
)

type ledgerFixture struct {
	svc     *ledgerService
	factory *fakeFactory
	now     int64
}

func newLedgerFixture(chain models.ChainID, role config.Role) *ledgerFixture {
	factory := newFakeFactory()
	cfg := testConfig(chain, role)
	svc := NewLedgerService(factory, cfg).(*ledgerService)

	fx := &ledgerFixture{svc: svc, factory: factory, now: 1_756_000_000_000_000}
	svc.nowMicros = func() int64 { return fx.now }
	return fx
}

func TestMintToken_MasterOnly(t *testing.T) {
	fx := newLedgerFixture("master", config.RoleMaster)

	require.NoError(t, fx.svc.MintToken(context.Background(), "house", 5000))
	sent := fx.factory.rec().sentOfKind(models.MsgReceivedToken)
	require.Len(t, sent, 1)
	assert.Equal(t, models.ChainID("house"), sent[0].dest)
	assert.Equal(t, int64(5000), sent[0].msg.ReceivedToken.Amount)

	err := fx.svc.MintToken(context.Background(), "house", 0)
	assert.Error(t, err)

	imposter := newLedgerFixture("user-1", config.RoleUser)
	err = imposter.svc.MintToken(context.Background(), "house", 5000)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Empty(t, imposter.factory.rec().sent)
}

func TestHandleReceivedToken_CreditsPool(t *testing.T) {
	fx := newLedgerFixture("house", config.RoleUser)
	fx.factory.state().pool = 100

	data := models.ReceivedTokenData{Amount: 5000}
	require.NoError(t, fx.svc.HandleReceivedToken(context.Background(), "master", data))
	assert.Equal(t, int64(5100), fx.factory.state().pool)

	err := fx.svc.HandleReceivedToken(context.Background(), "master", models.ReceivedTokenData{Amount: -1})
	assert.Error(t, err)
	assert.Equal(t, int64(5100), fx.factory.state().pool)
}

func TestHandleTokenPot_CreditsPoolAndRecords(t *testing.T) {
	fx := newLedgerFixture("house", config.RoleUser)

	data := models.TokenPotData{Amount: 1500}
	require.NoError(t, fx.svc.HandleTokenPot(context.Background(), "user-1", data))

	state := fx.factory.state()
	assert.Equal(t, int64(1500), state.pool)
	require.Len(t, state.pots, 1)
	assert.Equal(t, models.ChainID("user-1"), state.pots[0].OriginChain)
	assert.Equal(t, int64(1500), state.pots[0].Amount)
}

func TestHandleDebtNotif_SettlesFromPool(t *testing.T) {
	fx := newLedgerFixture("house", config.RoleUser)
	fx.factory.state().pool = 5000

	data := models.DebtNotifData{DebtID: 42, Amount: 2000, CreatedAt: fx.now - 100}
	require.NoError(t, fx.svc.HandleDebtNotif(context.Background(), "user-1", data))

	state := fx.factory.state()
	assert.Equal(t, int64(3000), state.pool)
	require.Contains(t, state.debts, uint64(42))
	assert.Equal(t, models.DebtSettled, state.debts[42].Status)
	require.NotNil(t, state.debts[42].PaidAt)

	paid := fx.factory.rec().sentOfKind(models.MsgDebtPaid)
	require.Len(t, paid, 1)
	assert.Equal(t, models.ChainID("user-1"), paid[0].dest)
	assert.Equal(t, uint64(42), paid[0].msg.DebtPaid.DebtID)
	assert.Equal(t, int64(2000), paid[0].msg.DebtPaid.Amount)
}

func TestHandleDebtNotif_InsufficientPoolIsFatal(t *testing.T) {
	fx := newLedgerFixture("house", config.RoleUser)
	fx.factory.state().pool = 1000

	data := models.DebtNotifData{DebtID: 42, Amount: 2000, CreatedAt: fx.now - 100}
	err := fx.svc.HandleDebtNotif(context.Background(), "user-1", data)
	assert.ErrorIs(t, err, models.ErrPoolShortfall)
	assert.Equal(t, int64(1000), fx.factory.state().pool)
	assert.Empty(t, fx.factory.rec().sentOfKind(models.MsgDebtPaid))
}

func TestHandleDebtPaid_ClosesDebtWithoutMovingTokens(t *testing.T) {
	fx := newLedgerFixture("user-1", config.RoleUser)
	debt := models.NewDebtRecord("house", 2000, fx.now-500)
	fx.factory.state().debts[debt.ID] = debt
	fx.factory.state().debtOrder = append(fx.factory.state().debtOrder, debt.ID)

	data := models.DebtPaidData{DebtID: debt.ID, Amount: 2000, PaidAt: fx.now}
	require.NoError(t, fx.svc.HandleDebtPaid(context.Background(), "house", data))

	// The confirmation is bookkeeping only: the shortfall tokens were paid to
	// the player at payout time and the house pool was debited on DebtNotif.
	state := fx.factory.state()
	assert.Zero(t, state.pool)
	assert.Equal(t, models.DebtSettled, state.debts[debt.ID].Status)
	require.NotNil(t, state.debts[debt.ID].PaidAt)

	// A duplicate confirmation is a no-op.
	require.NoError(t, fx.svc.HandleDebtPaid(context.Background(), "house", data))
	assert.Zero(t, state.pool)
}

func TestHandleDebtNotif_RejectsNonPositiveAmount(t *testing.T) {
	fx := newLedgerFixture("house", config.RoleUser)
	fx.factory.state().pool = 5000

	for _, amount := range []int64{0, -1000} {
		data := models.DebtNotifData{DebtID: 42, Amount: amount, CreatedAt: fx.now - 100}
		err := fx.svc.HandleDebtNotif(context.Background(), "user-1", data)
		assert.Error(t, err)
	}

	state := fx.factory.state()
	assert.Equal(t, int64(5000), state.pool)
	assert.Empty(t, state.debts)
	assert.Empty(t, fx.factory.rec().sentOfKind(models.MsgDebtPaid))
}

// TestDebtCycleConservesTokens drives a shortfall payout through the whole
// debt cycle across a user and a house fixture. The sum of all balances and
// pools must come back to the pre-payout total once the debt is settled, with
// nothing left pending.
func TestDebtCycleConservesTokens(t *testing.T) {
	ctx := context.Background()
	user := newLedgerFixture("user-1", config.RoleUser)
	house := newLedgerFixture("house", config.RoleUser)

	user.factory.state().accounts["user-1"] = 100_500
	user.factory.state().pool = 1000
	house.factory.state().pool = 5000
	total := int64(100_500 + 1000 + 5000)

	// A 2000 payout against a 1000 pool: paid in full, 1000 becomes debt.
	uow := user.factory.Create()
	require.NoError(t, uow.Begin(ctx))
	cfg := testConfig("user-1", config.RoleUser)
	require.NoError(t, payoutFromPool(ctx, uow, cfg, "user-1", 2000, user.now))
	require.NoError(t, uow.Commit(ctx))

	assert.Equal(t, int64(102_500), user.factory.state().accounts["user-1"])
	assert.Zero(t, user.factory.state().pool)
	require.Len(t, user.factory.state().pendingDebts(), 1)

	notifs := user.factory.rec().sentOfKind(models.MsgDebtNotif)
	require.Len(t, notifs, 1)
	require.Equal(t, models.ChainID("house"), notifs[0].dest)
	require.NoError(t, house.svc.HandleDebtNotif(ctx, "user-1", *notifs[0].msg.DebtNotif))

	paid := house.factory.rec().sentOfKind(models.MsgDebtPaid)
	require.Len(t, paid, 1)
	require.NoError(t, user.svc.HandleDebtPaid(ctx, "house", *paid[0].msg.DebtPaid))

	assert.Empty(t, user.factory.state().pendingDebts())
	settled := total -
		user.factory.state().accounts["user-1"] -
		user.factory.state().pool -
		house.factory.state().pool
	assert.Zero(t, settled, "settlement must not mint or burn tokens")
}

func TestHandleDebtPaid_UnknownDebt(t *testing.T) {
	fx := newLedgerFixture("user-1", config.RoleUser)

	data := models.DebtPaidData{DebtID: 7, Amount: 100, PaidAt: fx.now}
	err := fx.svc.HandleDebtPaid(context.Background(), "house", data)
	assert.ErrorIs(t, err, models.ErrUnknownDebt)
	assert.Zero(t, fx.factory.state().pool)
}
