package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"chainjack/config"
	"chainjack/events"
	"chainjack/models"
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config

	nowMicros func() int64
}

// NewLedgerService creates the token protocol service.
func NewLedgerService(uowFactory UnitOfWorkFactory, cfg *config.Config) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		cfg:        cfg,
		nowMicros:  func() int64 { return time.Now().UnixMicro() },
	}
}

func (s *ledgerService) MintToken(ctx context.Context, target models.ChainID, amount int64) error {
	if s.cfg.ChainID != s.cfg.MasterChain {
		return fmt.Errorf("%w: minting is reserved to the master chain", models.ErrUnauthorized)
	}
	if amount <= 0 {
		return fmt.Errorf("mint amount must be positive, got %d", amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	uow.Outbox().Send(target, models.Message{
		Kind:          models.MsgReceivedToken,
		ReceivedToken: &models.ReceivedTokenData{Amount: amount},
	})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"target": target,
		"amount": amount,
	}).Info("Tokens minted")
	return nil
}

func (s *ledgerService) HandleReceivedToken(ctx context.Context, from models.ChainID, data models.ReceivedTokenData) error {
	if data.Amount <= 0 {
		return fmt.Errorf("received token amount must be positive, got %d", data.Amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	pool, err := uow.Ledger().GetPool(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pool: %w", err)
	}
	if err := uow.Ledger().SetPool(ctx, pool+data.Amount); err != nil {
		return fmt.Errorf("failed to set pool: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"from":   from,
		"amount": data.Amount,
		"pool":   pool + data.Amount,
	}).Info("Tokens received")
	return nil
}

func (s *ledgerService) HandleTokenPot(ctx context.Context, from models.ChainID, data models.TokenPotData) error {
	if data.Amount <= 0 {
		return fmt.Errorf("pot amount must be positive, got %d", data.Amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	pool, err := uow.Ledger().GetPool(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pool: %w", err)
	}
	if err := uow.Ledger().SetPool(ctx, pool+data.Amount); err != nil {
		return fmt.Errorf("failed to set pool: %w", err)
	}

	now := s.nowMicros()
	rec := models.TokenPotRecord{
		ID:          uint64(now),
		OriginChain: from,
		Amount:      data.Amount,
		CreatedAt:   now,
	}
	if err := uow.Ledger().InsertPotRecord(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert pot record: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"from":   from,
		"amount": data.Amount,
	}).Info("Round pot received")
	return nil
}

// HandleDebtNotif settles a shortfall out of the local pool. The pool must
// cover the owed amount: a house that cannot honor its debts is an invariant
// violation, not a retryable condition.
func (s *ledgerService) HandleDebtNotif(ctx context.Context, from models.ChainID, data models.DebtNotifData) error {
	if data.Amount <= 0 {
		return fmt.Errorf("debt amount must be positive, got %d", data.Amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	pool, err := uow.Ledger().GetPool(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pool: %w", err)
	}
	if pool < data.Amount {
		return fmt.Errorf("%w: pool %d cannot cover debt %d", models.ErrPoolShortfall, pool, data.Amount)
	}
	if err := uow.Ledger().SetPool(ctx, pool-data.Amount); err != nil {
		return fmt.Errorf("failed to set pool: %w", err)
	}

	now := s.nowMicros()
	debt := models.DebtRecord{
		ID:          data.DebtID,
		OriginChain: from,
		Amount:      data.Amount,
		CreatedAt:   data.CreatedAt,
		Status:      models.DebtPending,
	}
	debt.MarkPaid(now)
	if err := uow.Ledger().InsertDebt(ctx, debt); err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}

	uow.Outbox().Send(from, models.Message{
		Kind: models.MsgDebtPaid,
		DebtPaid: &models.DebtPaidData{
			DebtID: data.DebtID,
			Amount: data.Amount,
			PaidAt: now,
		},
	})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"from":    from,
		"debt_id": data.DebtID,
		"amount":  data.Amount,
	}).Info("Debt settled from pool")
	return nil
}

func (s *ledgerService) HandleDebtPaid(ctx context.Context, from models.ChainID, data models.DebtPaidData) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	debt, err := uow.Ledger().GetDebt(ctx, data.DebtID)
	if err != nil {
		return fmt.Errorf("failed to get debt: %w", err)
	}
	if debt == nil {
		return fmt.Errorf("%w: debt %d", models.ErrUnknownDebt, data.DebtID)
	}
	if debt.Status == models.DebtSettled {
		// Duplicate confirmation.
		return nil
	}

	// The player was already paid in full at payout time and the house pool
	// covered the shortfall on DebtNotif. This confirmation only closes the
	// mirrored record; moving tokens here would create them from nothing.
	debt.MarkPaid(data.PaidAt)
	if err := uow.Ledger().UpdateDebt(ctx, *debt); err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}

	uow.Events().Publish(events.DebtSettledEvent{DebtID: data.DebtID, Amount: data.Amount})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"from":    from,
		"debt_id": data.DebtID,
		"amount":  data.Amount,
	}).Info("Debt settlement confirmed")
	return nil
}
