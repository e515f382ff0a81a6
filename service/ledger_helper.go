package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"chainjack/config"
	"chainjack/events"
	"chainjack/models"
)

// creditBalanceWithBonus reads an owner's balance inside the given unit of
// work, creating the account with the configured starting balance on first
// touch and crediting the daily bonus if its window has elapsed.
func creditBalanceWithBonus(ctx context.Context, uow UnitOfWork, cfg *config.Config, owner string, nowMicros int64) (int64, error) {
	balance, err := uow.Ledger().GetAccount(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}

	created := false
	if balance < 0 {
		balance = cfg.StartingBalance
		created = true
	}

	bonus, err := uow.Ledger().GetDailyBonus(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to get daily bonus: %w", err)
	}
	bonus.UpdateBonus(cfg.DailyBonus)

	credit := bonus.Claim(nowMicros)
	if credit == 0 && !created {
		return balance, nil
	}

	old := balance
	balance += credit
	if err := uow.Ledger().SetAccount(ctx, owner, balance); err != nil {
		return 0, fmt.Errorf("failed to set account: %w", err)
	}
	if err := uow.Ledger().SetDailyBonus(ctx, owner, bonus); err != nil {
		return 0, fmt.Errorf("failed to set daily bonus: %w", err)
	}

	if credit > 0 {
		log.WithFields(log.Fields{
			"owner":  owner,
			"credit": credit,
		}).Info("Daily bonus credited")
		uow.Events().Publish(events.BalanceChangedEvent{
			Owner:      owner,
			OldBalance: old,
			NewBalance: balance,
		})
	}
	return balance, nil
}

// payoutFromPool pays a winning (or returned) amount to an owner's account.
// The player is always paid in full; if the local pool cannot cover the
// amount, the shortfall becomes a pending debt owed by the pool-owning chain
// and a debt notification is sent there.
func payoutFromPool(ctx context.Context, uow UnitOfWork, cfg *config.Config, owner string, amount int64, nowMicros int64) error {
	if amount <= 0 {
		return nil
	}

	balance, err := uow.Ledger().GetAccount(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if balance < 0 {
		balance = 0
	}
	if err := uow.Ledger().SetAccount(ctx, owner, balance+amount); err != nil {
		return fmt.Errorf("failed to set account: %w", err)
	}
	uow.Events().Publish(events.BalanceChangedEvent{
		Owner:      owner,
		OldBalance: balance,
		NewBalance: balance + amount,
	})

	pool, err := uow.Ledger().GetPool(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pool: %w", err)
	}

	covered := amount
	if pool < amount {
		covered = pool
	}
	if err := uow.Ledger().SetPool(ctx, pool-covered); err != nil {
		return fmt.Errorf("failed to set pool: %w", err)
	}

	shortfall := amount - covered
	if shortfall == 0 {
		return nil
	}

	debt := models.NewDebtRecord(cfg.HouseChain, shortfall, nowMicros)
	if err := uow.Ledger().InsertDebt(ctx, debt); err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}
	uow.Outbox().Send(cfg.HouseChain, models.Message{
		Kind: models.MsgDebtNotif,
		DebtNotif: &models.DebtNotifData{
			DebtID:    debt.ID,
			Amount:    debt.Amount,
			CreatedAt: debt.CreatedAt,
		},
	})

	log.WithFields(log.Fields{
		"debt_id":   debt.ID,
		"shortfall": shortfall,
		"house":     cfg.HouseChain,
	}).Warn("Pool shortfall, debt recorded")
	return nil
}

// transferPoolToHouse drains the local pool to the pool-owning chain after a
// dealer win. The whole pool moves so no round residue accumulates locally.
func transferPoolToHouse(ctx context.Context, uow UnitOfWork, cfg *config.Config) error {
	pool, err := uow.Ledger().GetPool(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pool: %w", err)
	}
	if pool == 0 {
		return nil
	}
	if err := uow.Ledger().SetPool(ctx, 0); err != nil {
		return fmt.Errorf("failed to set pool: %w", err)
	}
	uow.Outbox().Send(cfg.HouseChain, models.Message{
		Kind:     models.MsgTokenPot,
		TokenPot: &models.TokenPotData{Amount: pool},
	})
	return nil
}
