package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"chainjack/config"
	"chainjack/models"
)

type masterService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	ledger     LedgerService
}

// NewMasterService creates the master chain admin service.
func NewMasterService(uowFactory UnitOfWorkFactory, cfg *config.Config, ledger LedgerService) MasterService {
	return &masterService{uowFactory: uowFactory, cfg: cfg, ledger: ledger}
}

func (s *masterService) AddPlayChain(ctx context.Context, targetPublic, playChain models.ChainID) error {
	if s.cfg.ChainID != s.cfg.MasterChain {
		return fmt.Errorf("%w: play chain registration is reserved to the master chain", models.ErrUnauthorized)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	uow.Outbox().Send(targetPublic, models.Message{
		Kind:         models.MsgAddPlayChain,
		AddPlayChain: &models.AddPlayChainData{Chain: playChain},
	})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"public": targetPublic,
		"play":   playChain,
	}).Info("Play chain registration sent")
	return nil
}

func (s *masterService) MintToken(ctx context.Context, target models.ChainID, amount int64) error {
	return s.ledger.MintToken(ctx, target, amount)
}
