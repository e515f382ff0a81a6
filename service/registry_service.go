package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"chainjack/config"
	"chainjack/models"
)

type registryService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewRegistryService creates the public chain registry service.
func NewRegistryService(uowFactory UnitOfWorkFactory, cfg *config.Config) RegistryService {
	return &registryService{uowFactory: uowFactory, cfg: cfg}
}

func (s *registryService) HandleAddPlayChain(ctx context.Context, from models.ChainID, data models.AddPlayChainData) error {
	if from != s.cfg.MasterChain {
		return fmt.Errorf("%w: play chain registration is reserved to the master chain", models.ErrUnauthorized)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	// Fresh tables start with every seat free.
	if err := uow.Registry().Add(ctx, data.Chain, 0); err != nil {
		return fmt.Errorf("failed to register play chain: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"chain": s.cfg.ChainID,
		"play":  data.Chain,
	}).Info("Play chain registered")
	return nil
}

func (s *registryService) HandleUpdatePlayChain(ctx context.Context, from models.ChainID, data models.UpdatePlayChainData) error {
	if data.Occupancy > models.MaxPlayers {
		return fmt.Errorf("occupancy %d exceeds table size %d", data.Occupancy, models.MaxPlayers)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	_, tracked, err := uow.Registry().Occupancy(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to get occupancy: %w", err)
	}
	if !tracked {
		// Only chains the master registered may report occupancy.
		return fmt.Errorf("%w: play chain %s is not registered", models.ErrUnauthorized, from)
	}
	if err := uow.Registry().Move(ctx, from, data.Occupancy); err != nil {
		return fmt.Errorf("failed to move play chain: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"play":      from,
		"occupancy": data.Occupancy,
	}).Info("Play chain occupancy updated")
	return nil
}

func (s *registryService) HandleFindPlayChain(ctx context.Context, from models.ChainID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	// Lowest occupied-but-not-full bucket first, oldest registration wins.
	var found models.ChainID
	for occupancy := uint8(0); occupancy < models.MaxPlayers; occupancy++ {
		bucket, err := uow.Registry().Bucket(ctx, occupancy)
		if err != nil {
			return fmt.Errorf("failed to list bucket: %w", err)
		}
		if len(bucket) > 0 {
			found = bucket[0]
			break
		}
	}

	uow.Outbox().Send(from, models.Message{
		Kind:                models.MsgFindPlayChainResult,
		FindPlayChainResult: &models.FindPlayChainResult{Chain: found},
	})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"requester": from,
		"found":     found,
	}).Debug("Play chain lookup answered")
	return nil
}
