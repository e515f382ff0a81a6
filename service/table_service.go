package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"chainjack/config"
	"chainjack/events"
	"chainjack/models"
)

type tableService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config

	nowMicros func() int64
}

// NewTableService creates the play chain table service.
func NewTableService(uowFactory UnitOfWorkFactory, cfg *config.Config) TableService {
	return &tableService{
		uowFactory: uowFactory,
		cfg:        cfg,
		nowMicros:  func() int64 { return time.Now().UnixMicro() },
	}
}

func (s *tableService) HandleSeatRequest(ctx context.Context, from models.ChainID, data models.RequestTableSeatData) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	now := s.nowMicros()
	game, err := uow.Games().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		deck := models.NewShoe(s.cfg.DeckCount, string(s.cfg.ChainID), strconv.FormatInt(now, 10))
		game = models.NewBlackjackGame(deck)
	}

	granted := data.SeatID >= 1 && data.SeatID <= models.MaxPlayers &&
		!game.IsSeatTaken(data.SeatID) &&
		game.Status != models.StatusEnded

	if granted {
		game.RegisterPlayer(data.SeatID, models.NewPlayer(data.SeatID, data.Balance, from))
		if game.Status == models.StatusWaitingForPlayer {
			game.Status = models.StatusWaitingForBets
			game.TimeLimit = now + betWindowMicros
		}
		game.Advance()
		if err := uow.Games().Save(ctx, game); err != nil {
			return fmt.Errorf("failed to save game: %w", err)
		}
	}

	uow.Outbox().Send(from, models.Message{
		Kind: models.MsgRequestTableSeatResult,
		RequestTableSeatResult: &models.RequestTableSeatResult{
			SeatID:  data.SeatID,
			Success: granted,
		},
	})

	if granted {
		snapshot := game.Snapshot()
		uow.Outbox().Emit(models.GameStreamName, models.GameStateEvent{Game: snapshot})
		uow.Events().Publish(events.GameStateChangedEvent{Chain: s.cfg.ChainID, Game: snapshot})

		// Keep every registry's bucket placement current.
		occupancy := uint8(len(game.Players))
		for _, public := range s.cfg.PublicChains {
			uow.Outbox().Send(public, models.Message{
				Kind:            models.MsgUpdatePlayChain,
				UpdatePlayChain: &models.UpdatePlayChainData{Occupancy: occupancy},
			})
		}
	}

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"chain":   s.cfg.ChainID,
		"from":    from,
		"seat":    data.SeatID,
		"granted": granted,
	}).Info("Seat request handled")
	return nil
}

// HandleSubscribe attaches the requesting chain to this table's game
// stream. The transport performs the attachment on the requester's behalf
// when the buffered action flushes.
func (s *tableService) HandleSubscribe(ctx context.Context, from models.ChainID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	uow.Outbox().Subscribe(s.cfg.ChainID, models.GameStreamName, from)

	// Late joiners should not wait for the next transition to see the table.
	game, err := uow.Games().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}
	if game != nil {
		uow.Outbox().Emit(models.GameStreamName, models.GameStateEvent{Game: game.Snapshot()})
	}

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"chain":      s.cfg.ChainID,
		"subscriber": from,
	}).Info("Subscriber attached")
	return nil
}

func (s *tableService) HandleUnsubscribe(ctx context.Context, from models.ChainID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	uow.Outbox().Unsubscribe(s.cfg.ChainID, models.GameStreamName, from)

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"chain":      s.cfg.ChainID,
		"subscriber": from,
	}).Info("Subscriber detached")
	return nil
}
