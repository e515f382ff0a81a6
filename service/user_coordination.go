package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"chainjack/events"
	"chainjack/models"
)

// Client side of the chain coordination protocol: discovery, seat requests
// and snapshot mirroring.

func (s *userService) FindPlayChain(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	state, err := uow.UserStates().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user state: %w", err)
	}
	switch state.Status {
	case models.UserInSinglePlayerGame, models.UserInMultiPlayerGame, models.UserRequestingTableSeat:
		return fmt.Errorf("%w: cannot search for a table while %s", models.ErrInvalidTransition, state.Status)
	}

	target := s.pickPublicChain("")
	old := state.Status
	state.Status = models.UserFindPlayChain
	state.FindRetry = 0
	state.PlayChain = ""
	if err := uow.UserStates().Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}

	uow.Outbox().Send(target, models.Message{Kind: models.MsgFindPlayChain})
	uow.Events().Publish(events.UserStatusChangedEvent{OldStatus: old, NewStatus: state.Status})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"chain":  s.cfg.ChainID,
		"public": target,
	}).Info("Play chain discovery started")
	return nil
}

func (s *userService) HandleFindPlayChainResult(ctx context.Context, from models.ChainID, result models.FindPlayChainResult) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	state, err := uow.UserStates().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user state: %w", err)
	}
	if state.Status != models.UserFindPlayChain {
		// Stale reply after the user moved on.
		return nil
	}

	old := state.Status
	if result.Chain != "" {
		state.Status = models.UserPlayChainFound
		state.PlayChain = result.Chain
		state.FindRetry = 0
		// Mirror the table's stream right away so the user sees the game
		// before taking a seat.
		uow.Outbox().Send(result.Chain, models.Message{Kind: models.MsgSubscribe})
	} else if state.FindRetry >= uint8(s.cfg.FindChainRetries) {
		state.Status = models.UserPlayChainUnavailable
		state.FindRetry = 0
	} else {
		state.FindRetry++
		target := s.pickPublicChain(from)
		uow.Outbox().Send(target, models.Message{Kind: models.MsgFindPlayChain})
	}

	if err := uow.UserStates().Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}
	if state.Status != old {
		uow.Events().Publish(events.UserStatusChangedEvent{OldStatus: old, NewStatus: state.Status})
	}

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"chain":  s.cfg.ChainID,
		"found":  result.Chain,
		"status": state.Status,
	}).Info("Play chain discovery result")
	return nil
}

func (s *userService) RequestTableSeat(ctx context.Context, seatID uint8) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	state, err := uow.UserStates().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user state: %w", err)
	}
	if state.Status != models.UserPlayChainFound && state.Status != models.UserRequestTableSeatFail {
		return fmt.Errorf("%w: no play chain to request a seat from while %s", models.ErrInvalidTransition, state.Status)
	}
	if seatID == 0 || seatID > models.MaxPlayers {
		return fmt.Errorf("%w: seat %d", models.ErrInvalidSeat, seatID)
	}

	balance, err := creditBalanceWithBonus(ctx, uow, s.cfg, s.owner(), s.nowMicros())
	if err != nil {
		return err
	}
	state.Profile.UpdateBalance(balance)
	state.Profile.RefreshBetData()

	old := state.Status
	state.Status = models.UserRequestingTableSeat
	if err := uow.UserStates().Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}

	uow.Outbox().Send(state.PlayChain, models.Message{
		Kind: models.MsgRequestTableSeat,
		RequestTableSeat: &models.RequestTableSeatData{
			SeatID:  seatID,
			Balance: balance,
		},
	})
	uow.Events().Publish(events.UserStatusChangedEvent{OldStatus: old, NewStatus: state.Status})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"chain": s.cfg.ChainID,
		"play":  state.PlayChain,
		"seat":  seatID,
	}).Info("Table seat requested")
	return nil
}

func (s *userService) HandleRequestTableSeatResult(ctx context.Context, from models.ChainID, result models.RequestTableSeatResult) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	state, err := uow.UserStates().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user state: %w", err)
	}
	if state.Status != models.UserRequestingTableSeat {
		return nil
	}

	old := state.Status
	if result.Success {
		state.Status = models.UserInMultiPlayerGame
		state.Profile.UpdateSeat(result.SeatID)
	} else {
		state.Status = models.UserRequestTableSeatFail
	}
	if err := uow.UserStates().Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}
	uow.Events().Publish(events.UserStatusChangedEvent{OldStatus: old, NewStatus: state.Status})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"chain":   s.cfg.ChainID,
		"seat":    result.SeatID,
		"success": result.Success,
	}).Info("Table seat result")
	return nil
}

func (s *userService) SubscribeTo(ctx context.Context, chain models.ChainID) error {
	return s.sendControl(ctx, chain, models.MsgSubscribe)
}

func (s *userService) UnsubscribeFrom(ctx context.Context, chain models.ChainID) error {
	return s.sendControl(ctx, chain, models.MsgUnsubscribe)
}

func (s *userService) sendControl(ctx context.Context, chain models.ChainID, kind models.MessageKind) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	uow.Outbox().Send(chain, models.Message{Kind: kind})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// HandleGameState mirrors a play chain's published snapshot into the local
// read-only register.
func (s *userService) HandleGameState(ctx context.Context, from models.ChainID, event models.GameStateEvent) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	state, err := uow.UserStates().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user state: %w", err)
	}

	// Out-of-order deliveries must not roll the mirror back.
	if state.MirroredGame != nil && event.Game.Sequence <= state.MirroredGame.Sequence {
		return nil
	}
	game := event.Game
	state.MirroredGame = &game
	if err := uow.UserStates().Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}
	uow.Events().Publish(events.GameStateChangedEvent{Chain: from, Game: game})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// pickPublicChain selects a random configured public chain, avoiding the one
// that just came up empty when there is a choice.
func (s *userService) pickPublicChain(exclude models.ChainID) models.ChainID {
	candidates := s.cfg.PublicChains
	if exclude != "" && len(candidates) > 1 {
		filtered := make([]models.ChainID, 0, len(candidates)-1)
		for _, c := range candidates {
			if c != exclude {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}
	return candidates[s.randInt(len(candidates))]
}
