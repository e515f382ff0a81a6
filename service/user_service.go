package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"chainjack/config"
	"chainjack/events"
	"chainjack/models"
)

const (
	// betWindowMicros is how long the table waits for bets or a turn action.
	betWindowMicros int64 = 60 * 1_000_000
	// roundEndWindowMicros is how long a finished round stays shown before
	// the next one is expected.
	roundEndWindowMicros int64 = 2 * 60 * 1_000_000
)

type userService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config

	nowMicros func() int64
	randInt   func(n int) int
}

// NewUserService creates the user chain service.
func NewUserService(uowFactory UnitOfWorkFactory, cfg *config.Config) UserService {
	return &userService{
		uowFactory: uowFactory,
		cfg:        cfg,
		nowMicros:  func() int64 { return time.Now().UnixMicro() },
		randInt:    rand.Intn,
	}
}

// owner is the ledger account key; a user chain holds exactly one account.
func (s *userService) owner() string {
	return string(s.cfg.ChainID)
}

func (s *userService) GetBalance(ctx context.Context) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	balance, err := creditBalanceWithBonus(ctx, uow, s.cfg, s.owner(), s.nowMicros())
	if err != nil {
		return 0, err
	}

	state, err := uow.UserStates().Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get user state: %w", err)
	}
	state.Profile.UpdateBalance(balance)
	state.Profile.RefreshBetData()
	if err := uow.UserStates().Save(ctx, state); err != nil {
		return 0, fmt.Errorf("failed to save user state: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return balance, nil
}

func (s *userService) State(ctx context.Context) (*models.UserState, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	state, err := uow.UserStates().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	return state, nil
}

func (s *userService) StartSinglePlayerGame(ctx context.Context) error {
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
		return fmt.Errorf("%w: cannot start a game while %s", models.ErrInvalidTransition, state.Status)
	}

	now := s.nowMicros()
	balance, err := creditBalanceWithBonus(ctx, uow, s.cfg, s.owner(), now)
	if err != nil {
		return err
	}
	state.Profile.UpdateBalance(balance)
	state.Profile.RefreshBetData()
	state.Profile.UpdateSeat(0)

	// The shuffle commitment predates the salt: the chain identity is fixed
	// at creation, the salt is the chain time of this invocation.
	deck := models.NewShoe(s.cfg.DeckCount, string(s.cfg.ChainID), strconv.FormatInt(now, 10))
	game := models.NewBlackjackGame(deck)
	player := models.NewPlayer(0, balance, s.cfg.ChainID)
	player.CurrentPlayer = true
	game.RegisterPlayer(0, player)
	game.ActiveSeat = 0
	game.Status = models.StatusWaitingForBets
	game.TimeLimit = now + betWindowMicros
	game.Advance()

	old := state.Status
	state.Status = models.UserInSinglePlayerGame
	state.SinglePlayerGame = game
	if err := uow.UserStates().Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}

	uow.Events().Publish(events.UserStatusChangedEvent{OldStatus: old, NewStatus: state.Status})
	uow.Events().Publish(events.GameStateChangedEvent{Chain: s.cfg.ChainID, Game: game.Snapshot()})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"chain":   s.cfg.ChainID,
		"balance": balance,
	}).Info("Single-player game started")
	return nil
}

func (s *userService) ExitSinglePlayerGame(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	state, err := uow.UserStates().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user state: %w", err)
	}
	game := state.SinglePlayerGame
	if state.Status != models.UserInSinglePlayerGame || game == nil {
		return fmt.Errorf("%w: no single-player game to exit", models.ErrInvalidTransition)
	}
	switch game.Status {
	case models.StatusPlayerTurn, models.StatusDealerTurn:
		return fmt.Errorf("%w: cannot exit mid-round", models.ErrInvalidTransition)
	}

	game.Status = models.StatusEnded
	game.Advance()
	snapshot := game.Snapshot()

	old := state.Status
	state.Status = models.UserIdle
	state.SinglePlayerGame = nil
	state.Profile.RemoveSeat()
	state.Profile.ClearBetData()
	if err := uow.UserStates().Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}

	uow.Events().Publish(events.UserStatusChangedEvent{OldStatus: old, NewStatus: state.Status})
	uow.Events().Publish(events.GameStateChangedEvent{Chain: s.cfg.ChainID, Game: snapshot})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithField("chain", s.cfg.ChainID).Info("Single-player game exited")
	return nil
}

func (s *userService) Bet(ctx context.Context, amount int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	state, game, err := s.activeGame(ctx, uow)
	if err != nil {
		return err
	}
	if game.Status == models.StatusRoundEnded {
		// First bet of the next round reopens the table.
		game.Status = models.StatusWaitingForBets
	}
	if game.Status != models.StatusWaitingForBets {
		return fmt.Errorf("%w: cannot bet while %s", models.ErrInvalidTransition, game.Status)
	}

	if amount != 0 {
		if state.Profile.BetData == nil {
			state.Profile.RefreshBetData()
		}
		bd := state.Profile.BetData
		if amount < bd.MinBet || amount > bd.MaxBet {
			return fmt.Errorf("%w: %d not in [%d, %d]", models.ErrBetOutOfRange, amount, bd.MinBet, bd.MaxBet)
		}
		if err := game.Player(0).AddBet(amount, state.Profile.Balance); err != nil {
			return err
		}
	}

	game.TimeLimit = s.nowMicros() + betWindowMicros
	game.Advance()
	if err := uow.UserStates().Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}
	uow.Events().Publish(events.GameStateChangedEvent{Chain: s.cfg.ChainID, Game: game.Snapshot()})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *userService) DealBet(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	state, game, err := s.activeGame(ctx, uow)
	if err != nil {
		return err
	}
	if game.Status == models.StatusRoundEnded {
		game.Status = models.StatusWaitingForBets
	}
	if game.Status != models.StatusWaitingForBets {
		return fmt.Errorf("%w: cannot deal while %s", models.ErrInvalidTransition, game.Status)
	}

	now := s.nowMicros()
	player := game.Player(0)
	state.Profile.RefreshBetData()

	bet, newBalance, err := player.LockBet(state.Profile.BetData.MinBet, state.Profile.Balance)
	if err != nil {
		return err
	}

	old := state.Profile.Balance
	state.Profile.UpdateBalance(newBalance)
	state.Profile.RefreshBetData()
	if err := uow.Ledger().SetAccount(ctx, s.owner(), newBalance); err != nil {
		return fmt.Errorf("failed to set account: %w", err)
	}
	uow.Events().Publish(events.BalanceChangedEvent{Owner: s.owner(), OldBalance: old, NewBalance: newBalance})

	pool, err := uow.Ledger().GetPool(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pool: %w", err)
	}
	if err := uow.Ledger().SetPool(ctx, pool+bet); err != nil {
		return fmt.Errorf("failed to set pool: %w", err)
	}
	game.Pot += bet

	if err := game.DrawInitialCards(0); err != nil {
		return err
	}
	s.refillDeck(game, now)

	playerNatural := models.IsNatural(player.Hand)
	dealerNatural := models.IsNatural(game.Dealer.Hand)
	switch {
	case playerNatural && dealerNatural:
		err = s.settle(ctx, uow, state, game, models.OutcomeDraw, now)
	case dealerNatural:
		err = s.settle(ctx, uow, state, game, models.OutcomeDealerWins, now)
	case playerNatural:
		err = s.settle(ctx, uow, state, game, models.OutcomePlayerWins, now)
	default:
		game.Status = models.StatusPlayerTurn
		game.TimeLimit = now + betWindowMicros
		game.Advance()
	}
	if err != nil {
		return err
	}

	if err := uow.UserStates().Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}
	uow.Events().Publish(events.GameStateChangedEvent{Chain: s.cfg.ChainID, Game: game.Snapshot()})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"chain": s.cfg.ChainID,
		"bet":   bet,
	}).Info("Initial cards dealt")
	return nil
}

func (s *userService) Hit(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	state, game, err := s.activeGame(ctx, uow)
	if err != nil {
		return err
	}
	if game.Status != models.StatusPlayerTurn {
		return fmt.Errorf("%w: cannot hit while %s", models.ErrInvalidTransition, game.Status)
	}

	now := s.nowMicros()
	player := game.Player(0)
	if err := game.DealCard(&player.Hand); err != nil {
		return err
	}
	s.refillDeck(game, now)

	value := models.HandValue(player.Hand)
	switch {
	case models.IsBust(value):
		err = s.settle(ctx, uow, state, game, models.OutcomeDealerWins, now)
	case value == models.BlackjackTarget:
		err = s.settle(ctx, uow, state, game, models.OutcomePlayerWins, now)
	default:
		game.TimeLimit = now + betWindowMicros
		game.Advance()
	}
	if err != nil {
		return err
	}

	if err := uow.UserStates().Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}
	uow.Events().Publish(events.GameStateChangedEvent{Chain: s.cfg.ChainID, Game: game.Snapshot()})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *userService) Stand(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	state, game, err := s.activeGame(ctx, uow)
	if err != nil {
		return err
	}
	if game.Status != models.StatusPlayerTurn {
		return fmt.Errorf("%w: cannot stand while %s", models.ErrInvalidTransition, game.Status)
	}

	now := s.nowMicros()
	game.Status = models.StatusDealerTurn
	game.Advance()

	for models.HandValue(game.Dealer.Hand) < 17 {
		if err := game.DealCard(&game.Dealer.Hand); err != nil {
			return err
		}
		s.refillDeck(game, now)
	}

	dealerValue := models.HandValue(game.Dealer.Hand)
	playerValue := models.HandValue(game.Player(0).Hand)
	var outcome models.GameOutcome
	switch {
	case models.IsBust(dealerValue):
		outcome = models.OutcomePlayerWins
	case playerValue > dealerValue:
		outcome = models.OutcomePlayerWins
	case dealerValue > playerValue:
		outcome = models.OutcomeDealerWins
	default:
		outcome = models.OutcomeDraw
	}
	if err := s.settle(ctx, uow, state, game, outcome, now); err != nil {
		return err
	}

	if err := uow.UserStates().Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}
	uow.Events().Publish(events.GameStateChangedEvent{Chain: s.cfg.ChainID, Game: game.Snapshot()})

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// activeGame loads the user state and asserts a single-player game is in
// progress.
func (s *userService) activeGame(ctx context.Context, uow UnitOfWork) (*models.UserState, *models.BlackjackGame, error) {
	state, err := uow.UserStates().Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user state: %w", err)
	}
	if state.Status != models.UserInSinglePlayerGame || state.SinglePlayerGame == nil {
		return nil, nil, fmt.Errorf("%w: no single-player game in progress", models.ErrInvalidTransition)
	}
	return state, state.SinglePlayerGame, nil
}

// settle closes the round: pays out of the pool (or sends the pot to the
// house), clears hands and bet, and refreshes the profile for the next
// round.
func (s *userService) settle(ctx context.Context, uow UnitOfWork, state *models.UserState, game *models.BlackjackGame, outcome models.GameOutcome, now int64) error {
	player := game.Player(0)
	bet := player.Bet

	var payout int64
	switch outcome {
	case models.OutcomePlayerWins:
		payout = 2 * bet
	case models.OutcomeDraw:
		payout = bet
	case models.OutcomeDealerWins:
		if err := transferPoolToHouse(ctx, uow, s.cfg); err != nil {
			return err
		}
	}
	if payout > 0 {
		if err := payoutFromPool(ctx, uow, s.cfg, s.owner(), payout, now); err != nil {
			return err
		}
	}

	balance, err := uow.Ledger().GetAccount(ctx, s.owner())
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if balance < 0 {
		balance = 0
	}
	state.Profile.UpdateBalance(balance)
	state.Profile.RefreshBetData()

	player.ResetBet()
	player.Hand = []models.Card{}
	player.Balance = balance
	game.Dealer.Hand = []models.Card{}
	game.Pot = 0
	game.Status = models.StatusRoundEnded
	game.TimeLimit = now + roundEndWindowMicros
	game.Advance()

	log.WithFields(log.Fields{
		"chain":   s.cfg.ChainID,
		"outcome": outcome,
		"bet":     bet,
		"payout":  payout,
	}).Info("Round settled")
	return nil
}

// refillDeck appends a freshly shuffled shoe once the deck runs low, so a
// deal can never hit an empty deck mid-round.
func (s *userService) refillDeck(game *models.BlackjackGame, now int64) {
	if game.Deck.Size() >= s.cfg.DeckRefillFloor {
		return
	}
	salt := strconv.FormatInt(now, 10)
	fresh := models.NewShoe(s.cfg.DeckCount, string(s.cfg.ChainID), salt)
	game.Deck.AddCards(fresh.Cards, salt)
	log.WithFields(log.Fields{
		"chain": s.cfg.ChainID,
		"size":  game.Deck.Size(),
	}).Info("Deck refilled")
}
