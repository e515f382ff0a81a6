package models

import "errors"

// Sentinel errors shared across the round, ledger and coordination layers.
// A handler surfacing one of these aborts the whole operation; no partial
// state is committed.
var (
	// ErrInvalidTransition marks an operation called outside the round or
	// user status it requires.
	ErrInvalidTransition = errors.New("operation not allowed in current status")

	// ErrUnauthorized marks a caller chain that is not permitted to perform
	// the operation (master-gated operations, debt origin checks).
	ErrUnauthorized = errors.New("caller chain not authorized")

	// ErrDeckExhausted marks a deal from an empty deck. The refill check is
	// supposed to make this unreachable; hitting it is a bug, not a
	// user-recoverable condition.
	ErrDeckExhausted = errors.New("deck has no cards left")

	// ErrBalanceMismatch marks a profile balance that disagrees with the
	// seated player's tracked balance.
	ErrBalanceMismatch = errors.New("profile and player balance mismatch")

	// ErrBetOutOfRange marks a bet outside the [minBet, maxBet] window.
	ErrBetOutOfRange = errors.New("bet amount outside allowed limits")

	// ErrSeatTaken marks a seat request for an occupied seat.
	ErrSeatTaken = errors.New("seat already taken")

	// ErrInvalidSeat marks a seat id outside the allowed range.
	ErrInvalidSeat = errors.New("seat id out of range")

	// ErrPoolShortfall marks a debt settlement against a pool that cannot
	// cover it. Debts must never be created against an already-insufficient
	// house pool, so this is a backstop invariant.
	ErrPoolShortfall = errors.New("token pool cannot cover owed amount")

	// ErrUnknownDebt marks a debt confirmation for a record that was never
	// created locally.
	ErrUnknownDebt = errors.New("debt record not found")
)
