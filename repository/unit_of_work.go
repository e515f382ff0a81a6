package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"chainjack/database"
	"chainjack/events"
	"chainjack/models"
	"chainjack/service"
	"chainjack/transport"
)

// queryable is the subset of pgx shared by pools and transactions, so the
// same repository code runs inside and outside a unit of work.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UnitOfWork implements service.UnitOfWork over a single pgx transaction.
// All repositories it hands out share that transaction, and the event bus
// and transport outbox it carries are flushed only after the commit.
type UnitOfWork struct {
	db      *database.DB
	chainID models.ChainID
	tx      pgx.Tx

	ledger     *pgLedgerRepository
	registry   *pgRegistryRepository
	games      *pgGameRepository
	userStates *pgUserStateRepository

	eventBus *events.TransactionalBus
	outbox   *transport.Outbox
}

// Begin starts the transaction and binds the repositories to it.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("unit of work already started")
	}
	tx, err := u.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	u.tx = tx
	u.ledger = &pgLedgerRepository{q: tx, chainID: u.chainID}
	u.registry = &pgRegistryRepository{q: tx, chainID: u.chainID}
	u.games = &pgGameRepository{q: tx, chainID: u.chainID}
	u.userStates = &pgUserStateRepository{q: tx, chainID: u.chainID}
	return nil
}

// Commit commits the transaction, then flushes buffered events and outbound
// messages, in that order. A failed commit leaves both buffers discarded.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return fmt.Errorf("unit of work not started")
	}
	if err := u.tx.Commit(ctx); err != nil {
		u.eventBus.Discard()
		u.outbox.Discard()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil
	u.eventBus.Flush(ctx)
	if err := u.outbox.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush outbox: %w", err)
	}
	return nil
}

// Rollback aborts the transaction and drops buffered events and messages.
// Safe to defer after a successful Commit.
func (u *UnitOfWork) Rollback() error {
	u.eventBus.Discard()
	u.outbox.Discard()
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback(context.Background())
	u.tx = nil
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (u *UnitOfWork) Ledger() service.LedgerRepository         { return u.ledger }
func (u *UnitOfWork) Registry() service.RegistryRepository     { return u.registry }
func (u *UnitOfWork) Games() service.GameRepository            { return u.games }
func (u *UnitOfWork) UserStates() service.UserStateRepository  { return u.userStates }
func (u *UnitOfWork) Events() service.EventPublisher           { return u.eventBus }
func (u *UnitOfWork) Outbox() transport.Sender                 { return u.outbox }

// UnitOfWorkFactory creates postgres-backed units of work scoped to one
// chain identity.
type UnitOfWorkFactory struct {
	db        *database.DB
	chainID   models.ChainID
	bus       *events.Bus
	transport transport.Transport
}

func NewUnitOfWorkFactory(db *database.DB, chainID models.ChainID, bus *events.Bus, tp transport.Transport) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db, chainID: chainID, bus: bus, transport: tp}
}

func (f *UnitOfWorkFactory) Create() service.UnitOfWork {
	return &UnitOfWork{
		db:       f.db,
		chainID:  f.chainID,
		eventBus: events.NewTransactionalBus(f.bus),
		outbox:   transport.NewOutbox(f.transport),
	}
}
