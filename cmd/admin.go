package cmd

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"chainjack/chain"
	"chainjack/config"
	"chainjack/database"
	"chainjack/events"
	"chainjack/models"
	"chainjack/repository"
	"chainjack/transport"
)

// RunAdmin executes a one-shot master chain operation and exits. The process
// must be configured as the master chain; the commands fail with
// ErrUnauthorized otherwise.
func RunAdmin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: chainjack admin [add-chain|mint] [args...]")
	}

	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	nats := transport.NewNATSTransport(cfg.NATSServers, cfg.ChainID)
	if err := nats.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nats.Close()

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, cfg.ChainID, eventBus, nats)
	node := chain.NewNode(cfg, nats, uowFactory)
	if node.Master() == nil {
		return fmt.Errorf("admin commands require CHAIN_ROLE=master")
	}

	switch args[0] {
	case "add-chain":
		if len(args) != 3 {
			return fmt.Errorf("usage: chainjack admin add-chain <public-chain> <play-chain>")
		}
		public := models.ChainID(args[1])
		play := models.ChainID(args[2])
		if err := node.Master().AddPlayChain(ctx, public, play); err != nil {
			return fmt.Errorf("failed to register play chain: %w", err)
		}
		log.Printf("Registered play chain %s with %s", play, public)
		return nil

	case "mint":
		if len(args) != 3 {
			return fmt.Errorf("usage: chainjack admin mint <target-chain> <amount>")
		}
		target := models.ChainID(args[1])
		amount, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid mint amount: %w", err)
		}
		if err := node.Master().MintToken(ctx, target, amount); err != nil {
			return fmt.Errorf("failed to mint tokens: %w", err)
		}
		log.Printf("Minted %s tokens to %s", models.FormatUnits(amount), target)
		return nil

	default:
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}
