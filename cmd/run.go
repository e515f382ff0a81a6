package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"chainjack/bot"
	"chainjack/chain"
	"chainjack/config"
	"chainjack/database"
	"chainjack/events"
	"chainjack/repository"
	"chainjack/transport"
)

// Run initializes and starts one chain node
func Run(ctx context.Context) error {
	log.Println("Starting chain node...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Connect to the transport fabric
	log.Println("Connecting to NATS...")
	nats := transport.NewNATSTransport(cfg.NATSServers, cfg.ChainID)
	if err := nats.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Println("NATS connection established successfully")

	// Initialize unit of work factory and the chain node
	uowFactory := repository.NewUnitOfWorkFactory(db, cfg.ChainID, eventBus, nats)
	node := chain.NewNode(cfg, nats, uowFactory)

	if err := node.Start(ctx); err != nil {
		return fmt.Errorf("failed to start chain node: %w", err)
	}
	log.Printf("Chain %s is running as %s...", cfg.ChainID, cfg.Role)

	// User chains optionally expose a Discord surface
	var discordBot *bot.Bot
	if cfg.Role == config.RoleUser && cfg.DiscordToken != "" {
		log.Println("Initializing Discord bot...")
		botConfig := bot.Config{
			Token:          cfg.DiscordToken,
			GuildID:        cfg.DiscordGuildID,
			TableChannelID: cfg.DiscordTableChannel,
		}
		discordBot, err = bot.New(botConfig, node.User(), eventBus)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
		log.Println("Discord bot initialized successfully")
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down chain node...")

	if discordBot != nil {
		if err := discordBot.Close(); err != nil {
			log.Printf("Error closing Discord bot: %v", err)
		}
	}

	if err := nats.Close(); err != nil {
		log.Printf("Error closing NATS connection: %v", err)
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
