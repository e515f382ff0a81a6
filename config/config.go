package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"chainjack/models"
)

// Role selects which protocol role this process's chain plays.
type Role string

const (
	RoleMaster Role = "master"
	RolePublic Role = "public"
	RolePlay   Role = "play"
	RoleUser   Role = "user"
)

// Config holds all application configuration
type Config struct {
	// Chain identity
	ChainID models.ChainID
	Role    Role

	// Topology
	MasterChain  models.ChainID
	PublicChains []models.ChainID
	HouseChain   models.ChainID // pool-owning chain debts and pots settle against

	// Transport and storage
	NATSServers string
	DatabaseURL string

	// Discord configuration (user-role surface)
	DiscordToken        string
	DiscordGuildID      string
	DiscordTableChannel string // optional channel for live table snapshots

	// Game settings with defaults
	StartingBalance  int64
	DailyBonus       int64
	DeckCount        int // decks per shoe
	DeckRefillFloor  int // append a fresh shoe below this many cards
	FindChainRetries int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		ChainID:     models.ChainID(os.Getenv("CHAIN_ID")),
		Role:        Role(os.Getenv("CHAIN_ROLE")),
		MasterChain: models.ChainID(os.Getenv("MASTER_CHAIN")),
		HouseChain:  models.ChainID(os.Getenv("HOUSE_CHAIN")),

		NATSServers: os.Getenv("NATS_SERVERS"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID:      os.Getenv("DISCORD_GUILD_ID"),
		DiscordTableChannel: os.Getenv("DISCORD_TABLE_CHANNEL"),

		StartingBalance:  100_000,
		DailyBonus:       500,
		DeckCount:        6,
		DeckRefillFloor:  80,
		FindChainRetries: 3,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Comma-separated list of public chain identities
	if chains := os.Getenv("PUBLIC_CHAINS"); chains != "" {
		for _, id := range strings.Split(chains, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				config.PublicChains = append(config.PublicChains, models.ChainID(id))
			}
		}
	}

	// Override defaults if environment variables are set
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}
	if bonus := os.Getenv("DAILY_BONUS"); bonus != "" {
		if parsed, err := strconv.ParseInt(bonus, 10, 64); err == nil {
			config.DailyBonus = parsed
		}
	}
	if decks := os.Getenv("DECK_COUNT"); decks != "" {
		if parsed, err := strconv.Atoi(decks); err == nil && parsed > 0 {
			config.DeckCount = parsed
		}
	}
	if floor := os.Getenv("DECK_REFILL_FLOOR"); floor != "" {
		if parsed, err := strconv.Atoi(floor); err == nil && parsed >= 0 {
			config.DeckRefillFloor = parsed
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.ChainID == "" {
			return nil, fmt.Errorf("CHAIN_ID is required")
		}
		switch config.Role {
		case RoleMaster, RolePublic, RolePlay, RoleUser:
		default:
			return nil, fmt.Errorf("CHAIN_ROLE must be one of master, public, play, user")
		}
		if config.MasterChain == "" {
			return nil, fmt.Errorf("MASTER_CHAIN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.Role == RoleUser && len(config.PublicChains) == 0 {
			return nil, fmt.Errorf("PUBLIC_CHAINS is required for user chains")
		}
	}

	return config, nil
}
