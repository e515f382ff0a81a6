package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chainjack/models"
)

// pgGameRepository persists the chain's game as a JSONB register. The game
// is read and written whole; per-chain sequencing makes row-level contention
// impossible.
type pgGameRepository struct {
	q       queryable
	chainID models.ChainID
}

func (r *pgGameRepository) Get(ctx context.Context) (*models.BlackjackGame, error) {
	query := `SELECT data FROM games WHERE chain_id = $1`

	var data []byte
	err := r.q.QueryRow(ctx, query, r.chainID).Scan(&data)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	var game models.BlackjackGame
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("failed to decode game: %w", err)
	}
	if game.Players == nil {
		game.Players = make(map[uint8]*models.Player)
	}
	return &game, nil
}

func (r *pgGameRepository) Save(ctx context.Context, game *models.BlackjackGame) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to encode game: %w", err)
	}

	query := `
		INSERT INTO games (chain_id, data)
		VALUES ($1, $2)
		ON CONFLICT (chain_id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`

	if _, err := r.q.Exec(ctx, query, r.chainID, data); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}
