package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chainjack/models"
)

// pgUserStateRepository persists the user chain's registers as one JSONB
// record.
type pgUserStateRepository struct {
	q       queryable
	chainID models.ChainID
}

func (r *pgUserStateRepository) Get(ctx context.Context) (*models.UserState, error) {
	query := `SELECT data FROM user_states WHERE chain_id = $1`

	var data []byte
	err := r.q.QueryRow(ctx, query, r.chainID).Scan(&data)
	if err == pgx.ErrNoRows {
		return models.NewUserState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}

	var state models.UserState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode user state: %w", err)
	}
	return &state, nil
}

func (r *pgUserStateRepository) Save(ctx context.Context, state *models.UserState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode user state: %w", err)
	}

	query := `
		INSERT INTO user_states (chain_id, data)
		VALUES ($1, $2)
		ON CONFLICT (chain_id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`

	if _, err := r.q.Exec(ctx, query, r.chainID, data); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}
	return nil
}
