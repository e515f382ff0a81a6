package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chainjack/models"
)

// pgRegistryRepository implements service.RegistryRepository over the
// play_registry table. Occupancy buckets are represented by the occupancy
// column; registration order comes from the registered_at sequence.
type pgRegistryRepository struct {
	q       queryable
	chainID models.ChainID
}

func (r *pgRegistryRepository) Add(ctx context.Context, chain models.ChainID, occupancy uint8) error {
	query := `
		INSERT INTO play_registry (chain_id, play_chain, occupancy)
		VALUES ($1, $2, $3)
		ON CONFLICT (chain_id, play_chain) DO NOTHING`

	if _, err := r.q.Exec(ctx, query, r.chainID, chain, int16(occupancy)); err != nil {
		return fmt.Errorf("failed to add play chain: %w", err)
	}
	return nil
}

func (r *pgRegistryRepository) Occupancy(ctx context.Context, chain models.ChainID) (uint8, bool, error) {
	query := `SELECT occupancy FROM play_registry WHERE chain_id = $1 AND play_chain = $2`

	var occupancy int16
	err := r.q.QueryRow(ctx, query, r.chainID, chain).Scan(&occupancy)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get occupancy: %w", err)
	}
	return uint8(occupancy), true, nil
}

// Move deletes the old registration before inserting the new one so the
// chain never sits in two buckets, and its registration order resets.
func (r *pgRegistryRepository) Move(ctx context.Context, chain models.ChainID, occupancy uint8) error {
	if _, err := r.q.Exec(ctx,
		`DELETE FROM play_registry WHERE chain_id = $1 AND play_chain = $2`,
		r.chainID, chain); err != nil {
		return fmt.Errorf("failed to remove old registration: %w", err)
	}
	if _, err := r.q.Exec(ctx,
		`INSERT INTO play_registry (chain_id, play_chain, occupancy) VALUES ($1, $2, $3)`,
		r.chainID, chain, int16(occupancy)); err != nil {
		return fmt.Errorf("failed to insert new registration: %w", err)
	}
	return nil
}

func (r *pgRegistryRepository) Remove(ctx context.Context, chain models.ChainID) error {
	query := `DELETE FROM play_registry WHERE chain_id = $1 AND play_chain = $2`

	if _, err := r.q.Exec(ctx, query, r.chainID, chain); err != nil {
		return fmt.Errorf("failed to remove play chain: %w", err)
	}
	return nil
}

func (r *pgRegistryRepository) Bucket(ctx context.Context, occupancy uint8) ([]models.ChainID, error) {
	query := `
		SELECT play_chain FROM play_registry
		WHERE chain_id = $1 AND occupancy = $2
		ORDER BY registered_at`

	rows, err := r.q.Query(ctx, query, r.chainID, int16(occupancy))
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket: %w", err)
	}
	defer rows.Close()

	var chains []models.ChainID
	for rows.Next() {
		var chain models.ChainID
		if err := rows.Scan(&chain); err != nil {
			return nil, fmt.Errorf("failed to scan play chain: %w", err)
		}
		chains = append(chains, chain)
	}
	return chains, rows.Err()
}
