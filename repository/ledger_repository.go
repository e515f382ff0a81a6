package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chainjack/models"
)

// pgLedgerRepository implements service.LedgerRepository against the
// accounts, token_pools, daily_bonuses, debts and pot_records tables, all
// scoped to one chain identity.
type pgLedgerRepository struct {
	q       queryable
	chainID models.ChainID
}

func (r *pgLedgerRepository) GetAccount(ctx context.Context, owner string) (int64, error) {
	query := `SELECT balance FROM accounts WHERE chain_id = $1 AND owner = $2`

	var balance int64
	err := r.q.QueryRow(ctx, query, r.chainID, owner).Scan(&balance)
	if err == pgx.ErrNoRows {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	return balance, nil
}

func (r *pgLedgerRepository) SetAccount(ctx context.Context, owner string, balance int64) error {
	query := `
		INSERT INTO accounts (chain_id, owner, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (chain_id, owner)
		DO UPDATE SET balance = EXCLUDED.balance`

	if _, err := r.q.Exec(ctx, query, r.chainID, owner, balance); err != nil {
		return fmt.Errorf("failed to set account: %w", err)
	}
	return nil
}

func (r *pgLedgerRepository) GetPool(ctx context.Context) (int64, error) {
	query := `SELECT tokens FROM token_pools WHERE chain_id = $1`

	var tokens int64
	err := r.q.QueryRow(ctx, query, r.chainID).Scan(&tokens)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get pool: %w", err)
	}
	return tokens, nil
}

func (r *pgLedgerRepository) SetPool(ctx context.Context, tokens int64) error {
	query := `
		INSERT INTO token_pools (chain_id, tokens)
		VALUES ($1, $2)
		ON CONFLICT (chain_id)
		DO UPDATE SET tokens = EXCLUDED.tokens`

	if _, err := r.q.Exec(ctx, query, r.chainID, tokens); err != nil {
		return fmt.Errorf("failed to set pool: %w", err)
	}
	return nil
}

func (r *pgLedgerRepository) GetDailyBonus(ctx context.Context, owner string) (models.DailyBonus, error) {
	query := `SELECT amount, last_claim FROM daily_bonuses WHERE chain_id = $1 AND owner = $2`

	var bonus models.DailyBonus
	err := r.q.QueryRow(ctx, query, r.chainID, owner).Scan(&bonus.Amount, &bonus.LastClaim)
	if err == pgx.ErrNoRows {
		return models.DailyBonus{}, nil
	}
	if err != nil {
		return models.DailyBonus{}, fmt.Errorf("failed to get daily bonus: %w", err)
	}
	return bonus, nil
}

func (r *pgLedgerRepository) SetDailyBonus(ctx context.Context, owner string, bonus models.DailyBonus) error {
	query := `
		INSERT INTO daily_bonuses (chain_id, owner, amount, last_claim)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chain_id, owner)
		DO UPDATE SET amount = EXCLUDED.amount, last_claim = EXCLUDED.last_claim`

	if _, err := r.q.Exec(ctx, query, r.chainID, owner, bonus.Amount, bonus.LastClaim); err != nil {
		return fmt.Errorf("failed to set daily bonus: %w", err)
	}
	return nil
}

func (r *pgLedgerRepository) InsertDebt(ctx context.Context, debt models.DebtRecord) error {
	query := `
		INSERT INTO debts (chain_id, id, origin_chain, amount, created_at, paid_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.q.Exec(ctx, query,
		r.chainID, int64(debt.ID), debt.OriginChain, debt.Amount, debt.CreatedAt, debt.PaidAt, debt.Status)
	if err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}
	return nil
}

func (r *pgLedgerRepository) GetDebt(ctx context.Context, id uint64) (*models.DebtRecord, error) {
	query := `
		SELECT id, origin_chain, amount, created_at, paid_at, status
		FROM debts
		WHERE chain_id = $1 AND id = $2`

	debt, err := scanDebt(r.q.QueryRow(ctx, query, r.chainID, int64(id)))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	return debt, nil
}

func (r *pgLedgerRepository) UpdateDebt(ctx context.Context, debt models.DebtRecord) error {
	query := `
		UPDATE debts
		SET amount = $3, paid_at = $4, status = $5
		WHERE chain_id = $1 AND id = $2`

	tag, err := r.q.Exec(ctx, query, r.chainID, int64(debt.ID), debt.Amount, debt.PaidAt, debt.Status)
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUnknownDebt
	}
	return nil
}

func (r *pgLedgerRepository) ListDebtsByStatus(ctx context.Context, status models.DebtStatus) ([]models.DebtRecord, error) {
	query := `
		SELECT id, origin_chain, amount, created_at, paid_at, status
		FROM debts
		WHERE chain_id = $1 AND status = $2
		ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, r.chainID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []models.DebtRecord
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, *debt)
	}
	return debts, rows.Err()
}

func (r *pgLedgerRepository) InsertPotRecord(ctx context.Context, rec models.TokenPotRecord) error {
	query := `
		INSERT INTO pot_records (chain_id, id, origin_chain, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.q.Exec(ctx, query, r.chainID, int64(rec.ID), rec.OriginChain, rec.Amount, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pot record: %w", err)
	}
	return nil
}

func scanDebt(row pgx.Row) (*models.DebtRecord, error) {
	var debt models.DebtRecord
	var id int64
	if err := row.Scan(&id, &debt.OriginChain, &debt.Amount, &debt.CreatedAt, &debt.PaidAt, &debt.Status); err != nil {
		return nil, err
	}
	debt.ID = uint64(id)
	return &debt, nil
}
