package models

// DailyBonusWindowMicros is the rolling claim window: 24 hours in
// microseconds.
const DailyBonusWindowMicros int64 = 24 * 60 * 60 * 1_000_000

// DailyBonus is one account holder's bonus record. The bonus is credited on
// the next balance read after the window elapses rather than by a scheduled
// job.
type DailyBonus struct {
	Amount    int64 `json:"amount"`
	LastClaim int64 `json:"lastClaim"` // micros since epoch
}

// IsZero reports whether the bonus amount was never initialized.
func (b *DailyBonus) IsZero() bool {
	return b.Amount == 0
}

// UpdateBonus sets the bonus amount once, from configuration. Later calls
// are no-ops.
func (b *DailyBonus) UpdateBonus(amount int64) {
	if b.IsZero() {
		b.Amount = amount
	}
}

// Claim returns the bonus amount if at least 24 hours have elapsed since the
// last claim, advancing the claim timestamp; otherwise it returns zero.
func (b *DailyBonus) Claim(nowMicros int64) int64 {
	if nowMicros-b.LastClaim >= DailyBonusWindowMicros {
		b.LastClaim = nowMicros
		return b.Amount
	}
	return 0
}

// DebtStatus tracks whether a pool shortfall has been repaid.
type DebtStatus string

const (
	DebtPending DebtStatus = "pending"
	DebtSettled DebtStatus = "paid"
)

// DebtRecord documents a shortfall owed by the house pool to a chain that
// paid a player in full before the pool had liquidity. The id is derived
// from the creation time, which is unique under single-chain sequencing.
type DebtRecord struct {
	ID          uint64     `json:"id"`
	OriginChain ChainID    `json:"originChain"`
	Amount      int64      `json:"amount"`
	CreatedAt   int64      `json:"createdAt"` // micros since epoch
	PaidAt      *int64     `json:"paidAt,omitempty"`
	Status      DebtStatus `json:"status"`
}

// NewDebtRecord opens a pending debt created at the given chain time.
func NewDebtRecord(origin ChainID, amount, createdAtMicros int64) DebtRecord {
	return DebtRecord{
		ID:          uint64(createdAtMicros),
		OriginChain: origin,
		Amount:      amount,
		CreatedAt:   createdAtMicros,
		Status:      DebtPending,
	}
}

// MarkPaid closes the debt with a settlement timestamp.
func (d *DebtRecord) MarkPaid(paidAtMicros int64) {
	d.Status = DebtSettled
	d.PaidAt = &paidAtMicros
}

// TokenPotRecord is one entry of the append-only audit trail of round pots
// received by the house chain.
type TokenPotRecord struct {
	ID          uint64  `json:"id"`
	OriginChain ChainID `json:"originChain"`
	Amount      int64   `json:"amount"`
	CreatedAt   int64   `json:"createdAt"` // micros since epoch
}
