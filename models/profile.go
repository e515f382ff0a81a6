package models

// Profile is a user chain's local betting profile: the seat it holds (if
// any), the balance mirrored from the ledger account, and the bet limits
// derived from that balance.
type Profile struct {
	Seat    *uint8   `json:"seat,omitempty"`
	Balance int64    `json:"balance"`
	BetData *BetData `json:"betData,omitempty"`
}

// UpdateSeat records the seat granted to this profile.
func (p *Profile) UpdateSeat(seatID uint8) {
	p.Seat = &seatID
}

// RemoveSeat vacates the recorded seat.
func (p *Profile) RemoveSeat() {
	p.Seat = nil
}

// UpdateBalance overwrites the mirrored balance.
func (p *Profile) UpdateBalance(amount int64) {
	p.Balance = amount
}

// RefreshBetData recomputes the bet limits from the current balance.
func (p *Profile) RefreshBetData() {
	bd := CalculateBetData(p.Balance)
	p.BetData = &bd
}

// ClearBetData drops the derived limits, e.g. when leaving a table.
func (p *Profile) ClearBetData() {
	p.BetData = nil
}
