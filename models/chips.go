package models

import "math"

// ChipBase is the smallest chip value; balances below it degrade to all-in
// limits with no chip denominations.
const ChipBase int64 = 100

// chipMultipliers scale the base value into the five offered denominations.
var chipMultipliers = [5]int64{1, 5, 25, 100, 250}

// Chip is one denomination offered to the player, with a short display label
// and an enabled flag (a chip is disabled when it exceeds the balance).
type Chip struct {
	Amount int64  `json:"amount"`
	Text   string `json:"text"`
	Enable bool   `json:"enable"`
}

// BetData holds the betting limits and chip denominations derived from a
// balance. It is recomputed from the balance every time; never stored on its
// own.
type BetData struct {
	MinBet  int64    `json:"minBet"`
	MaxBet  int64    `json:"maxBet"`
	ChipSet *[5]Chip `json:"chipset,omitempty"`
}

// CalculateBetData derives betting limits from a balance.
//
// Below the chip base the player may only go all-in: min 0, max = balance,
// no chips. Otherwise the base is scaled up by 10 while the balance covers
// 500x the base, and the denominations are {1,5,25,100,250}x base.
func CalculateBetData(balance int64) BetData {
	base := ChipBase

	if balance < base {
		return BetData{MinBet: 0, MaxBet: balance}
	}

	for {
		threshold, ok := mulInt64(base, 500)
		if !ok || balance < threshold {
			break
		}
		next, ok := mulInt64(base, 10)
		if !ok {
			break
		}
		base = next
	}

	var chips [5]Chip
	for i, mult := range chipMultipliers {
		amount := saturatingMul(base, mult)
		chips[i] = Chip{
			Amount: amount,
			Text:   FormatUnits(amount),
			Enable: amount <= balance,
		}
	}

	return BetData{
		MinBet:  chips[0].Amount,
		MaxBet:  balance,
		ChipSet: &chips,
	}
}

// mulInt64 multiplies two positive values, reporting overflow.
func mulInt64(a, b int64) (int64, bool) {
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

func saturatingMul(a, b int64) int64 {
	v, ok := mulInt64(a, b)
	if !ok {
		return math.MaxInt64
	}
	return v
}
