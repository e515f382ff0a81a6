package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDailyBonusClaimWindow(t *testing.T) {
	bonus := DailyBonus{}
	bonus.UpdateBonus(500)
	bonus.UpdateBonus(9_999) // only the first initialization sticks
	assert.Equal(t, int64(500), bonus.Amount)

	now := int64(1_700_000_000_000_000)
	assert.Equal(t, int64(500), bonus.Claim(now), "first claim always pays")
	assert.Equal(t, now, bonus.LastClaim)

	assert.Equal(t, int64(0), bonus.Claim(now+DailyBonusWindowMicros-1))
	assert.Equal(t, now, bonus.LastClaim, "rejected claim must not advance the window")

	assert.Equal(t, int64(500), bonus.Claim(now+DailyBonusWindowMicros))
	assert.Equal(t, now+DailyBonusWindowMicros, bonus.LastClaim)
}

func TestDebtRecordLifecycle(t *testing.T) {
	created := int64(1_700_000_000_000_000)
	debt := NewDebtRecord("chain-a", 2_500, created)

	assert.Equal(t, uint64(created), debt.ID)
	assert.Equal(t, DebtPending, debt.Status)
	assert.Nil(t, debt.PaidAt)

	debt.MarkPaid(created + 10)
	assert.Equal(t, DebtSettled, debt.Status)
	assert.Equal(t, created+10, *debt.PaidAt)
}
