package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Card codes used below: 1 = A♠, 10 = 10♠, 13 = K♠, 14 = A♥, 18 = 5♥,
// 23 = 10♥, 31 = 5♦.

func TestHandValue(t *testing.T) {
	tests := []struct {
		name string
		hand []Card
		want int
	}{
		{"ace king is a natural 21", []Card{1, 13}, 21},
		{"two aces and a nine force one ace down", []Card{1, 14, 9}, 21},
		{"ten ten five busts at 25", []Card{10, 23, 31}, 25},
		{"single ace is soft 11", []Card{1}, 11},
		{"ace five is soft 16", []Card{1, 18}, 16},
		{"ace five ten hardens to 16", []Card{1, 18, 10}, 16},
		{"face cards count ten", []Card{11, 12, 13}, 30},
		{"four aces", []Card{1, 14, 27, 40}, 14},
		{"empty hand", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HandValue(tt.hand))
		})
	}
}

func TestIsNatural(t *testing.T) {
	assert.True(t, IsNatural([]Card{1, 13}))
	assert.False(t, IsNatural([]Card{1, 18, 18}), "21 with three cards is not a natural")
	assert.False(t, IsNatural([]Card{10, 23}))
}

func TestIsBust(t *testing.T) {
	assert.False(t, IsBust(21))
	assert.True(t, IsBust(22))
}
