package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		value int64
		want  string
	}{
		{0, "0"},
		{500, "500"},
		{999, "999"},
		{1_000, "1K"},
		{1_234, "1.2K"},
		{2_500, "2.5K"},
		{999_949, "999.9K"},
		{999_999, "1M"}, // rounding carries into the next suffix
		{1_000_000, "1M"},
		{1_260_000, "1.3M"},
		{1_000_000_000, "1B"},
		{1_000_000_000_000, "1T"},
		{1_500_000_000_000_000, "1.5Q"},
		{2_000_000_000_000_000_000, "2Qi"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUnits(tt.value), "value %d", tt.value)
	}
}
