package models

import (
	"fmt"
	"strconv"
	"strings"
)

// unitSuffixes maps magnitude divisors to display suffixes, descending.
var unitSuffixes = []struct {
	Suffix  string
	Divisor int64
}{
	{"Qi", 1_000_000_000_000_000_000}, // 10^18
	{"Q", 1_000_000_000_000_000},      // 10^15
	{"T", 1_000_000_000_000},          // 10^12
	{"B", 1_000_000_000},              // 10^9
	{"M", 1_000_000},                  // 10^6
	{"K", 1_000},                      // 10^3
}

// FormatUnits renders a token amount with a magnitude suffix rounded to one
// decimal place: 1234 -> "1.2K", 2_500_000 -> "2.5M". Values below 1000 are
// returned unchanged. Rounding that would reach 1000 of a unit carries over
// to the next suffix (999_999 -> "1M").
func FormatUnits(value int64) string {
	if value < 1000 {
		return strconv.FormatInt(value, 10)
	}

	for i, unit := range unitSuffixes {
		if value < unit.Divisor {
			continue
		}
		scaled := float64(value) / float64(unit.Divisor)
		if scaled >= 999.95 && i > 0 {
			next := unitSuffixes[i-1]
			return formatScaled(float64(value)/float64(next.Divisor), next.Suffix)
		}
		return formatScaled(scaled, unit.Suffix)
	}

	return strconv.FormatInt(value, 10)
}

// formatScaled rounds to the nearest tenth and trims a trailing ".0".
func formatScaled(value float64, suffix string) string {
	s := fmt.Sprintf("%.1f", value)
	s = strings.TrimSuffix(s, ".0")
	return s + suffix
}
