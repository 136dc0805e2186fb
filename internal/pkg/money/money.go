package money

import (
	"math"
	"strconv"
	"strings"
)

// Format renders an amount for user-facing messages: integral values render
// without a decimal point, others with at most two decimals and trailing
// zeros stripped.
func Format(v float64) string {
	if math.Abs(v-math.Round(v)) < 1e-9 {
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
