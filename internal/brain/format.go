package brain

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// maxFractionDigits caps the fractional digits shown for numeric literals.
const maxFractionDigits = 6

// FormatNumber renders v in fixed decimal notation with at most six
// fractional digits and no trailing zeros. Non-finite values render as
// NaN, +Inf or -Inf.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return decimal.NewFromFloat(v).Round(maxFractionDigits).String()
}
