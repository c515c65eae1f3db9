package calculator

import (
	"fmt"
	"math"
	"strconv"
)

const (
	// SciLargeMin: magnitudes at or above this render in scientific notation.
	SciLargeMin = 1e6
	// SciSmallMax: magnitudes at or below this render in scientific notation.
	SciSmallMax = 1e-6
)

// RoundSignif rounds num to n significant digits. Zero-ish and non-finite
// values pass through unchanged.
func RoundSignif(num float64, n int) float64 {
	if math.Abs(num) < Eps || math.IsInf(num, 0) || math.IsNaN(num) {
		return num
	}
	digits := n - int(math.Ceil(math.Log10(math.Abs(num))))
	scale := math.Pow(10, float64(digits))
	return math.Round(num*scale) / scale
}

// FormatNumber renders one value for tabular display: the sentinel becomes
// a placeholder, very large and very small magnitudes (both boundaries
// inclusive) switch to fixed 4-decimal scientific notation, everything else
// is rounded to four significant digits.
func FormatNumber(v float64) string {
	if IsNone(v) {
		return "-"
	}
	if math.Abs(v) >= SciLargeMin || math.Abs(v) <= SciSmallMax {
		return fmt.Sprintf("%.4e", v)
	}
	return strconv.FormatFloat(RoundSignif(v, 4), 'f', -1, 64)
}
