package calculator

import (
	"errors"
	"math"
	"time"
)

// yearSeconds is the length of the mean Gregorian year (365.2425 days).
const yearSeconds = 31556952.0

// ErrInvalidDateOrder reports a short deal whose exit does not come strictly
// after its entry. It indicates a caller contract violation.
var ErrInvalidDateOrder = errors.New("short deal requires exit date after entry date")

// YearPart returns the fraction of a year the period [first, last] lasts
// for. The period is floored at one day so annualization stays finite for
// same-day deals.
func YearPart(first, last time.Time) float64 {
	d := last.Sub(first)
	if d < 24*time.Hour {
		d = 24 * time.Hour
	}
	return d.Seconds() / yearSeconds
}

// Returns holds the three return measures of one deal, as fractions.
type Returns struct {
	PerDeal         float64
	PerYear         float64 // annualized without reinvesting profit
	PerYearReinvest float64 // annualized with reinvesting profit
}

// CalculateReturns computes the per-deal return of one round trip and its
// two annualized variants. priceIn/priceOut are the opening and closing
// prices (sell then buy for shorts). avgPrice is the average price over the
// holding window and is only used for the short-deal loan fee, which
// compounds daily over the holding period. feeIn and feeOut are
// percentages; loanFee is a percentage per annum.
func CalculateReturns(priceIn, priceOut, avgPrice float64, short bool,
	feeIn, feeOut, loanFee float64, dateIn, dateOut time.Time) (Returns, error) {

	var fees float64
	if short {
		if !dateOut.After(dateIn) {
			return Returns{}, ErrInvalidDateOrder
		}
		days := math.Floor(dateOut.Sub(dateIn).Hours() / 24)
		loanFees := (math.Pow(1+loanFee/100/365, days) - 1) * avgPrice
		fees = (feeIn*priceOut+feeOut*priceIn)/100 + loanFees
	} else {
		fees = (feeIn*priceIn + feeOut*priceOut) / 100
	}

	var r float64
	if short {
		r = (priceIn - priceOut - fees) / priceOut
	} else {
		r = (priceOut - priceIn - fees) / priceIn
	}

	yearPart := YearPart(dateIn, dateOut)
	return Returns{
		PerDeal:         r,
		PerYear:         r / yearPart,
		PerYearReinvest: math.Pow(1+r, 1/yearPart) - 1,
	}, nil
}
