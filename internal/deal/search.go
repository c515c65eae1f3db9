// Package deal finds the single most profitable round-trip trade per side
// in a flattened price series.
package deal

import (
	"time"

	"CandleScout/internal/calculator"
	"CandleScout/internal/model"
	"CandleScout/internal/series"
)

// Candidate is the best entry/exit pair found for one side, with its three
// return measures and the flattened-series indices it was taken from.
type Candidate struct {
	Returns    calculator.Returns
	EntryIndex int
	ExitIndex  int
}

// Search enumerates extrema pairs consistent with the side's semantics and
// keeps the single candidate with the highest base return: the annualized
// no-reinvest return when rankByYear is set, the per-deal return otherwise.
// Strict greater-than means the first-found candidate wins ties. Returns
// nil when the series has fewer than two extrema of the required kind.
//
// For the HL/LH rules the holding period is widened to whole bars (entry
// rounded down to the bar start, exit rounded up to the bar end) so it is
// never optimistically short.
func Search(prices []float64, dates []time.Time, rule model.Rule, short bool,
	rankByYear bool, feeIn, feeOut, loanFee float64) (*Candidate, error) {

	base := func(r calculator.Returns) float64 {
		if rankByYear {
			return r.PerYear
		}
		return r.PerDeal
	}

	var best *Candidate
	consider := func(entry, exit int, avgPrice float64) error {
		dIn, dOut := entry, exit
		if rule == model.RuleHL || rule == model.RuleLH {
			// worst case: an extremum can be anywhere inside its bar
			if dIn%2 == 1 {
				dIn--
			}
			if dOut%2 == 0 {
				dOut++
			}
		}
		r, err := calculator.CalculateReturns(prices[entry], prices[exit], avgPrice,
			short, feeIn, feeOut, loanFee, dates[dIn], dates[dOut])
		if err != nil {
			return err
		}
		if best == nil || base(r) > base(best.Returns) {
			best = &Candidate{Returns: r, EntryIndex: entry, ExitIndex: exit}
		}
		return nil
	}

	if short {
		maxs, mins := series.MaxMinIndexes(prices)
		for i, maxI := range maxs {
			for _, minI := range mins[i:] {
				sum := 0.0
				for _, p := range prices[maxI : minI+1] {
					sum += p
				}
				avg := sum / float64(minI-maxI+1)
				if err := consider(maxI, minI, avg); err != nil {
					return nil, err
				}
			}
		}
	} else {
		mins, maxs := series.MinMaxIndexes(prices)
		for i, minI := range mins {
			for _, maxI := range maxs[i:] {
				if err := consider(minI, maxI, 0); err != nil {
					return nil, err
				}
			}
		}
	}
	return best, nil
}
