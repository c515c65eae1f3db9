package series

import (
	"fmt"
	"sort"
	"time"

	"CandleScout/internal/model"
)

// Prices extracts two price values per bar according to rule and flattens
// the result: len(prices) == 2*len(bars).
func Prices(bars []model.Bar, rule model.Rule) ([]float64, error) {
	out := make([]float64, 0, 2*len(bars))
	switch rule {
	case model.RuleHL:
		for _, b := range bars {
			out = append(out, b.High, b.Low)
		}
	case model.RuleLH:
		for _, b := range bars {
			out = append(out, b.Low, b.High)
		}
	case model.RuleOC:
		for _, b := range bars {
			out = append(out, b.Open, b.Close)
		}
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidRule, rule)
	}
	return out, nil
}

// Datetimes flattens bar begin/end timestamps and windows them to
// [start, end]. end == nil means no upper bound. The returned indices are
// positions in the flattened sequence; divided by two they index the
// original bars. A bar's two values are atomic: a window bound falling on
// an odd index is rounded up to the next even one, so a windowed sequence
// never splits a bar and never has odd length.
func Datetimes(bars []model.Bar, start time.Time, end *time.Time, venue *time.Location) ([]time.Time, int, int, error) {
	all := make([]time.Time, 0, 2*len(bars))
	for _, b := range bars {
		for _, s := range [2]string{b.Begin, b.End} {
			t, err := time.ParseInLocation(model.DateLayout, s, venue)
			if err != nil {
				return nil, 0, 0, fmt.Errorf("parse bar time %q: %w", s, err)
			}
			all = append(all, t)
		}
	}

	start = start.In(venue)
	startInd := sort.Search(len(all), func(i int) bool { return !all[i].Before(start) })
	if startInd%2 == 1 {
		startInd++
	}
	endInd := len(all)
	if end != nil {
		e := end.In(venue)
		endInd = sort.Search(len(all), func(i int) bool { return all[i].After(e) })
		if endInd%2 == 1 {
			endInd++
		}
	}
	if endInd < startInd {
		endInd = startInd
	}
	return all[startInd:endInd], startInd, endInd, nil
}
