// Package orchestrator ties the flattener, deal search and risk metrics
// into one batch computation over many securities. It is a pure function of
// its inputs: it owns no storage and schedules nothing.
package orchestrator

import (
	"fmt"
	"log"
	"sort"
	"time"

	"CandleScout/internal/calculator"
	"CandleScout/internal/deal"
	"CandleScout/internal/model"
	"CandleScout/internal/series"
)

// minPricesForRatios: below this many flattened prices the risk metrics are
// skipped and every ratio is the sentinel.
const minPricesForRatios = 6

// SecuritySeries is one security's stored candle series.
type SecuritySeries struct {
	Ticker   string
	SeriesID int64
	Bars     []model.Bar
}

// BatchInput is everything one batch computation consumes: the securities
// under analysis and the shared benchmark series for the same period.
type BatchInput struct {
	Securities []SecuritySeries
	Benchmark  []model.Bar
}

// BatchResult holds both ranked tables: the raw rows and their formatted
// display tuples, in the same order.
type BatchResult struct {
	Long       []model.DealRow
	Short      []model.DealRow
	LongTable  [][]string
	ShortTable [][]string
}

// Orchestrator runs batch computations against one venue timezone.
type Orchestrator struct {
	Venue *time.Location
}

// New creates an Orchestrator.
func New(venue *time.Location) *Orchestrator {
	return &Orchestrator{Venue: venue}
}

// Run computes the best long and short deal with risk metrics for every
// security, then filters, ranks and formats both tables. Securities are
// processed sequentially; a single security's contract violation aborts
// only its own rows.
func (o *Orchestrator) Run(input BatchInput, params model.BatchParams, now time.Time) (*BatchResult, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("batch params: %w", err)
	}
	minTime := now.Add(-params.Lookback)

	var long, short []model.DealRow
	for _, sec := range input.Securities {
		longRow, shortRow := o.securityRows(sec, input.Benchmark, params, minTime)
		if longRow != nil {
			long = append(long, *longRow)
		}
		if shortRow != nil {
			short = append(short, *shortRow)
		}
	}

	rank(long, params.OrderField)
	rank(short, params.OrderField)
	if len(long) > params.NumRows {
		long = long[:params.NumRows]
	}
	if len(short) > params.NumRows {
		short = short[:params.NumRows]
	}

	return &BatchResult{
		Long:       long,
		Short:      short,
		LongTable:  formatTable(long),
		ShortTable: formatTable(short),
	}, nil
}

func rank(rows []model.DealRow, field model.OrderField) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Value(field) > rows[j].Value(field)
	})
}

// securityRows computes one security's long and short row. Either may be
// nil: no extrema pair, an empty window or a contract violation all yield
// "no deal", never a batch failure.
func (o *Orchestrator) securityRows(sec SecuritySeries, benchmark []model.Bar,
	params model.BatchParams, minTime time.Time) (longRow, shortRow *model.DealRow) {

	if len(sec.Bars) == 0 {
		return nil, nil
	}
	dates, startInd, _, err := series.Datetimes(sec.Bars, minTime, nil, o.Venue)
	if err != nil {
		log.Printf("[ERROR] %s: flatten dates: %v", sec.Ticker, err)
		return nil, nil
	}
	if len(dates) == 0 {
		return nil, nil
	}
	last := dates[len(dates)-1]

	_, benchStart, benchEnd, err := series.Datetimes(benchmark, dates[0], &last, o.Venue)
	if err != nil {
		log.Printf("[ERROR] benchmark: flatten dates: %v", err)
		benchStart, benchEnd = 0, 0
	}

	// risk-free return pre-scaled by the covered year fraction
	riskFree := params.RiskFree * calculator.YearPart(dates[0], last)

	for _, short := range [2]bool{false, true} {
		// HL flattening favors the long side, LH the short side; OC is
		// symmetric and used as-is.
		sideRule := params.Rule
		if sideRule != model.RuleOC {
			if short {
				sideRule = model.RuleLH
			} else {
				sideRule = model.RuleHL
			}
		}

		prices, err := series.Prices(sec.Bars[startInd/2:], sideRule)
		if err != nil {
			log.Printf("[ERROR] %s: flatten prices: %v", sec.Ticker, err)
			return nil, nil
		}
		benchPrices, err := series.Prices(benchmark[benchStart/2:benchEnd/2], sideRule)
		if err != nil {
			log.Printf("[ERROR] benchmark: flatten prices: %v", err)
			return nil, nil
		}
		if len(dates) != len(prices) || len(prices) != len(benchPrices) {
			log.Printf("[WARN] %s: series lengths differ: dates=%d prices=%d benchmark=%d",
				sec.Ticker, len(dates), len(prices), len(benchPrices))
		}

		cand, err := deal.Search(prices, dates, sideRule, short, params.PerYear,
			params.FeeIn, params.FeeOut, params.LoanFee)
		if err != nil {
			log.Printf("[ERROR] %s: deal search (short=%t): %v", sec.Ticker, short, err)
			continue
		}
		if cand == nil {
			continue
		}

		var ratios [model.NumRatios]float64
		if len(prices) >= minPricesForRatios {
			ratios = riskRatios(prices, benchPrices, cand.Returns.PerDeal*100, riskFree)
		} else {
			for i := range ratios {
				ratios[i] = calculator.RatioNone
			}
		}

		row := buildRow(prices, dates, cand, sideRule, sec.Ticker, sec.SeriesID, ratios)
		if short {
			shortRow = &row
		} else {
			longRow = &row
		}
	}
	return longRow, shortRow
}

// riskRatios computes all 11 metrics from the all-pairs return samples of
// the asset and benchmark series.
func riskRatios(prices, benchPrices []float64, perDealPct, riskFree float64) [model.NumRatios]float64 {
	asset := calculator.AllPairsReturns(prices)
	market := calculator.AllPairsReturns(benchPrices)

	var r [model.NumRatios]float64
	maxDD := calculator.MaxDrawdown(asset)
	beta := calculator.Beta(asset, market)
	r[model.RatioSharpe] = calculator.SharpeRatio(asset, riskFree)
	r[model.RatioSortino] = calculator.SortinoRatio(asset, riskFree)
	r[model.RatioMaxDrawdown] = maxDD
	r[model.RatioCalmar] = calculator.CalmarRatio(asset, maxDD, riskFree)
	r[model.RatioStddev] = calculator.Stddev(asset)
	r[model.RatioAlpha] = calculator.Alpha(perDealPct, beta, market, riskFree)
	r[model.RatioBeta] = beta
	r[model.RatioTreynor] = calculator.TreynorRatio(perDealPct, beta, riskFree)
	r[model.RatioRSquared] = calculator.RSquared(asset, market)
	r[model.RatioRSquaredCor] = calculator.RSquaredCor(asset, market)
	r[model.RatioInformation] = calculator.InformationRatio(asset, market)
	return r
}

// buildRow materializes the best candidate into a result row. Under the
// HL/LH rules an extremum may sit anywhere inside its bar, so entry and
// exit render as the bar's begin-end range rather than a single timestamp.
func buildRow(prices []float64, dates []time.Time, cand *deal.Candidate,
	rule model.Rule, ticker string, seriesID int64, ratios [model.NumRatios]float64) model.DealRow {

	inI, outI := cand.EntryIndex, cand.ExitIndex
	entryTime, exitTime := timeStr(dates[inI]), timeStr(dates[outI])
	if rule == model.RuleHL || rule == model.RuleLH {
		entryTime = barRange(dates, inI)
		exitTime = barRange(dates, outI)
	}

	return model.DealRow{
		PerYear:         cand.Returns.PerYear * 100,
		PerYearReinvest: cand.Returns.PerYearReinvest * 100,
		PerDeal:         cand.Returns.PerDeal * 100,
		Security:        ticker,
		EntryTime:       entryTime,
		EntryPrice:      prices[inI],
		ExitTime:        exitTime,
		ExitPrice:       prices[outI],
		Period:          timeStr(dates[0]) + " - " + timeStr(dates[len(dates)-1]),
		Ratios:          ratios,
		SeriesID:        seriesID,
	}
}

func barRange(dates []time.Time, i int) string {
	if i%2 == 1 {
		return timeStr(dates[i-1]) + " - " + timeStr(dates[i])
	}
	return timeStr(dates[i]) + " - " + timeStr(dates[i+1])
}

func timeStr(t time.Time) string { return t.Format(model.DateLayoutTZ) }

// formatTable renders rows into fixed-width display tuples: 4 significant
// digits, scientific notation at the extremes, "-" for the sentinel.
func formatTable(rows []model.DealRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		cols := make([]string, 0, 9+model.NumRatios)
		cols = append(cols,
			calculator.FormatNumber(r.PerYear),
			calculator.FormatNumber(r.PerYearReinvest),
			calculator.FormatNumber(r.PerDeal),
			r.Security,
			r.EntryTime,
			calculator.FormatNumber(r.EntryPrice),
			r.ExitTime,
			calculator.FormatNumber(r.ExitPrice),
			r.Period,
		)
		for _, v := range r.Ratios {
			cols = append(cols, calculator.FormatNumber(v))
		}
		out[i] = cols
	}
	return out
}
