package model

// OrderField is the index of a DealRow display column used for ranking.
type OrderField int

const (
	OrderPerYear         OrderField = 0 // return per year without reinvesting
	OrderPerYearReinvest OrderField = 1 // return per year with reinvesting
	OrderPerDeal         OrderField = 2 // return per deal
	OrderSharpe          OrderField = 9
	OrderSortino         OrderField = 10
	OrderMaxDrawdown     OrderField = 11
	OrderCalmar          OrderField = 12
	OrderStddev          OrderField = 13
	OrderAlpha           OrderField = 14
	OrderBeta            OrderField = 15
	OrderTreynor         OrderField = 16
	OrderRSquared        OrderField = 17
	OrderRSquaredCor     OrderField = 18
	OrderInformation     OrderField = 19
)

// Valid reports whether f names a sortable DealRow column.
func (f OrderField) Valid() bool {
	return f >= OrderPerYear && f <= OrderPerDeal ||
		f >= OrderSharpe && f <= OrderInformation
}

// NumRatios is the number of risk metrics attached to every deal row.
const NumRatios = 11

// Positions of the ratios inside DealRow.Ratios, in display-column order.
const (
	RatioSharpe = iota
	RatioSortino
	RatioMaxDrawdown
	RatioCalmar
	RatioStddev
	RatioAlpha
	RatioBeta
	RatioTreynor
	RatioRSquared
	RatioRSquaredCor
	RatioInformation
)

// DealRow is one ranked result row: the three returns (in percent), the deal
// anchors and the 11 risk ratios, in fixed column order. SeriesID links the
// row back to the stored series it was computed from and is not a display
// column. A row is immutable once built.
type DealRow struct {
	PerYear         float64 // col 0
	PerYearReinvest float64 // col 1
	PerDeal         float64 // col 2
	Security        string  // col 3
	EntryTime       string  // col 4
	EntryPrice      float64 // col 5
	ExitTime        string  // col 6
	ExitPrice       float64 // col 7
	Period          string  // col 8

	// cols 9-19: sharpe, sortino, max drawdown, calmar, stddev, alpha,
	// beta, treynor, r-squared, r-squared (correlation), information.
	Ratios [NumRatios]float64

	SeriesID int64
}

// Value returns the numeric column at the given ordering index.
func (r *DealRow) Value(f OrderField) float64 {
	switch f {
	case OrderPerYear:
		return r.PerYear
	case OrderPerYearReinvest:
		return r.PerYearReinvest
	case OrderPerDeal:
		return r.PerDeal
	default:
		return r.Ratios[int(f)-int(OrderSharpe)]
	}
}
