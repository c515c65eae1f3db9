package model

import "errors"

// CandleColumns is the column layout of one candle row as returned by the
// market-data endpoint. The exact list and order are part of the wire
// contract and are validated on every fetch; a reordering is a schema break.
var CandleColumns = []string{"open", "close", "high", "low", "value", "volume", "begin", "end"}

// Indices into a raw candle row.
const (
	ColOpen = iota
	ColClose
	ColHigh
	ColLow
	ColValue
	ColVolume
	ColBegin
	ColEnd
)

// DateLayout is the venue-local timestamp format used in candle rows.
const DateLayout = "2006-01-02 15:04:05"

// DateLayoutTZ appends the zone abbreviation for display.
const DateLayoutTZ = "2006-01-02 15:04:05 MST"

// Bar is one OHLCV candle. Begin and End are venue-timezone timestamps in
// DateLayout format, kept as strings exactly as received.
type Bar struct {
	Open   float64
	Close  float64
	High   float64
	Low    float64
	Value  float64
	Volume float64
	Begin  string
	End    string
}

// Rule selects which two prices represent a bar in a flattened series,
// in the named order.
type Rule string

const (
	RuleHL Rule = "HL" // high, low
	RuleLH Rule = "LH" // low, high
	RuleOC Rule = "OC" // open, close
)

// ErrInvalidRule reports an unrecognized price-pairing rule. It indicates a
// caller contract violation, not a data-quality issue.
var ErrInvalidRule = errors.New("unknown rule")
