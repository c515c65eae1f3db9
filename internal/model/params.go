package model

import (
	"fmt"
	"time"
)

// Limits of a batch computation request.
const (
	MinLookback = time.Hour
	MinNumRows  = 1
	MaxNumRows  = 1000
)

// BatchParams are the parameters of one batch computation request.
// All percentages are plain numbers, e.g. 0.3 means 0.3%.
type BatchParams struct {
	Lookback   time.Duration // analysis window ending now
	FeeIn      float64       // fee for deal opening, %
	FeeOut     float64       // fee for deal closing, %
	LoanFee    float64       // short-deal loan fee, % per annum
	RiskFree   float64       // risk-free return, % per annum
	PerYear    bool          // rank candidate deals by annualized return instead of per-deal
	Rule       Rule
	NumRows    int // rows per result table
	OrderField OrderField
}

// Validate checks the request against the documented limits.
func (p *BatchParams) Validate() error {
	if p.Lookback < MinLookback {
		return fmt.Errorf("lookback must be at least %s", MinLookback)
	}
	if p.FeeIn < 0 || p.FeeOut < 0 || p.LoanFee < 0 || p.RiskFree < 0 {
		return fmt.Errorf("fees and risk-free return must be non-negative")
	}
	switch p.Rule {
	case RuleHL, RuleLH, RuleOC:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRule, p.Rule)
	}
	if p.NumRows < MinNumRows || p.NumRows > MaxNumRows {
		return fmt.Errorf("number of rows must be in [%d, %d]", MinNumRows, MaxNumRows)
	}
	if !p.OrderField.Valid() {
		return fmt.Errorf("unknown ordering field: %d", p.OrderField)
	}
	return nil
}

// String summarizes the parameters for logs and the in-flight tracker.
func (p *BatchParams) String() string {
	return fmt.Sprintf(
		"lookback=%s feeIn=%.4g%% feeOut=%.4g%% loanFee=%.4g%% riskFree=%.4g%% perYear=%t rule=%s rows=%d order=%d",
		p.Lookback, p.FeeIn, p.FeeOut, p.LoanFee, p.RiskFree, p.PerYear, p.Rule, p.NumRows, p.OrderField)
}
