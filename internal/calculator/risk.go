package calculator

import "math"

const (
	// Eps is the minimum magnitude any denominator is floored at.
	Eps = 1e-12
	// RatioNone marks a ratio that could not be computed. It is far outside
	// the plausible range of every metric and must never be confused with a
	// real value; compare with IsNone, not ==.
	RatioNone = -1e3
)

// IsNone reports whether v is the "not computable" sentinel.
func IsNone(v float64) bool { return math.Abs(v-RatioNone) < Eps }

// AllPairsReturns builds the percentage change between every earlier and
// every later point of a price series. The O(n^2) all-pairs sample
// characterizes the full distribution of returns achievable within the
// window, not a single realized path.
func AllPairsReturns(prices []float64) []float64 {
	n := len(prices)
	if n < 2 {
		return nil
	}
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, (prices[j]/prices[i]-1)*100)
		}
	}
	return out
}

// SharpeRatio is mean excess return over the sample deviation of returns.
// Needs at least 2 samples.
func SharpeRatio(assetReturns []float64, riskFree float64) float64 {
	if len(assetReturns) < 2 {
		return RatioNone
	}
	denom := math.Max(stdev(assetReturns), Eps)
	sum := 0.0
	for _, r := range assetReturns {
		sum += r - riskFree
	}
	return sum / float64(len(assetReturns)) / denom
}

// SortinoRatio is mean excess return over the deviation of only the
// downside sub-sample (returns strictly below the risk-free rate).
// Needs at least 2 downside samples.
func SortinoRatio(assetReturns []float64, riskFree float64) float64 {
	var downside []float64
	for _, r := range assetReturns {
		if r < riskFree {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return RatioNone
	}
	denom := math.Max(stdev(downside), Eps)
	sum := 0.0
	for _, r := range assetReturns {
		sum += r - riskFree
	}
	return sum / float64(len(assetReturns)) / denom
}

// MaxDrawdown is the minimum value of the return sample.
func MaxDrawdown(assetReturns []float64) float64 {
	if len(assetReturns) == 0 {
		return RatioNone
	}
	min := assetReturns[0]
	for _, r := range assetReturns[1:] {
		if r < min {
			min = r
		}
	}
	return min
}

// CalmarRatio is mean excess return over the absolute max drawdown.
func CalmarRatio(assetReturns []float64, maxDrawdown, riskFree float64) float64 {
	if IsNone(maxDrawdown) || len(assetReturns) == 0 {
		return RatioNone
	}
	denom := math.Max(math.Abs(maxDrawdown), Eps)
	sum := 0.0
	for _, r := range assetReturns {
		sum += r - riskFree
	}
	return sum / float64(len(assetReturns)) / denom
}

// Stddev is the sample standard deviation of the returns. Needs at least
// 2 samples.
func Stddev(assetReturns []float64) float64 {
	if len(assetReturns) < 2 {
		return RatioNone
	}
	return stdev(assetReturns)
}

// Beta is the covariance of asset and benchmark returns over the benchmark
// variance. Needs equal-length samples of at least 2 points.
func Beta(assetReturns, marketReturns []float64) float64 {
	if len(assetReturns) != len(marketReturns) || len(marketReturns) < 2 {
		return RatioNone
	}
	denom := math.Max(variance(marketReturns), Eps)
	return covariance(assetReturns, marketReturns) / denom
}

// Alpha is the asset's excess return over what beta predicts from the best
// benchmark return. assetReturn == 0 is treated as absent.
func Alpha(assetReturn, assetBeta float64, marketReturns []float64, riskFree float64) float64 {
	if len(marketReturns) == 0 || assetReturn == 0 || IsNone(assetBeta) {
		return RatioNone
	}
	marketReturn := marketReturns[0]
	for _, r := range marketReturns[1:] {
		if r > marketReturn {
			marketReturn = r
		}
	}
	return (assetReturn - riskFree) - assetBeta*(marketReturn-riskFree)
}

// TreynorRatio is the asset's excess return per unit of beta. The epsilon
// floor preserves beta's sign so the ratio's sign is not corrupted.
// assetReturn == 0 is treated as absent.
func TreynorRatio(assetReturn, assetBeta, riskFree float64) float64 {
	if assetReturn == 0 || IsNone(assetBeta) {
		return RatioNone
	}
	var denom float64
	if assetBeta < 0 {
		denom = math.Min(assetBeta, -Eps)
	} else {
		denom = math.Max(assetBeta, Eps)
	}
	return (assetReturn - riskFree) / denom
}

// RSquared is 1 - SS_res/SS_tot of the benchmark returns against the
// asset's own mean.
func RSquared(assetReturns, marketReturns []float64) float64 {
	if len(assetReturns) != len(marketReturns) || len(assetReturns) == 0 {
		return RatioNone
	}
	ssRes := 0.0
	for i := range assetReturns {
		d := assetReturns[i] - marketReturns[i]
		ssRes += d * d
	}
	m := mean(assetReturns)
	ssTot := 0.0
	for _, r := range assetReturns {
		d := r - m
		ssTot += d * d
	}
	ssTot = math.Max(ssTot, Eps)
	return 1 - ssRes/ssTot
}

// RSquaredCor is the squared Pearson correlation of asset and benchmark
// returns. Needs equal-length samples of at least 2 points.
func RSquaredCor(assetReturns, marketReturns []float64) float64 {
	if len(assetReturns) != len(marketReturns) || len(marketReturns) < 2 {
		return RatioNone
	}
	denom := math.Max(stdev(marketReturns)*stdev(assetReturns), Eps)
	cor := covariance(assetReturns, marketReturns) / denom
	return cor * cor
}

// InformationRatio is mean active return over the deviation of active
// returns, where active = asset - benchmark pointwise.
func InformationRatio(assetReturns, marketReturns []float64) float64 {
	if len(assetReturns) != len(marketReturns) {
		return RatioNone
	}
	active := make([]float64, len(assetReturns))
	for i := range assetReturns {
		active[i] = assetReturns[i] - marketReturns[i]
	}
	if len(active) < 2 {
		return RatioNone
	}
	denom := math.Max(stdev(active), Eps)
	return mean(active) / denom
}
