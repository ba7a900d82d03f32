package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// CalculateSMA calculates the Simple Moving Average of the last length closes.
// Returns nil if there is not enough data.
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !math.IsNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	result := Mean(closes[len(closes)-length:])
	return &result
}

// CalculateRSI calculates the Relative Strength Index (0-100) using Wilder smoothing.
// Returns nil if there are not more closes than the period.
func CalculateRSI(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) <= length {
		return nil
	}

	rsi := talib.Rsi(closes, length)
	if len(rsi) == 0 {
		return nil
	}
	last := rsi[len(rsi)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return nil
	}
	return &last
}

// InverseVolatilityWeights returns weights proportional to 1/σ, normalised to 1.
// Non-positive volatilities get zero weight; if none is usable the weights are equal.
func InverseVolatilityWeights(vols []float64) []float64 {
	n := len(vols)
	weights := make([]float64, n)
	if n == 0 {
		return weights
	}

	var total float64
	for _, v := range vols {
		if v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) {
			total += 1.0 / v
		}
	}

	if total == 0 {
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}
		return weights
	}

	for i, v := range vols {
		if v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) {
			weights[i] = (1.0 / v) / total
		}
	}
	return weights
}
