// Package formulas holds the statistical and technical-indicator helpers shared by the
// scorers and the optimizer.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualisation factor for daily series
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// Covariance calculates the sample covariance between two equally sized datasets
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// MeanAbsoluteDeviation returns the mean absolute deviation of the values divided by
// their mean, a scale-free dispersion measure. Zero when the mean is zero.
func MeanAbsoluteDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	if mean == 0 {
		return 0
	}

	var total float64
	for _, v := range values {
		total += math.Abs(v - mean)
	}
	return total / float64(len(values)) / math.Abs(mean)
}

// MaxDrawdown returns the largest peak-to-trough decline as a positive fraction
func MaxDrawdown(prices []float64) float64 {
	var peak, maxDD float64
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak > 0 {
			if dd := (peak - p) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round rounds val to the given number of decimals
func Round(val float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(val*p) / p
}
