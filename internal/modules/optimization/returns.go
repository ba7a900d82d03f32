// Package optimization turns a candidate set into portfolio weights: expected-return
// and covariance estimation, then a bounded Sharpe maximisation that always falls back
// to inverse-volatility weights when the inputs are unusable.
package optimization

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// ReturnSeries is one asset's daily returns keyed by trading day, oldest first
type ReturnSeries struct {
	Days    []int64 // days since the Unix epoch (UTC)
	Returns []float64
}

// Len returns the number of observations
func (rs ReturnSeries) Len() int {
	return len(rs.Returns)
}

func dayKey(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}

// NewReturnSeries computes close-to-close returns from bars. Bars are sorted by date;
// duplicate days keep the later bar and non-positive closes are skipped.
func NewReturnSeries(bars []domain.PriceBar) ReturnSeries {
	if len(bars) < 2 {
		return ReturnSeries{}
	}

	sorted := make([]domain.PriceBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var days []int64
	var closes []float64
	for _, bar := range sorted {
		if bar.Close <= 0 || math.IsNaN(bar.Close) {
			continue
		}
		day := dayKey(bar.Date)
		if n := len(days); n > 0 && days[n-1] == day {
			closes[n-1] = bar.Close
			continue
		}
		days = append(days, day)
		closes = append(closes, bar.Close)
	}

	if len(closes) < 2 {
		return ReturnSeries{}
	}

	series := ReturnSeries{
		Days:    make([]int64, 0, len(closes)-1),
		Returns: make([]float64, 0, len(closes)-1),
	}
	for i := 1; i < len(closes); i++ {
		series.Days = append(series.Days, days[i])
		series.Returns = append(series.Returns, closes[i]/closes[i-1]-1)
	}
	return series
}

// ReturnEstimator estimates annualised expected returns and volatilities
type ReturnEstimator struct {
	policy config.OptimizerPolicy
}

// NewReturnEstimator creates an estimator with the policy's priors and limits
func NewReturnEstimator(policy config.OptimizerPolicy) *ReturnEstimator {
	return &ReturnEstimator{policy: policy}
}

// ExpectedReturn returns the annualised trailing mean return when the series has
// enough observations, otherwise the class prior. The result is clamped to the
// policy's bounds. The second value reports whether history was used.
func (re *ReturnEstimator) ExpectedReturn(class domain.AssetClass, series ReturnSeries) (float64, bool) {
	if series.Len() >= re.policy.MinHistory {
		mu := formulas.Mean(series.Returns) * formulas.TradingDaysPerYear
		if !math.IsNaN(mu) && !math.IsInf(mu, 0) {
			return formulas.Clamp(mu, re.policy.ExpectedReturnMin, re.policy.ExpectedReturnMax), true
		}
	}
	return formulas.Clamp(re.policy.ReturnPriors[class], re.policy.ExpectedReturnMin, re.policy.ExpectedReturnMax), false
}

// Volatility returns the annualised volatility from the asset's own history.
// The second value is false when the history cannot support an estimate.
func (re *ReturnEstimator) Volatility(series ReturnSeries) (float64, bool) {
	if series.Len() < re.policy.MinHistory {
		return 0, false
	}
	vol := formulas.AnnualizedVolatility(series.Returns)
	if vol <= 0 || math.IsNaN(vol) || math.IsInf(vol, 0) {
		return 0, false
	}
	return vol, true
}

// SeedVolatility returns the history-based volatility, or the class prior for seeding
func (re *ReturnEstimator) SeedVolatility(class domain.AssetClass, series ReturnSeries) float64 {
	if vol, ok := re.Volatility(series); ok {
		return vol
	}
	return re.policy.VolatilityPriors[class]
}
