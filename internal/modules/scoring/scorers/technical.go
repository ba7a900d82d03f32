// Package scorers computes the four factor sub-scores (0-100) of one asset, the
// deterministic fallback used when data is missing, and the weighted blend.
package scorers

import (
	"math"

	"github.com/aristath/advisor/internal/modules/scoring"
	"github.com/aristath/advisor/pkg/formulas"
)

// TechnicalScorer scores trend, momentum and volatility from daily closes
type TechnicalScorer struct{}

// TechnicalScore represents the result of technical scoring
type TechnicalScore struct {
	Components map[string]float64 `json:"components"`
	Score      float64            `json:"score"`
}

// NewTechnicalScorer creates a new technical scorer
func NewTechnicalScorer() *TechnicalScorer {
	return &TechnicalScorer{}
}

// Calculate calculates the technical score from daily closes (oldest first)
// Components:
// - Trend (40 pts): moving-average ordering price > SMA20 > SMA50 > SMA200
// - Momentum (30 pts): mean of the last 60 daily returns
// - Volatility (30 pts): annualised volatility of the last 60 daily returns
// RSI(14) beyond 70/30 shifts the total by 5 points.
func (ts *TechnicalScorer) Calculate(closes []float64) TechnicalScore {
	trend := scoreTrend(closes)

	returns := formulas.CalculateReturns(closes)
	if len(returns) > scoring.MomentumWindow {
		returns = returns[len(returns)-scoring.MomentumWindow:]
	}
	momentumValue := formulas.Mean(returns)
	momentum := scoreMomentum(momentumValue)

	volValue := formulas.AnnualizedVolatility(returns)
	volatility := scoreTechnicalVolatility(volValue)

	total := trend + momentum + volatility

	rsiAdjustment := 0.0
	if rsi := formulas.CalculateRSI(closes, scoring.RSILength); rsi != nil {
		switch {
		case *rsi > scoring.RSIOverbought:
			rsiAdjustment = -scoring.RSIAdjustment
		case *rsi < scoring.RSIOversold:
			rsiAdjustment = scoring.RSIAdjustment
		}
	}
	total += rsiAdjustment

	return TechnicalScore{
		Score: formulas.Round(formulas.Clamp(total, 0, 100), 2),
		Components: map[string]float64{
			"trend":          round3(trend),
			"momentum":       round3(momentum),
			"volatility":     round3(volatility),
			"rsi_adjustment": rsiAdjustment,
			"momentum_raw":   momentumValue,
			"volatility_raw": volValue,
		},
	}
}

// scoreTrend awards an equal share of the trend points for every satisfied ordering
// among the moving averages that the history supports
func scoreTrend(closes []float64) float64 {
	if len(closes) == 0 {
		return scoring.TrendPoints / 2
	}
	price := closes[len(closes)-1]

	smaShort := formulas.CalculateSMA(closes, scoring.SMAShort)
	smaMedium := formulas.CalculateSMA(closes, scoring.SMAMedium)
	smaLong := formulas.CalculateSMA(closes, scoring.SMALong)

	var checks, satisfied int
	if smaShort != nil {
		checks++
		if price > *smaShort {
			satisfied++
		}
	}
	if smaShort != nil && smaMedium != nil {
		checks++
		if *smaShort > *smaMedium {
			satisfied++
		}
	}
	if smaMedium != nil && smaLong != nil {
		checks++
		if *smaMedium > *smaLong {
			satisfied++
		}
	}

	if checks == 0 {
		return scoring.TrendPoints / 2
	}
	return scoring.TrendPoints * float64(satisfied) / float64(checks)
}

func scoreMomentum(meanReturn float64) float64 {
	switch {
	case meanReturn > scoring.MomentumStrong:
		return scoring.MomentumPoints
	case meanReturn > 0:
		return scoring.MomentumPoints * 0.7
	case meanReturn > scoring.MomentumWeak:
		return scoring.MomentumPoints * 0.3
	default:
		return 0
	}
}

func scoreTechnicalVolatility(vol float64) float64 {
	switch {
	case vol >= scoring.TechVolSweetLow && vol <= scoring.TechVolSweetHigh:
		return scoring.VolatilityPoints
	case vol < scoring.TechVolSweetLow:
		return scoring.VolatilityPoints * 2 / 3
	case vol <= scoring.TechVolElevated:
		return scoring.VolatilityPoints / 2
	default:
		return scoring.VolatilityPoints / 6
	}
}

// round3 rounds a float to 3 decimal places
func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
