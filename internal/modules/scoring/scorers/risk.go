package scorers

import (
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/scoring"
	"github.com/aristath/advisor/pkg/formulas"
)

// RiskScorer scores how safe an asset is (higher = safer)
type RiskScorer struct{}

// RiskScore represents the result of risk scoring
type RiskScore struct {
	Components map[string]float64 `json:"components"`
	Score      float64            `json:"score"`
}

// NewRiskScorer creates a new risk scorer
func NewRiskScorer() *RiskScorer {
	return &RiskScorer{}
}

// Calculate combines annualised volatility, size tier and drawdown
func (rs *RiskScorer) Calculate(closes []float64, tier domain.MarketCapTier) RiskScore {
	vol := formulas.AnnualizedVolatility(formulas.CalculateReturns(closes))
	volScore := scoreRiskVolatility(vol)
	tierScore := scoreTier(tier)

	drawdown := formulas.MaxDrawdown(closes)
	penalty := 0.0
	if drawdown > scoring.DrawdownLimit {
		penalty = scoring.DrawdownPenalty
	}

	return RiskScore{
		Score: formulas.Round(formulas.Clamp(volScore+tierScore-penalty, 0, 100), 2),
		Components: map[string]float64{
			"volatility":       volScore,
			"size":             tierScore,
			"drawdown_penalty": penalty,
			"volatility_raw":   vol,
			"drawdown_raw":     drawdown,
		},
	}
}

func scoreRiskVolatility(vol float64) float64 {
	switch {
	case vol < scoring.RiskVolLow:
		return 60
	case vol < scoring.RiskVolModerate:
		return 45
	case vol < scoring.RiskVolHigh:
		return 30
	default:
		return 15
	}
}

func scoreTier(tier domain.MarketCapTier) float64 {
	switch tier {
	case domain.MarketCapLarge:
		return 40
	case domain.MarketCapMid:
		return 28
	case domain.MarketCapSmall:
		return 15
	default:
		return 20
	}
}
