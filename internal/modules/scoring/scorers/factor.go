package scorers

import (
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
)

// FactorScorer computes the four sub-scores of one asset. With enough history and a
// fundamental snapshot it uses the full scorers; otherwise the fallback scorer.
type FactorScorer struct {
	technical   *TechnicalScorer
	fundamental *FundamentalScorer
	risk        *RiskScorer
	fallback    *FallbackScorer
	log         zerolog.Logger
}

// NewFactorScorer creates a factor scorer
func NewFactorScorer(policy config.FallbackPolicy, log zerolog.Logger) *FactorScorer {
	return &FactorScorer{
		technical:   NewTechnicalScorer(),
		fundamental: NewFundamentalScorer(),
		risk:        NewRiskScorer(),
		fallback:    NewFallbackScorer(policy),
		log:         log.With().Str("component", "factor_scorer").Logger(),
	}
}

// Score scores one asset. rank is its 0-based position in the candidate list and only
// influences the fallback path. Missing data never fails; only a malformed asset
// identity returns *domain.InvalidAssetError.
func (fs *FactorScorer) Score(asset domain.Asset, data domain.MarketData, rank int, profile domain.RiskProfile) (domain.ScoreBreakdown, error) {
	if err := asset.Validate(); err != nil {
		return domain.ScoreBreakdown{}, err
	}

	if !data.HasFullHistory() {
		breakdown := fs.fallback.Score(asset, data, rank, profile)
		fs.log.Debug().
			Str("symbol", asset.Symbol).
			Int("bars", len(data.Prices)).
			Bool("fundamentals", data.Fundamentals != nil).
			Msg("Insufficient history, using fallback scores")
		return breakdown, nil
	}

	closes := data.Closes()
	tier := asset.Tier()

	return domain.ScoreBreakdown{
		Technical:   fs.technical.Calculate(closes).Score,
		Fundamental: fs.fundamental.Calculate(asset.Class, tier, data.Fundamentals).Score,
		Sentiment:   SentimentScore(data.Sentiment),
		Risk:        fs.risk.Calculate(closes, tier).Score,
	}, nil
}
