package scorers

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
)

func newTestFactorScorer() *FactorScorer {
	return NewFactorScorer(config.DefaultPolicy().Fallback, zerolog.Nop())
}

func TestFactorScorer_InvalidAsset(t *testing.T) {
	scorer := newTestFactorScorer()

	_, err := scorer.Score(domain.Asset{Symbol: " ", Class: domain.AssetClassEquity}, domain.MarketData{}, 0, domain.RiskModerate)
	var invalid *domain.InvalidAssetError
	require.ErrorAs(t, err, &invalid)

	_, err = scorer.Score(domain.Asset{Symbol: "X", Class: "reit"}, domain.MarketData{}, 0, domain.RiskModerate)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "X", invalid.Symbol)
}

func TestFactorScorer_FullPath(t *testing.T) {
	scorer := newTestFactorScorer()
	asset := domain.Asset{Symbol: "RELIANCE", Class: domain.AssetClassEquity, CapTier: domain.MarketCapLarge}
	data := domain.MarketData{
		Prices: barsFromCloses(linearCloses(250, 100, 0.5)),
		Fundamentals: &domain.Fundamentals{
			PERatio: floatPtr(12), ProfitMargin: floatPtr(0.25),
			DebtToEquity: floatPtr(0.3), ROE: floatPtr(0.25),
		},
	}

	b, err := scorer.Score(asset, data, 0, domain.RiskModerate)
	require.NoError(t, err)

	assert.False(t, b.IsFallback)
	assert.Equal(t, 85.0, b.Technical)
	assert.Equal(t, 100.0, b.Fundamental)
	assert.Equal(t, 50.0, b.Sentiment, "no provider reading is neutral")
	assert.Equal(t, 100.0, b.Risk)
}

func TestFactorScorer_ShortHistoryFallsBack(t *testing.T) {
	scorer := newTestFactorScorer()
	asset := domain.Asset{Symbol: "IPO", Class: domain.AssetClassEquity}
	data := domain.MarketData{
		Prices:       barsFromCloses(linearCloses(30, 100, 1)),
		Fundamentals: &domain.Fundamentals{PERatio: floatPtr(20)},
	}

	b, err := scorer.Score(asset, data, 1, domain.RiskAggressive)
	require.NoError(t, err)
	assert.True(t, b.IsFallback)
	assertInFallbackRange(t, b)

	again, err := scorer.Score(asset, data, 1, domain.RiskAggressive)
	require.NoError(t, err)
	assert.Equal(t, b, again)
}

func TestFactorScorer_MissingFundamentalsFallsBack(t *testing.T) {
	scorer := newTestFactorScorer()
	asset := domain.Asset{Symbol: "GOLDBEES", Class: domain.AssetClassETF}
	data := domain.MarketData{Prices: barsFromCloses(linearCloses(120, 50, 0.1))}

	b, err := scorer.Score(asset, data, 0, domain.RiskModerate)
	require.NoError(t, err)
	assert.True(t, b.IsFallback)
}
