package scorers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
)

func newTestFallback() *FallbackScorer {
	return NewFallbackScorer(config.DefaultPolicy().Fallback)
}

func assertInFallbackRange(t *testing.T, b domain.ScoreBreakdown) {
	t.Helper()
	for _, s := range b.SubScores() {
		assert.GreaterOrEqual(t, s, 50.0)
		assert.LessOrEqual(t, s, 95.0)
	}
}

func TestFallbackScorer_NoDataAtAll(t *testing.T) {
	scorer := newTestFallback()
	asset := domain.Asset{Symbol: "NEWCO", Class: domain.AssetClassEquity, Sector: "Unlisted"}

	for _, profile := range []domain.RiskProfile{domain.RiskConservative, domain.RiskModerate, domain.RiskAggressive} {
		b := scorer.Score(asset, domain.MarketData{}, 0, profile)
		assert.True(t, b.IsFallback)
		assertInFallbackRange(t, b)
	}
}

func TestFallbackScorer_Deterministic(t *testing.T) {
	scorer := newTestFallback()
	asset := domain.Asset{Symbol: "INFY", Class: domain.AssetClassEquity, Sector: "Technology", CapTier: domain.MarketCapLarge}
	data := domain.MarketData{Prices: barsFromCloses(linearCloses(12, 1500, 4))}

	first := scorer.Score(asset, data, 3, domain.RiskModerate)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scorer.Score(asset, data, 3, domain.RiskModerate))
	}

	// A second scorer built from the same policy agrees
	assert.Equal(t, first, newTestFallback().Score(asset, data, 3, domain.RiskModerate))
}

func TestFallbackScorer_SectorSentimentBand(t *testing.T) {
	scorer := newTestFallback()
	asset := domain.Asset{Symbol: "TCS", Class: domain.AssetClassEquity, Sector: "Technology"}

	for rank := 0; rank < 10; rank++ {
		b := scorer.Score(asset, domain.MarketData{}, rank, domain.RiskModerate)
		assert.GreaterOrEqual(t, b.Sentiment, 70.0)
		assert.LessOrEqual(t, b.Sentiment, 80.0)
	}
}

func TestFallbackScorer_ProviderSentimentWins(t *testing.T) {
	scorer := newTestFallback()
	asset := domain.Asset{Symbol: "TCS", Class: domain.AssetClassEquity, Sector: "Technology"}

	bullish := scorer.Score(asset, domain.MarketData{Sentiment: &domain.SentimentReading{Score: 90}}, 0, domain.RiskModerate)
	assert.Equal(t, 90.0, bullish.Sentiment)

	bearish := scorer.Score(asset, domain.MarketData{Sentiment: &domain.SentimentReading{Score: 20}}, 0, domain.RiskModerate)
	assert.Equal(t, 50.0, bearish.Sentiment, "fallback scores are clamped to the policy floor")
}

func TestFallbackScorer_ConservativeLargeCapRisk(t *testing.T) {
	scorer := newTestFallback()
	asset := domain.Asset{Symbol: "HDFCBANK", Class: domain.AssetClassEquity, CapTier: domain.MarketCapLarge}

	b := scorer.Score(asset, domain.MarketData{}, 0, domain.RiskConservative)

	// base 75 + size [8,15] + conservative tilt [5,10], clamped at 95
	assert.GreaterOrEqual(t, b.Risk, 88.0)
	assert.LessOrEqual(t, b.Risk, 95.0)
}

// unclampedFallback widens the clamp so the raw draws stay observable
func unclampedFallback() *FallbackScorer {
	policy := config.DefaultPolicy().Fallback
	policy.MinScore, policy.MaxScore = 0, 100
	return NewFallbackScorer(policy)
}

// untilted replays the draws Score makes before the profile tilt for an asset
// with no data, unknown sector and unknown size
func untilted(symbol string, rank int, profile domain.RiskProfile) (technical, risk float64) {
	policy := config.DefaultPolicy().Fallback
	base := policy.BaseScore - policy.RankStep*float64(rank)
	rng := newJitter(symbol, rank, profile)
	technical = base + rng.between(-5, 5)
	rng.between(-5, 5) // fundamental
	rng.between(-5, 5) // sentiment
	risk = base + rng.between(-5, 5)
	return technical, risk
}

func TestFallbackScorer_ProfileTilt(t *testing.T) {
	scorer := unclampedFallback()

	tests := []struct {
		name                       string
		profile                    domain.RiskProfile
		technicalMin, technicalMax float64
		riskMin, riskMax           float64
	}{
		{"moderate is untilted", domain.RiskModerate, 0, 0, 0, 0},
		{"conservative favours risk", domain.RiskConservative, -5, 0, 5, 10},
		{"aggressive favours technical", domain.RiskAggressive, 3, 8, -5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for rank := 0; rank < 12; rank++ {
				asset := domain.Asset{Symbol: "NEWCO", Class: domain.AssetClassEquity, Sector: "Unlisted"}
				b := scorer.Score(asset, domain.MarketData{}, rank, tt.profile)
				technical, risk := untilted(asset.Symbol, rank, tt.profile)

				technicalTilt := b.Technical - technical
				riskTilt := b.Risk - risk
				assert.GreaterOrEqual(t, technicalTilt, tt.technicalMin, "rank %d", rank)
				assert.LessOrEqual(t, technicalTilt, tt.technicalMax, "rank %d", rank)
				assert.GreaterOrEqual(t, riskTilt, tt.riskMin, "rank %d", rank)
				assert.LessOrEqual(t, riskTilt, tt.riskMax, "rank %d", rank)
			}
		})
	}
}

func TestFallbackScorer_ProfileBoundsWithoutData(t *testing.T) {
	scorer := newTestFallback()

	tests := []struct {
		profile                    domain.RiskProfile
		technicalMin, technicalMax float64
		riskMin, riskMax           float64
	}{
		{domain.RiskModerate, 70, 80, 70, 80},
		{domain.RiskConservative, 65, 80, 75, 90},
		{domain.RiskAggressive, 73, 88, 65, 80},
	}
	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			for _, symbol := range []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG", "HHH"} {
				asset := domain.Asset{Symbol: symbol, Class: domain.AssetClassEquity, Sector: "Unlisted"}
				b := scorer.Score(asset, domain.MarketData{}, 0, tt.profile)

				assert.GreaterOrEqual(t, b.Technical, tt.technicalMin, symbol)
				assert.LessOrEqual(t, b.Technical, tt.technicalMax, symbol)
				assert.GreaterOrEqual(t, b.Risk, tt.riskMin, symbol)
				assert.LessOrEqual(t, b.Risk, tt.riskMax, symbol)
			}
		})
	}
}

func TestFallbackScorer_BaseDropsByRankStep(t *testing.T) {
	scorer := unclampedFallback()
	policy := config.DefaultPolicy().Fallback
	asset := domain.Asset{Symbol: "NEWCO", Class: domain.AssetClassEquity, Sector: "Unlisted"}

	previous := 0.0
	for rank := 0; rank < 15; rank++ {
		b := scorer.Score(asset, domain.MarketData{}, rank, domain.RiskModerate)
		rng := newJitter(asset.Symbol, rank, domain.RiskModerate)
		base := b.Technical - rng.between(-5, 5)

		assert.Equal(t, policy.BaseScore-policy.RankStep*float64(rank), base, "rank %d", rank)
		if rank > 0 {
			assert.Equal(t, policy.RankStep, previous-base, "rank %d", rank)
		}
		previous = base
	}
}

func TestFallbackScorer_SectorBandIgnoresCase(t *testing.T) {
	scorer := newTestFallback()

	for _, sector := range []string{"technology", "  TECHNOLOGY ", "Technology"} {
		asset := domain.Asset{Symbol: "TCS", Class: domain.AssetClassEquity, Sector: sector}
		for rank := 0; rank < 10; rank++ {
			b := scorer.Score(asset, domain.MarketData{}, rank, domain.RiskModerate)
			assert.GreaterOrEqual(t, b.Sentiment, 70.0, "%q rank %d", sector, rank)
			assert.LessOrEqual(t, b.Sentiment, 80.0, "%q rank %d", sector, rank)
		}
	}
}

func TestFallbackScorer_DeepRankHitsFloor(t *testing.T) {
	scorer := newTestFallback()
	asset := domain.Asset{Symbol: "TAIL", Class: domain.AssetClassFund}

	b := scorer.Score(asset, domain.MarketData{}, 30, domain.RiskModerate)

	assert.Equal(t, domain.ScoreBreakdown{
		Technical: 50, Fundamental: 50, Sentiment: 50, Risk: 50, IsFallback: true,
	}, b)
}

func TestJitterBetweenIsInclusive(t *testing.T) {
	j := newJitter("X", 0, domain.RiskModerate)
	seen := map[float64]bool{}
	for i := 0; i < 500; i++ {
		v := j.between(3, 5)
		assert.GreaterOrEqual(t, v, 3.0)
		assert.LessOrEqual(t, v, 5.0)
		seen[v] = true
	}
	assert.Len(t, seen, 3)
}
