package scorers

import (
	"hash/fnv"
	"math/rand"
	"strconv"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// FallbackScorer produces plausible, reproducible scores when market history is too
// short for the full scorers. All jitter comes from a generator seeded by
// (symbol, rank, profile), so identical inputs give identical scores.
type FallbackScorer struct {
	policy      config.FallbackPolicy
	sectorBands map[string]config.Band
}

// NewFallbackScorer creates a fallback scorer. Sector bands are matched on
// normalised labels.
func NewFallbackScorer(policy config.FallbackPolicy) *FallbackScorer {
	bands := make(map[string]config.Band, len(policy.SectorSentiment))
	for sector, band := range policy.SectorSentiment {
		bands[domain.NormalizeLabel(sector)] = band
	}
	return &FallbackScorer{policy: policy, sectorBands: bands}
}

// Score returns the four clamped sub-scores with IsFallback set.
// Draw order is fixed: technical, fundamental, sentiment, risk, profile tilt.
func (fs *FallbackScorer) Score(asset domain.Asset, data domain.MarketData, rank int, profile domain.RiskProfile) domain.ScoreBreakdown {
	rng := newJitter(asset.Symbol, rank, profile)
	base := fs.policy.BaseScore - fs.policy.RankStep*float64(rank)

	technical := fs.technical(base, data.Closes(), rng)
	fundamental := fs.fundamental(base, data.Fundamentals, rng)
	sentiment := fs.sentiment(base, asset.Sector, data.Sentiment, rng)
	risk := fs.risk(base, asset.Tier(), rng)

	switch profile {
	case domain.RiskConservative:
		risk += rng.between(5, 10)
		technical -= rng.between(0, 5)
	case domain.RiskAggressive:
		risk -= rng.between(0, 5)
		technical += rng.between(3, 8)
	}

	return domain.ScoreBreakdown{
		Technical:   fs.clamp(technical),
		Fundamental: fs.clamp(fundamental),
		Sentiment:   fs.clamp(sentiment),
		Risk:        fs.clamp(risk),
		IsFallback:  true,
	}
}

func (fs *FallbackScorer) technical(base float64, closes []float64, rng *jitter) float64 {
	if len(closes) < fs.policy.MinPricePoints {
		return base + rng.between(-5, 5)
	}
	if window := fs.policy.PriceWindow; window > 0 && len(closes) > window {
		closes = closes[len(closes)-window:]
	}

	score := base
	switch volatility := formulas.MeanAbsoluteDeviation(closes); {
	case volatility < 0.02:
		score += rng.between(5, 10)
	case volatility < 0.05:
		score += rng.between(0, 5)
	default:
		score -= rng.between(0, 5)
	}

	oldest, latest := closes[0], closes[len(closes)-1]
	if oldest > 0 {
		change := (latest - oldest) / oldest
		switch {
		case change > 0.05:
			score += rng.between(3, 8)
		case change < -0.05:
			score -= rng.between(3, 8)
		}
	}
	return score
}

func (fs *FallbackScorer) fundamental(base float64, f *domain.Fundamentals, rng *jitter) float64 {
	if f == nil {
		return base + rng.between(-5, 5)
	}

	score := base
	if f.PERatio != nil {
		switch pe := *f.PERatio; {
		case pe >= 10 && pe <= 30:
			score += rng.between(5, 10)
		case pe > 50:
			score -= rng.between(3, 8)
		}
	}
	if f.ROE != nil {
		switch roe := *f.ROE; {
		case roe > 0.15:
			score += rng.between(3, 7)
		case roe < 0.05:
			score -= rng.between(3, 7)
		}
	}
	return score
}

func (fs *FallbackScorer) sentiment(base float64, sector string, reading *domain.SentimentReading, rng *jitter) float64 {
	if reading != nil && !reading.Neutral {
		return reading.Score
	}
	if band, ok := fs.sectorBands[domain.NormalizeLabel(sector)]; ok {
		return rng.between(band.Min, band.Max)
	}
	return base + rng.between(-5, 5)
}

func (fs *FallbackScorer) risk(base float64, tier domain.MarketCapTier, rng *jitter) float64 {
	switch tier {
	case domain.MarketCapLarge:
		return base + rng.between(8, 15)
	case domain.MarketCapMid:
		return base + rng.between(3, 10)
	case domain.MarketCapSmall:
		return base - rng.between(0, 5)
	default:
		return base + rng.between(-5, 5)
	}
}

func (fs *FallbackScorer) clamp(v float64) float64 {
	return formulas.Clamp(v, fs.policy.MinScore, fs.policy.MaxScore)
}

// jitter is an integer generator seeded from a stable hash of the scoring key
type jitter struct {
	r *rand.Rand
}

func newJitter(symbol string, rank int, profile domain.RiskProfile) *jitter {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol + "|" + strconv.Itoa(rank) + "|" + string(profile)))
	return &jitter{r: rand.New(rand.NewSource(int64(h.Sum64())))}
}

// between returns an integer in [lo, hi] as float64
func (j *jitter) between(lo, hi int) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	return float64(lo + j.r.Intn(hi-lo+1))
}
